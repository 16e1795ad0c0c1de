// Package pool holds sync.Pool backed scratch slices used by the block
// encoder.
package pool

import "sync"

var (
	uint64SlicePool = sync.Pool{
		New: func() any { return &[]uint64{} },
	}
	uint8SlicePool = sync.Pool{
		New: func() any { return &[]uint8{} },
	}
)

// GetUint64Slice retrieves a uint64 slice of exactly size elements from the
// pool. The contents are unspecified. The caller must call the returned
// cleanup function (typically with defer) once it is done with the slice.
//
// Example:
//
//	deltas, cleanup := pool.GetUint64Slice(4096)
//	defer cleanup()
func GetUint64Slice(size int) ([]uint64, func()) {
	ptr, _ := uint64SlicePool.Get().(*[]uint64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint64, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { uint64SlicePool.Put(ptr) }
}

// GetUint8Slice retrieves a uint8 slice of exactly size elements from the
// pool. The contents are unspecified. The caller must call the returned
// cleanup function once it is done with the slice.
func GetUint8Slice(size int) ([]uint8, func()) {
	ptr, _ := uint8SlicePool.Get().(*[]uint8)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]uint8, size)
	} else {
		slice = slice[:size]
	}
	*ptr = slice

	return slice, func() { uint8SlicePool.Put(ptr) }
}
