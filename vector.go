package middleout

import (
	"unsafe"

	"github.com/ajroetker/go-highway/hwy"
	"github.com/ajroetker/go-highway/hwy/contrib/algo"
)

// vectorKernels is the wide-lane engine. It starts out with the scalar
// versions of every hwy backed kernel; initSIMDSelection swaps in the lane
// kernels when go-highway dispatched to a SIMD target and, on amd64, the
// hand-written assembly.
var vectorKernels = kernelSet{
	name:     "vector",
	deltas:   deltasScalar,
	classify: classifyScalar,
	pack:     packLanes,
	unpack:   unpackLanes,
	undelta:  undeltaScalar,
	fill:     fillScalar,
}

// laneKernels holds the go-highway implementation of every kernel.
var laneKernels = kernelSet{
	name:     "lanes",
	deltas:   deltasLanes,
	classify: classifyLanes,
	pack:     packLanes,
	unpack:   unpackLanes,
	undelta:  undeltaLanes,
	fill:     fillLanes,
}

var (
	// laneCount is the number of 64-bit lanes per hwy vector.
	laneCount = max(1, hwy.MaxLanes[uint64]())

	nativeLittleEndian = func() bool {
		x := uint16(1)
		return *(*byte)(unsafe.Pointer(&x)) == 1
	}()
)

// asInt64s reinterprets a uint64 slice as int64 lanes.
func asInt64s(s []uint64) []int64 {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(unsafe.SliceData(s))), len(s))
}

// asBytes reinterprets a uint64 slice as its in-memory bytes.
func asBytes(s []uint64) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*8)
}

func deltasLanes(dst, src []uint64, prev uint64) {
	dst = dst[:len(src)]
	copy(dst, src)
	algo.DeltaEncode(dst, prev)
	zigzagLanes(dst)
}

// zigzagLanes applies zigzagEncode64 to every element in place.
func zigzagLanes(buf []uint64) {
	s := asInt64s(buf)
	i := 0
	for ; i+laneCount <= len(s); i += laneCount {
		v := hwy.Load(s[i:])
		hwy.Store(hwy.Xor(hwy.ShiftLeft(v, 1), hwy.ShiftRight(v, 63)), s[i:])
	}
	for ; i < len(buf); i++ {
		buf[i] = zigzagEncode64(buf[i])
	}
}

// classifyLanes settles lane groups whose largest delta fits one byte in a
// single step and classifies the others element by element.
func classifyLanes(dst []uint8, deltas []uint64) {
	dst = dst[:len(deltas)]
	i := 0
	for ; i+laneCount <= len(deltas); i += laneCount {
		if hwy.ReduceMax(hwy.Load(deltas[i:])) <= 0xFF {
			clear(dst[i : i+laneCount])
			continue
		}
		for j := i; j < i+laneCount; j++ {
			dst[j] = widthClass(deltas[j])
		}
	}
	for ; i < len(deltas); i++ {
		dst[i] = widthClass(deltas[i])
	}
}

func packLanes(dst []byte, deltas []uint64, width int) {
	if width == 8 && nativeLittleEndian {
		copy(dst, asBytes(deltas))
		return
	}

	i := 0
	switch width {
	case 1:
		dst = dst[:len(deltas)]
		for ; i+4 <= len(deltas); i += 4 {
			dst[i] = byte(deltas[i])
			dst[i+1] = byte(deltas[i+1])
			dst[i+2] = byte(deltas[i+2])
			dst[i+3] = byte(deltas[i+3])
		}
	case 2:
		for ; i+4 <= len(deltas); i += 4 {
			b := dst[2*i : 2*i+8]
			bo.PutUint16(b[0:], uint16(deltas[i]))
			bo.PutUint16(b[2:], uint16(deltas[i+1]))
			bo.PutUint16(b[4:], uint16(deltas[i+2]))
			bo.PutUint16(b[6:], uint16(deltas[i+3]))
		}
	case 4:
		for ; i+4 <= len(deltas); i += 4 {
			b := dst[4*i : 4*i+16]
			bo.PutUint32(b[0:], uint32(deltas[i]))
			bo.PutUint32(b[4:], uint32(deltas[i+1]))
			bo.PutUint32(b[8:], uint32(deltas[i+2]))
			bo.PutUint32(b[12:], uint32(deltas[i+3]))
		}
	}
	packScalar(dst[i*width:], deltas[i:], width)
}

func unpackLanes(dst []uint64, src []byte, width int) {
	if width == 8 && nativeLittleEndian {
		copy(asBytes(dst), src[:len(dst)*8])
		return
	}

	i := 0
	switch width {
	case 1:
		src = src[:len(dst)]
		for ; i+4 <= len(dst); i += 4 {
			dst[i] = uint64(src[i])
			dst[i+1] = uint64(src[i+1])
			dst[i+2] = uint64(src[i+2])
			dst[i+3] = uint64(src[i+3])
		}
	case 2:
		for ; i+4 <= len(dst); i += 4 {
			b := src[2*i : 2*i+8]
			dst[i] = uint64(bo.Uint16(b[0:]))
			dst[i+1] = uint64(bo.Uint16(b[2:]))
			dst[i+2] = uint64(bo.Uint16(b[4:]))
			dst[i+3] = uint64(bo.Uint16(b[6:]))
		}
	case 4:
		for ; i+4 <= len(dst); i += 4 {
			b := src[4*i : 4*i+16]
			dst[i] = uint64(bo.Uint32(b[0:]))
			dst[i+1] = uint64(bo.Uint32(b[4:]))
			dst[i+2] = uint64(bo.Uint32(b[8:]))
			dst[i+3] = uint64(bo.Uint32(b[12:]))
		}
	}
	unpackScalar(dst[i:], src[i*width:], width)
}

func undeltaLanes(vals []uint64, prev uint64) uint64 {
	unzigzagLanes(vals)
	for i, d := range vals {
		prev += d
		vals[i] = prev
	}
	return prev
}

// unzigzagLanes applies zigzagDecode64 to every element in place.
func unzigzagLanes(buf []uint64) {
	one := hwy.Set[uint64](1)
	zero := hwy.Zero[uint64]()
	i := 0
	for ; i+laneCount <= len(buf); i += laneCount {
		v := hwy.Load(buf[i:])
		sign := hwy.Sub(zero, hwy.And(v, one))
		hwy.Store(hwy.Xor(hwy.ShiftRight(v, 1), sign), buf[i:])
	}
	for ; i < len(buf); i++ {
		buf[i] = zigzagDecode64(buf[i])
	}
}

func fillLanes(dst []uint64, v uint64) {
	splat := hwy.Set(v)
	i := 0
	for ; i+laneCount <= len(dst); i += laneCount {
		hwy.Store(splat, dst[i:])
	}
	for ; i < len(dst); i++ {
		dst[i] = v
	}
}

// initLaneSelection installs the lane kernels when go-highway dispatched to
// a SIMD target. On go-highway's scalar fallback the plain loops stay.
func initLaneSelection() {
	if hwy.CurrentLevel() == hwy.DispatchScalar {
		return
	}
	vectorKernels.deltas = laneKernels.deltas
	vectorKernels.classify = laneKernels.classify
	vectorKernels.undelta = laneKernels.undelta
	vectorKernels.fill = laneKernels.fill
	simdAvailable = true
	simdName = hwy.CurrentName()
}
