package middleout

import (
	"fmt"
	"iter"
)

// Reader provides sequential and random access to a compressed buffer
// without decoding it as a whole. Only the block holding the most recently
// accessed element is kept decoded.
// A Reader is not safe for concurrent use. Create multiple readers from
// the same buffer if concurrent access is needed.
type Reader[T Element] struct {
	codec *Codec

	// blocks is the block area of the loaded buffer (footer stripped)
	blocks []byte

	// index locates blocks and their base values (built on Load)
	index *Index

	// pos is the current position for sequential iteration (0-based)
	pos int

	// cache holds the decoded elements cacheFirst..cacheFirst+cacheLen-1
	cache      [maxBlockLen]uint64
	cacheFirst int
	cacheLen   int

	// loaded indicates if the reader has been loaded with data
	loaded bool
}

// NewReader creates an empty Reader that must be loaded with Load() before use.
func NewReader[T Element]() *Reader[T] {
	return NewReaderWith[T](defaultCodec)
}

// NewReaderWith creates an empty Reader that decodes with the engine and
// checksum settings of c.
func NewReaderWith[T Element](c *Codec) *Reader[T] {
	return &Reader[T]{codec: c}
}

// Load a compressed buffer holding count elements into the reader.
// Load validates the whole buffer and indexes its blocks; later accesses
// cannot fail on malformed input. It can be called multiple times to reuse
// the reader.
//
// The reader keeps a reference to src without copying it. src must not be
// modified until the reader is loaded with another buffer or discarded.
func (r *Reader[T]) Load(src []byte, count int) error {
	if r.codec == nil {
		r.codec = defaultCodec
	}
	r.loaded = false
	ix, err := r.codec.buildIndex(src, count)
	if err != nil {
		return err
	}
	r.attach(src, ix)

	return nil
}

// LoadIndex loads a compressed buffer together with an index built for it
// earlier, typically one restored with Index.UnmarshalBinary. It checks the
// footer and that every indexed block header matches the buffer, but does
// not scan the block bodies, so it is cheaper than Load for large buffers.
// An index built for a different buffer with the same block layout is not
// detected. The same reference contract as for Load applies to src.
func (r *Reader[T]) LoadIndex(src []byte, ix *Index) error {
	if r.codec == nil {
		r.codec = defaultCodec
	}
	r.loaded = false
	if ix == nil {
		return fmt.Errorf("%w: nil index", ErrLengthMismatch)
	}
	if ix.count == 0 && len(src) == 0 {
		r.attach(src, ix)
		return nil
	}
	blocks, _, err := r.codec.openBlocks(src)
	if err != nil {
		return err
	}
	if err := ix.matches(blocks); err != nil {
		return err
	}
	r.attach(src, ix)

	return nil
}

func (r *Reader[T]) attach(src []byte, ix *Index) {
	r.blocks = nil
	if len(src) >= footerBytes {
		r.blocks = src[:len(src)-footerBytes]
	}
	r.index = ix
	r.pos = 0
	r.cacheFirst, r.cacheLen = 0, 0
	r.loaded = true
}

// IsLoaded returns whether the reader has been loaded with data.
func (r *Reader[T]) IsLoaded() bool {
	return r.loaded
}

// Len returns the number of elements in the buffer.
func (r *Reader[T]) Len() int {
	if !r.loaded {
		return 0
	}
	return r.index.count
}

// Pos returns the current position for sequential iteration.
func (r *Reader[T]) Pos() int {
	return r.pos
}

// Reset resets the reader position to the beginning for sequential iteration.
func (r *Reader[T]) Reset() {
	r.pos = 0
}

// Index returns the block index built by Load, or nil before Load.
func (r *Reader[T]) Index() *Index {
	if !r.loaded {
		return nil
	}
	return r.index
}

// Get returns the value at the specified position.
// Returns an error if the reader is not loaded or pos is out of range.
func (r *Reader[T]) Get(pos int) (T, error) {
	if !r.loaded {
		return 0, ErrNotLoaded
	}
	if pos < 0 || pos >= r.index.count {
		return 0, ErrPositionOutOfRange
	}
	return fromBits[T](r.valueAt(pos)), nil
}

// GetSafe returns the value at the specified position and whether the position is valid.
func (r *Reader[T]) GetSafe(pos int) (T, bool) {
	val, err := r.Get(pos)
	return val, err == nil
}

// Next returns the next value in sequence.
// Returns (0, false) if not loaded or no more elements.
func (r *Reader[T]) Next() (T, bool) {
	if !r.loaded || r.pos >= r.index.count {
		return 0, false
	}
	v := r.valueAt(r.pos)
	r.pos++
	return fromBits[T](v), true
}

// All returns an iterator over all positions and values, independent of the
// sequential position used by Next.
func (r *Reader[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if !r.loaded {
			return
		}
		for i := range r.index.count {
			if !yield(i, fromBits[T](r.valueAt(i))) {
				return
			}
		}
	}
}

// Decode decodes all values into the provided destination slice.
// If dst has insufficient capacity, a new slice is allocated.
func (r *Reader[T]) Decode(dst []T) ([]T, error) {
	if !r.loaded {
		return nil, ErrNotLoaded
	}
	if cap(dst) < r.index.count {
		dst = make([]T, r.index.count)
	} else {
		dst = dst[:r.index.count]
	}
	if err := decodeBlocks(r.codec.kernels, bitsOf(dst), r.blocks); err != nil {
		return nil, err
	}
	return dst, nil
}

// valueAt returns the raw bits of element pos, decoding its block if it is
// not cached. pos must be in range.
func (r *Reader[T]) valueAt(pos int) uint64 {
	if off := pos - r.cacheFirst; off >= 0 && off < r.cacheLen {
		return r.cache[off]
	}
	b, off, _ := r.index.Locate(pos)
	r.loadBlock(b)
	return r.cache[off]
}

// loadBlock decodes block b into the cache. The header was validated by
// Load or LoadIndex.
func (r *Reader[T]) loadBlock(b int) {
	e := r.index.blocks[b]
	h, _ := readBlockHeader(r.blocks, e.offset)
	body := r.blocks[e.offset+blockHeaderBytes : e.offset+h.size()]
	decodeBlock(r.codec.kernels, r.cache[:h.count], body, h, e.base)
	r.cacheFirst, r.cacheLen = e.first, h.count
}
