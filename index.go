package middleout

import (
	"fmt"
	"math"
	"sort"
)

// Index serialization layout:
//
//	Byte 0:     index format version (indexVersion)
//	Bytes 1-4:  number of blocks B (uint32)
//	Bytes 5-12: number of elements (uint64)
//
// followed by four sections, each a uint32 byte length and a StreamVByte
// stream of B values:
//
//	1. element count - 1 of every block
//	2. byte size of every block (header and body)
//	3. low 32 bits of zigzag(base[b] - base[b-1])
//	4. high 32 bits of the same delta
//
// where base[b] is the element preceding block b (0 for the first block).
const (
	indexVersion     = 1
	indexHeaderBytes = 1 + 4 + 8
	indexSections    = 4
)

// Index records where the blocks of a compressed buffer start and which
// value precedes each of them, so a single block can be decoded without
// decoding the blocks before it.
type Index struct {
	count  int
	blocks []indexBlock
}

type indexBlock struct {
	first  int    // position of the block's first element
	offset int    // byte offset of the block header
	size   int    // header and body bytes
	base   uint64 // value preceding the block
}

// BuildIndex scans a compressed buffer holding count elements. It performs
// the same validation as Decompress.
func BuildIndex(src []byte, count int) (*Index, error) {
	return defaultCodec.buildIndex(src, count)
}

func (c *Codec) buildIndex(src []byte, count int) (*Index, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: negative element count %d", ErrLengthMismatch, count)
	}
	ix := &Index{count: count}
	if count == 0 && len(src) == 0 {
		return ix, nil
	}
	blocks, _, err := c.openBlocks(src)
	if err != nil {
		return nil, err
	}

	var prev uint64
	offset := 0
	err = walkBlocks(blocks, count, func(first int, h blockHeader, body []byte) {
		ix.blocks = append(ix.blocks, indexBlock{first: first, offset: offset, size: h.size(), base: prev})
		prev = lastValue(body, h, prev)
		offset += h.size()
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

// lastValue returns the final element of a block without materializing it.
func lastValue(body []byte, h blockHeader, prev uint64) uint64 {
	if h.repeat {
		return prev + zigzagDecode64(getDelta(body, h.width))
	}
	for k := range h.count {
		prev += zigzagDecode64(getDelta(body[k*h.width:], h.width))
	}
	return prev
}

// matches checks that the indexed blocks tile the block area exactly and
// that every block header agrees with the index.
func (ix *Index) matches(blocks []byte) error {
	offset := 0
	for b, e := range ix.blocks {
		h, err := readBlockHeader(blocks, offset)
		if err != nil {
			return err
		}
		if e.offset != offset || h.size() != e.size || h.count != ix.blockLen(b) {
			return fmt.Errorf("%w: index block %d (%d elements, %d bytes) does not match the buffer (%d elements, %d bytes)",
				ErrLengthMismatch, b, ix.blockLen(b), e.size, h.count, h.size())
		}
		offset += e.size
	}
	if offset != len(blocks) {
		return fmt.Errorf("%w: index covers %d block bytes, buffer has %d",
			ErrLengthMismatch, offset, len(blocks))
	}
	return nil
}

// Blocks returns the number of blocks.
func (ix *Index) Blocks() int {
	return len(ix.blocks)
}

// Len returns the number of elements.
func (ix *Index) Len() int {
	return ix.count
}

// Locate returns the block holding element pos and the position of the
// element inside that block. ok is false if pos is out of range.
func (ix *Index) Locate(pos int) (block, offset int, ok bool) {
	if pos < 0 || pos >= ix.count {
		return 0, 0, false
	}
	b := sort.Search(len(ix.blocks), func(i int) bool {
		return ix.blocks[i].first > pos
	}) - 1
	return b, pos - ix.blocks[b].first, true
}

// blockLen returns the number of elements in block b.
func (ix *Index) blockLen(b int) int {
	if b+1 < len(ix.blocks) {
		return ix.blocks[b+1].first - ix.blocks[b].first
	}
	return ix.count - ix.blocks[b].first
}

// MarshalBinary encodes the index in a compact form.
func (ix *Index) MarshalBinary() ([]byte, error) {
	n := len(ix.blocks)
	if uint64(n) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d blocks exceed the index format", ErrUnsupportedFormat, n)
	}

	var sections [indexSections][]uint32
	for s := range sections {
		sections[s] = make([]uint32, n)
	}
	var prevBase uint64
	for b, e := range ix.blocks {
		d := zigzagEncode64(e.base - prevBase)
		sections[0][b] = uint32(ix.blockLen(b) - 1)
		sections[1][b] = uint32(e.size)
		sections[2][b] = uint32(d)
		sections[3][b] = uint32(d >> 32)
		prevBase = e.base
	}

	var streams [indexSections][]byte
	size := indexHeaderBytes
	for s, values := range sections {
		streams[s] = svbEncode(values)
		size += 4 + len(streams[s])
	}

	buf := make([]byte, indexHeaderBytes, size)
	buf[0] = indexVersion
	bo.PutUint32(buf[1:], uint32(n))
	bo.PutUint64(buf[5:], uint64(ix.count))
	for _, stream := range streams {
		buf = bo.AppendUint32(buf, uint32(len(stream)))
		buf = append(buf, stream...)
	}
	return buf, nil
}

// UnmarshalBinary decodes an index produced by MarshalBinary, replacing the
// receiver's contents. The result serves Locate directly and random access
// through Reader.LoadIndex.
func (ix *Index) UnmarshalBinary(data []byte) error {
	if len(data) < indexHeaderBytes {
		return fmt.Errorf("%w: index header needs %d bytes, got %d",
			ErrTruncatedInput, indexHeaderBytes, len(data))
	}
	if data[0] != indexVersion {
		return fmt.Errorf("%w: index version %d", ErrUnsupportedFormat, data[0])
	}
	numBlocks := uint64(bo.Uint32(data[1:]))
	count64 := bo.Uint64(data[5:])
	if count64 > math.MaxInt {
		return fmt.Errorf("%w: element count %d", ErrUnsupportedFormat, count64)
	}
	if numBlocks > count64 || (count64 > 0 && numBlocks == 0) {
		return fmt.Errorf("%w: %d blocks cannot hold %d elements", ErrLengthMismatch, numBlocks, count64)
	}
	n, count := int(numBlocks), int(count64)

	pos := indexHeaderBytes
	var sections [indexSections][]uint32
	for s := range sections {
		if len(data)-pos < 4 {
			return fmt.Errorf("%w: index section %d length", ErrTruncatedInput, s+1)
		}
		size := uint64(bo.Uint32(data[pos:]))
		pos += 4
		if size > uint64(len(data)-pos) {
			return fmt.Errorf("%w: index section %d declares %d bytes, %d available",
				ErrTruncatedInput, s+1, size, len(data)-pos)
		}
		stream := data[pos : pos+int(size)]
		if _, ok := svbEncodedLen(stream, n); !ok {
			return fmt.Errorf("%w: index section %d is shorter than its %d values",
				ErrTruncatedInput, s+1, n)
		}
		sections[s] = svbDecode(stream, n)
		pos += len(stream)
	}
	if pos != len(data) {
		return fmt.Errorf("%w: %d trailing index bytes", ErrUnsupportedFormat, len(data)-pos)
	}

	blocks := make([]indexBlock, n)
	first, offset := 0, 0
	var base uint64
	for b := range blocks {
		blockLen := int(sections[0][b]) + 1
		if blockLen > maxBlockLen {
			return fmt.Errorf("%w: index block %d holds %d elements", ErrUnsupportedFormat, b, blockLen)
		}
		size := int(sections[1][b])
		if size <= blockHeaderBytes || size > blockHeaderBytes+8*maxBlockLen {
			return fmt.Errorf("%w: index block %d spans %d bytes", ErrUnsupportedFormat, b, size)
		}
		base += zigzagDecode64(uint64(sections[2][b]) | uint64(sections[3][b])<<32)
		blocks[b] = indexBlock{first: first, offset: offset, size: size, base: base}
		first += blockLen
		offset += size
	}
	if first != count {
		return fmt.Errorf("%w: index blocks hold %d elements, header says %d",
			ErrLengthMismatch, first, count)
	}

	ix.count = count
	ix.blocks = blocks
	return nil
}
