package middleout

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/cespare/xxhash/v2"
)

// Block configuration constants shared by every engine. Changing any of them
// changes the wire format.
const (
	// maxBlockLen is the largest number of elements a single block holds
	// (the count byte stores count-1).
	maxBlockLen = 256
	// minRepeatRun is the shortest run of identical elements that is emitted
	// as a repeat block instead of being folded into a delta block.
	minRepeatRun = 4
	// narrowWindow is the number of consecutive narrower deltas that closes a
	// delta block so a narrower one can start.
	narrowWindow = 8
	// planWindow is the lookahead the block planner needs from a block start.
	planWindow = maxBlockLen + narrowWindow

	// -----------------------------------------------------------------------------
	// Block layout constants
	// -----------------------------------------------------------------------------
	//
	// Every block starts with a two byte header:
	//
	//	Byte 0: selector
	//	  Bits 0-1: width class (0=1 byte, 1=2 bytes, 2=4 bytes, 3=8 bytes)
	//	  Bit  2:   repeat flag (1 = repeat block, 0 = delta block)
	//	  Bits 3-7: reserved, must be zero
	//	Byte 1: element count - 1
	//
	// A delta block body holds count zigzag deltas at the selected width.
	// A repeat block body holds one zigzag delta; the resulting value is
	// repeated count times.
	blockHeaderBytes = 2
	selWidthMask     = 0x03
	selRepeatFlag    = 0x04
	selReservedMask  = 0xF8

	// -----------------------------------------------------------------------------
	// Footer layout constants
	// -----------------------------------------------------------------------------
	//
	// The 8 byte footer closes every buffer, including empty sequences:
	//
	//	Byte 0:    element kind (0=int64, 1=float64)
	//	Byte 1:    format marker (FormatMarker)
	//	Bytes 2-5: low 32 bits of xxHash64 over all block bytes (little-endian)
	//	Bytes 6-7: reserved, zero
	footerBytes          = 8
	footerKindOffset     = 0
	footerMarkerOffset   = 1
	footerChecksumOffset = 2
	footerReservedOffset = 6

	// FormatMarker identifies version 1 of the wire format.
	FormatMarker = 0x7E
	// FormatMarkerOffset is the distance of the marker byte from the end of a
	// compressed buffer: buf[len(buf)-FormatMarkerOffset] == FormatMarker.
	FormatMarkerOffset = footerBytes - footerMarkerOffset
	// FormatVersion is the wire format version written by this package.
	FormatVersion = 1

	// worstBytesPerElement is the cost of a one element delta block at the
	// widest class, the most any element can add to the output.
	worstBytesPerElement = blockHeaderBytes + 8
)

var bo = binary.LittleEndian

// widthBytes maps a width class to its byte width.
var widthBytes = [4]int{1, 2, 4, 8}

// widthClassLUT maps bits.Len64 of a delta to its width class.
var widthClassLUT = [65]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0,
	1, 1, 1, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
	3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3, 3,
}

// Kind records which element type a buffer was compressed from.
type Kind uint8

const (
	KindInt64   Kind = 0
	KindFloat64 Kind = 1
)

// String returns the Go type name of the element kind.
func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Footer is the decoded trailer of a compressed buffer.
type Footer struct {
	Kind     Kind
	Version  uint8
	Checksum uint32
}

// ReadFooter validates and decodes the footer of a compressed buffer.
func ReadFooter(src []byte) (Footer, error) {
	if len(src) < footerBytes {
		return Footer{}, fmt.Errorf("%w: buffer too small for footer (need %d bytes, got %d)",
			ErrTruncatedInput, footerBytes, len(src))
	}
	footer := src[len(src)-footerBytes:]
	if marker := footer[footerMarkerOffset]; marker != FormatMarker {
		return Footer{}, fmt.Errorf("%w: format marker 0x%02X, want 0x%02X",
			ErrUnsupportedFormat, marker, FormatMarker)
	}
	kind := Kind(footer[footerKindOffset])
	if kind > KindFloat64 {
		return Footer{}, fmt.Errorf("%w: element kind %d", ErrUnsupportedFormat, kind)
	}
	if reserved := bo.Uint16(footer[footerReservedOffset:]); reserved != 0 {
		return Footer{}, fmt.Errorf("%w: reserved footer bits 0x%04X", ErrUnsupportedFormat, reserved)
	}
	return Footer{
		Kind:     kind,
		Version:  FormatVersion,
		Checksum: bo.Uint32(footer[footerChecksumOffset:]),
	}, nil
}

// putFooter writes the footer into dst[:footerBytes].
func putFooter(dst []byte, kind Kind, checksum uint32) {
	dst[footerKindOffset] = byte(kind)
	dst[footerMarkerOffset] = FormatMarker
	bo.PutUint32(dst[footerChecksumOffset:], checksum)
	bo.PutUint16(dst[footerReservedOffset:], 0)
}

// blockChecksum returns the checksum stored in the footer for the given block bytes.
func blockChecksum(blocks []byte) uint32 {
	return uint32(xxhash.Sum64(blocks))
}

// widthClass returns the smallest width class that stores d.
func widthClass(d uint64) uint8 {
	return widthClassLUT[bits.Len64(d)]
}

// zigzagEncode64 folds the signed difference held in v into an unsigned
// magnitude. The mapping is a bijection over all 64-bit patterns.
func zigzagEncode64(v uint64) uint64 {
	return (v << 1) ^ uint64(int64(v)>>63)
}

// zigzagDecode64 inverts zigzagEncode64.
func zigzagDecode64(u uint64) uint64 {
	return (u >> 1) ^ -(u & 1)
}

// selector builds the first header byte of a block.
func selector(repeat bool, class uint8) byte {
	sel := class & selWidthMask
	if repeat {
		sel |= selRepeatFlag
	}
	return sel
}

// putDelta stores a single delta at the given byte width.
func putDelta(dst []byte, d uint64, width int) {
	switch width {
	case 1:
		dst[0] = byte(d)
	case 2:
		bo.PutUint16(dst, uint16(d))
	case 4:
		bo.PutUint32(dst, uint32(d))
	default:
		bo.PutUint64(dst, d)
	}
}

// getDelta loads a single delta of the given byte width.
func getDelta(src []byte, width int) uint64 {
	switch width {
	case 1:
		return uint64(src[0])
	case 2:
		return uint64(bo.Uint16(src))
	case 4:
		return uint64(bo.Uint32(src))
	default:
		return bo.Uint64(src)
	}
}

// blockPlan is the planner's decision for the next block.
type blockPlan struct {
	repeat bool
	class  uint8
	count  int
}

// planBlock chooses the next block. deltas and classes start at the first
// element of the block and hold min(remaining elements, planWindow) entries,
// so every lookahead below is decided by the same elements in all engines.
func planBlock(deltas []uint64, classes []uint8) blockPlan {
	n := len(deltas)
	limit := min(n, maxBlockLen)

	run := 1
	for run < limit && deltas[run] == 0 {
		run++
	}
	if run >= minRepeatRun {
		return blockPlan{repeat: true, class: classes[0], count: run}
	}

	w := classes[0]
	j := 1
	for ; j < limit; j++ {
		if classes[j] > w {
			break
		}
		if startsRun(deltas, j) {
			break
		}
		if w > 0 && narrowsAt(classes, j, w) {
			break
		}
	}
	if j == 1 {
		// single elements are always repeat blocks
		return blockPlan{repeat: true, class: w, count: 1}
	}
	return blockPlan{class: w, count: j}
}

// startsRun reports whether elements j..j+minRepeatRun-1 are identical.
func startsRun(deltas []uint64, j int) bool {
	if j+minRepeatRun > len(deltas) {
		return false
	}
	for k := j + 1; k < j+minRepeatRun; k++ {
		if deltas[k] != 0 {
			return false
		}
	}
	return true
}

// narrowsAt reports whether the narrowWindow deltas starting at j all fit a
// class below w.
func narrowsAt(classes []uint8, j int, w uint8) bool {
	if j+narrowWindow > len(classes) {
		return false
	}
	for _, c := range classes[j : j+narrowWindow] {
		if c >= w {
			return false
		}
	}
	return true
}

// blockHeader is a parsed and bounds-checked block header.
type blockHeader struct {
	repeat  bool
	width   int
	count   int
	bodyLen int
}

// size returns the number of bytes the block occupies.
func (h blockHeader) size() int {
	return blockHeaderBytes + h.bodyLen
}

// readBlockHeader parses the block starting at blocks[pos:] and checks that
// its body lies within blocks.
func readBlockHeader(blocks []byte, pos int) (blockHeader, error) {
	if len(blocks)-pos < blockHeaderBytes {
		return blockHeader{}, fmt.Errorf("%w: block header at offset %d (need %d bytes, got %d)",
			ErrTruncatedInput, pos, blockHeaderBytes, len(blocks)-pos)
	}
	sel := blocks[pos]
	if sel&selReservedMask != 0 {
		return blockHeader{}, fmt.Errorf("%w: selector 0x%02X at offset %d", ErrUnsupportedFormat, sel, pos)
	}
	h := blockHeader{
		repeat: sel&selRepeatFlag != 0,
		width:  widthBytes[sel&selWidthMask],
		count:  int(blocks[pos+1]) + 1,
	}
	if h.repeat {
		h.bodyLen = h.width
	} else {
		h.bodyLen = h.count * h.width
	}
	if avail := len(blocks) - pos - blockHeaderBytes; avail < h.bodyLen {
		return blockHeader{}, fmt.Errorf("%w: block at offset %d declares %d body bytes, %d available",
			ErrTruncatedInput, pos, h.bodyLen, avail)
	}
	return h, nil
}

// walkBlocks parses the block area and calls visit for every block, in
// order, with the position of its first element. It fails unless the blocks
// hold exactly count elements and nothing else.
func walkBlocks(blocks []byte, count int, visit func(first int, h blockHeader, body []byte)) error {
	pos, out := 0, 0
	for out < count {
		if pos == len(blocks) {
			return fmt.Errorf("%w: buffer holds %d elements, %d requested",
				ErrLengthMismatch, out, count)
		}
		h, err := readBlockHeader(blocks, pos)
		if err != nil {
			return err
		}
		if h.count > count-out {
			return fmt.Errorf("%w: block at offset %d holds %d elements, %d remain",
				ErrLengthMismatch, pos, h.count, count-out)
		}
		visit(out, h, blocks[pos+blockHeaderBytes:pos+h.size()])
		pos += h.size()
		out += h.count
	}
	if pos != len(blocks) {
		return fmt.Errorf("%w: %d bytes left after %d elements",
			ErrLengthMismatch, len(blocks)-pos, out)
	}

	return nil
}
