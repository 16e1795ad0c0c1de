// StreamVByte helpers for the index encoding.
//
// The decoder in github.com/mhr3/streamvbyte trusts its input, so index data
// read from outside is measured against its control bytes before it is
// handed over.

package middleout

import "github.com/mhr3/streamvbyte"

// svbControlBlockSizeLUT is a precomputed lookup table for StreamVByte control byte sizes.
// Each control byte encodes lengths for 4 values (2 bits each, code+1 = byte length).
// Entry i = sum of byte lengths for all 4 values encoded in control byte i.
var svbControlBlockSizeLUT [256]uint8

func init() {
	for ctrl := range 256 {
		size := (ctrl & 0x03) + ((ctrl >> 2) & 0x03) + ((ctrl >> 4) & 0x03) + (ctrl >> 6) + 4
		svbControlBlockSizeLUT[ctrl] = uint8(size)
	}
}

// svbControlBlockSize returns the total data bytes for a StreamVByte control byte.
func svbControlBlockSize(ctrl byte) int {
	return int(svbControlBlockSizeLUT[ctrl])
}

// svbEncodedLen returns the length of the StreamVByte stream of count values
// at the start of data. ok is false if data ends before the stream does.
// Bytes after the stream are left to the caller.
func svbEncodedLen(data []byte, count int) (n int, ok bool) {
	numControlBytes := (count + 3) >> 2
	if len(data) < numControlBytes {
		return 0, false
	}
	fullBlocks := count >> 2
	n = numControlBytes
	for _, ctrl := range data[:fullBlocks] {
		n += svbControlBlockSize(ctrl)
	}
	if rem := count & 0x03; rem != 0 {
		ctrl := data[fullBlocks]
		for i := range rem {
			n += int((ctrl>>(i*2))&0x03) + 1
		}
	}
	if len(data) < n {
		return 0, false
	}
	return n, true
}

func svbEncode(values []uint32) []byte {
	if len(values) == 0 {
		return nil
	}
	return streamvbyte.EncodeUint32(values, nil)
}

// svbDecode decodes a stream previously measured with svbEncodedLen.
func svbDecode(stream []byte, count int) []uint32 {
	if count == 0 {
		return nil
	}
	return streamvbyte.DecodeUint32(stream, count, nil)
}
