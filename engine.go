package middleout

import "github.com/Akron/middleout-go/internal/pool"

// chunkLen is the number of elements whose deltas and width classes are
// computed in one kernel pass. It must exceed planWindow so every chunk
// emits at least one block before it is refilled.
const chunkLen = 4096

// kernelSet bundles the primitives the block drivers run on. Every set
// produces and consumes exactly the same bytes.
type kernelSet struct {
	name string

	// deltas writes zigzag(src[i]-src[i-1]) to dst, using prev as src[-1].
	deltas func(dst, src []uint64, prev uint64)
	// classify writes the width class of every delta.
	classify func(dst []uint8, deltas []uint64)
	// pack stores deltas at the given byte width.
	pack func(dst []byte, deltas []uint64, width int)
	// unpack loads len(dst) deltas of the given byte width.
	unpack func(dst []uint64, src []byte, width int)
	// undelta turns zigzag deltas into values in place and returns the last one.
	undelta func(vals []uint64, prev uint64) uint64
	// fill sets every element of dst to v.
	fill func(dst []uint64, v uint64)
}

// encodeBlocks writes the block area for src to dst and returns the number
// of bytes used. dst must hold at least len(src)*worstBytesPerElement bytes.
func encodeBlocks(k *kernelSet, dst []byte, src []uint64) int {
	if len(src) == 0 {
		return 0
	}

	deltas, releaseDeltas := pool.GetUint64Slice(min(chunkLen, len(src)))
	defer releaseDeltas()
	classes, releaseClasses := pool.GetUint8Slice(len(deltas))
	defer releaseClasses()

	pos := 0
	var prev uint64
	for start := 0; start < len(src); {
		end := min(len(src), start+chunkLen)
		n := end - start
		k.deltas(deltas[:n], src[start:end], prev)
		k.classify(classes[:n], deltas[:n])

		i := 0
		for i < n {
			window := min(n-i, planWindow)
			if window < planWindow && end < len(src) {
				// Short lookahead; the next chunk plans this block again
				// with the full window.
				break
			}
			plan := planBlock(deltas[i:i+window], classes[i:i+window])
			pos = emitBlock(k, dst, pos, plan, deltas[i:i+plan.count])
			i += plan.count
		}
		start += i
		prev = src[start-1]
	}

	return pos
}

// emitBlock writes one planned block at dst[pos:] and returns the offset
// after it.
func emitBlock(k *kernelSet, dst []byte, pos int, plan blockPlan, deltas []uint64) int {
	dst[pos] = selector(plan.repeat, plan.class)
	dst[pos+1] = byte(plan.count - 1)
	pos += blockHeaderBytes

	width := widthBytes[plan.class]
	if plan.repeat {
		putDelta(dst[pos:pos+width], deltas[0], width)
		return pos + width
	}

	end := pos + plan.count*width
	k.pack(dst[pos:end], deltas, width)

	return end
}

// decodeBlock expands the block described by h from body into dst, which
// holds exactly h.count elements. It returns the last decoded value.
func decodeBlock(k *kernelSet, dst []uint64, body []byte, h blockHeader, prev uint64) uint64 {
	if h.repeat {
		v := prev + zigzagDecode64(getDelta(body, h.width))
		k.fill(dst, v)
		return v
	}
	k.unpack(dst, body, h.width)

	return k.undelta(dst, prev)
}

// decodeBlocks decodes the block area into dst. It fails unless the blocks
// hold exactly len(dst) elements and nothing else.
func decodeBlocks(k *kernelSet, dst []uint64, blocks []byte) error {
	var prev uint64
	return walkBlocks(blocks, len(dst), func(first int, h blockHeader, body []byte) {
		prev = decodeBlock(k, dst[first:first+h.count], body, h, prev)
	})
}
