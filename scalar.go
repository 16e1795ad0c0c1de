package middleout

// scalarKernels is the portable engine. It is also the reference the
// vectorized kernels are tested against.
var scalarKernels = kernelSet{
	name:     "scalar",
	deltas:   deltasScalar,
	classify: classifyScalar,
	pack:     packScalar,
	unpack:   unpackScalar,
	undelta:  undeltaScalar,
	fill:     fillScalar,
}

func deltasScalar(dst, src []uint64, prev uint64) {
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = zigzagEncode64(v - prev)
		prev = v
	}
}

func classifyScalar(dst []uint8, deltas []uint64) {
	dst = dst[:len(deltas)]
	for i, d := range deltas {
		dst[i] = widthClass(d)
	}
}

func packScalar(dst []byte, deltas []uint64, width int) {
	switch width {
	case 1:
		dst = dst[:len(deltas)]
		for i, d := range deltas {
			dst[i] = byte(d)
		}
	case 2:
		for i, d := range deltas {
			bo.PutUint16(dst[2*i:], uint16(d))
		}
	case 4:
		for i, d := range deltas {
			bo.PutUint32(dst[4*i:], uint32(d))
		}
	default:
		for i, d := range deltas {
			bo.PutUint64(dst[8*i:], d)
		}
	}
}

func unpackScalar(dst []uint64, src []byte, width int) {
	switch width {
	case 1:
		src = src[:len(dst)]
		for i := range dst {
			dst[i] = uint64(src[i])
		}
	case 2:
		for i := range dst {
			dst[i] = uint64(bo.Uint16(src[2*i:]))
		}
	case 4:
		for i := range dst {
			dst[i] = uint64(bo.Uint32(src[4*i:]))
		}
	default:
		for i := range dst {
			dst[i] = bo.Uint64(src[8*i:])
		}
	}
}

func undeltaScalar(vals []uint64, prev uint64) uint64 {
	for i, d := range vals {
		prev += zigzagDecode64(d)
		vals[i] = prev
	}
	return prev
}

func fillScalar(dst []uint64, v uint64) {
	for i := range dst {
		dst[i] = v
	}
}
