//go:build amd64 && !noasm

package middleout

import "golang.org/x/sys/cpu"

func initSIMDSelection() {
	initLaneSelection()
	if !cpu.X86.HasSSE2 {
		return
	}
	vectorKernels.deltas = deltasSSE2
	vectorKernels.undelta = undeltaSSE2
	if simdAvailable {
		simdName = "sse2+" + simdName
	} else {
		simdName = "sse2"
	}
	simdAvailable = true
}

//go:generate go run -tags avogen ./internal/avo -out zigzag_amd64.s

// Assembly entry points provided by zigzag_amd64.s.
//
//go:noescape
func zigzagDeltaEncodeSSE2(dst *uint64, src *uint64, prev uint64, n int)

//go:noescape
func zigzagDecodeSSE2(buf *uint64, n int)

func deltasSSE2(dst, src []uint64, prev uint64) {
	if len(src) == 0 {
		return
	}
	_ = dst[len(src)-1]
	zigzagDeltaEncodeSSE2(&dst[0], &src[0], prev, len(src))
}

func undeltaSSE2(vals []uint64, prev uint64) uint64 {
	if len(vals) == 0 {
		return prev
	}
	zigzagDecodeSSE2(&vals[0], len(vals))
	for i, d := range vals {
		prev += d
		vals[i] = prev
	}
	return prev
}
