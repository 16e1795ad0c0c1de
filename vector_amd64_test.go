//go:build amd64 && !noasm

package middleout

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZigZagDeltaEncodeSSE2(t *testing.T) {
	if !IsSIMDavailable() {
		t.Skip("SIMD disabled")
	}
	tests := []struct {
		name string
		src  []uint64
		prev uint64
	}{
		{"single", []uint64{7}, 3},
		{"pair", []uint64{1, math.MaxUint64}, 0},
		{"odd tail", []uint64{0, 1, 2, 3, 4}, 10},
		{"wrapping", []uint64{math.MaxInt64, 1 << 63, 0, math.MaxUint64}, 1 << 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make([]uint64, len(tt.src))
			deltasScalar(want, tt.src, tt.prev)
			got := make([]uint64, len(tt.src))
			deltasSSE2(got, tt.src, tt.prev)
			assert.Equal(t, want, got)
		})
	}
}

func TestZigZagDeltaEncodeSSE2MatchesScalar(t *testing.T) {
	if !IsSIMDavailable() {
		t.Skip("SIMD disabled")
	}
	rng := rand.New(rand.NewSource(17))
	for n := 0; n < 70; n++ {
		src := make([]uint64, n)
		for i := range src {
			src[i] = rng.Uint64() >> uint(rng.Intn(64))
		}
		prev := rng.Uint64()
		want := make([]uint64, n)
		deltasScalar(want, src, prev)
		got := make([]uint64, n+1)
		got[n] = 0xDEAD
		deltasSSE2(got[:n], src, prev)
		require.Equal(t, want, got[:n], "n=%d", n)
		require.Equal(t, uint64(0xDEAD), got[n], "wrote past n=%d", n)
	}
}

func TestZigZagDecodeSSE2MatchesScalar(t *testing.T) {
	if !IsSIMDavailable() {
		t.Skip("SIMD disabled")
	}
	rng := rand.New(rand.NewSource(23))
	for n := 0; n < 70; n++ {
		deltas := make([]uint64, n)
		for i := range deltas {
			deltas[i] = rng.Uint64() >> uint(rng.Intn(64))
		}
		prev := rng.Uint64()

		want := make([]uint64, n)
		copy(want, deltas)
		wantLast := undeltaScalar(want, prev)
		got := make([]uint64, n+1)
		copy(got, deltas)
		got[n] = 0xBEEF
		gotLast := undeltaSSE2(got[:n], prev)
		require.Equal(t, wantLast, gotLast, "n=%d", n)
		require.Equal(t, want, got[:n], "n=%d", n)
		require.Equal(t, uint64(0xBEEF), got[n], "wrote past n=%d", n)
	}
}

func TestSIMDSelectionAmd64(t *testing.T) {
	if !IsSIMDavailable() {
		t.Skip("SIMD disabled")
	}
	assert.Contains(t, SIMDName(), "sse2")

	src := []uint64{math.MaxUint64, 0, 5, 5, 5, 5}
	want := make([]uint64, len(src))
	deltasScalar(want, src, 0)
	got := make([]uint64, len(src))
	vectorKernels.deltas(got, src, 0)
	assert.Equal(t, want, got)
}

func BenchmarkDeltas_SSE2(b *testing.B) {
	src := bitsOf(genMixed(chunkLen))
	dst := make([]uint64, len(src))
	b.SetBytes(int64(len(src) * 8))
	for b.Loop() {
		deltasSSE2(dst, src, 0)
	}
}

func BenchmarkDeltas_Scalar(b *testing.B) {
	src := bitsOf(genMixed(chunkLen))
	dst := make([]uint64, len(src))
	b.SetBytes(int64(len(src) * 8))
	for b.Loop() {
		deltasScalar(dst, src, 0)
	}
}

func BenchmarkUndelta_SSE2(b *testing.B) {
	deltas := make([]uint64, maxBlockLen)
	deltasScalar(deltas, bitsOf(genMixed(maxBlockLen)), 0)
	vals := make([]uint64, len(deltas))
	b.SetBytes(int64(len(deltas) * 8))
	for b.Loop() {
		copy(vals, deltas)
		undeltaSSE2(vals, 0)
	}
}
