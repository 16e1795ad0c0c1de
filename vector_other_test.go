//go:build !amd64 || noasm

package middleout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestLaneSelection checks the portable selection keeps the lane kernels in
// place.
func TestLaneSelection(t *testing.T) {
	src := []uint64{3, 1, 1, 1, 1, 9}
	want := make([]uint64, len(src))
	deltasScalar(want, src, 2)
	got := make([]uint64, len(src))
	vectorKernels.deltas(got, src, 2)
	assert.Equal(t, want, got)

	if !IsSIMDavailable() {
		assert.Equal(t, "none", SIMDName())
	}
}
