package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetUint64Slice(t *testing.T) {
	t.Run("returns slice with requested length", func(t *testing.T) {
		slice, cleanup := GetUint64Slice(100)
		defer cleanup()

		require.Len(t, slice, 100)
		require.GreaterOrEqual(t, cap(slice), 100)
	})

	t.Run("grows after a smaller request", func(t *testing.T) {
		_, cleanup1 := GetUint64Slice(10)
		cleanup1()

		slice, cleanup2 := GetUint64Slice(5000)
		defer cleanup2()

		require.Len(t, slice, 5000)
	})

	t.Run("shrinks after a larger request", func(t *testing.T) {
		_, cleanup1 := GetUint64Slice(5000)
		cleanup1()

		slice, cleanup2 := GetUint64Slice(3)
		defer cleanup2()

		require.Len(t, slice, 3)
	})

	t.Run("zero size", func(t *testing.T) {
		slice, cleanup := GetUint64Slice(0)
		defer cleanup()

		require.Empty(t, slice)
	})
}

func TestGetUint8Slice(t *testing.T) {
	slice, cleanup := GetUint8Slice(264)
	require.Len(t, slice, 264)
	for i := range slice {
		slice[i] = uint8(i)
	}
	cleanup()

	again, cleanup2 := GetUint8Slice(8)
	defer cleanup2()
	require.Len(t, again, 8)
}
