package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type codecConfig struct {
	width   int
	verify  bool
	applied []string
}

var errNegativeWidth = errors.New("negative width")

func withWidth(w int) Option[*codecConfig] {
	return New(func(c *codecConfig) error {
		if w < 0 {
			return errNegativeWidth
		}
		c.width = w
		c.applied = append(c.applied, "width")

		return nil
	})
}

func withVerify(v bool) Option[*codecConfig] {
	return NoError(func(c *codecConfig) {
		c.verify = v
		c.applied = append(c.applied, "verify")
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &codecConfig{}
		err := Apply(cfg, withWidth(8), withVerify(true), withWidth(4))
		require.NoError(t, err)
		require.Equal(t, 4, cfg.width)
		require.True(t, cfg.verify)
		require.Equal(t, []string{"width", "verify", "width"}, cfg.applied)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &codecConfig{}
		err := Apply(cfg, withVerify(true), withWidth(-1), withWidth(2))
		require.ErrorIs(t, err, errNegativeWidth)
		require.Equal(t, []string{"verify"}, cfg.applied)
		require.Zero(t, cfg.width)
	})

	t.Run("no options", func(t *testing.T) {
		cfg := &codecConfig{width: 3}
		require.NoError(t, Apply(cfg))
		require.Equal(t, 3, cfg.width)
	})

	t.Run("nil option is skipped", func(t *testing.T) {
		cfg := &codecConfig{}
		require.NoError(t, Apply(cfg, nil, withWidth(1)))
		require.Equal(t, 1, cfg.width)
	})
}
