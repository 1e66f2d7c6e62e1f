package collage

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#f5f5f5", color.NRGBA{R: 245, G: 245, B: 245, A: 255}, true},
		{"102030", color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, true},
		{" #fff ", color.NRGBA{R: 255, G: 255, B: 255, A: 255}, true},
		{"#12345", color.NRGBA{}, false},
		{"#gggggg", color.NRGBA{}, false},
		{"", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidConfig, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatColor(t *testing.T) {
	assert.Equal(t, "#f5f5f5", FormatColor(DefaultBackground))
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.CanvasSize = MaxCanvasSize + 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}
