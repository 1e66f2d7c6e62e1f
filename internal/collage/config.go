package collage

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"

	"github.com/youruser/collageapp/internal/layout"
)

const (
	DefaultCanvasSize = 1200
	DefaultSeed       = 42
	DefaultColumns    = 2

	MinCanvasSize = 64
	MaxCanvasSize = 4096
)

// DefaultBackground is the off-white paper colour behind the prints.
var DefaultBackground = color.NRGBA{R: 245, G: 245, B: 245, A: 0xff}

// Config is the per-render configuration. Seed pins every random draw, so
// equal inputs with an equal Config render byte-identical JPEGs.
type Config struct {
	CanvasSize int
	Background color.NRGBA
	Seed       int64
	// Columns is the layout density hint (2 sparse, 3 medium, 4 dense).
	// It is validated and logged but does not move any print.
	Columns int
}

// DefaultConfig returns the standard 1200px collage configuration.
func DefaultConfig() Config {
	return Config{
		CanvasSize: DefaultCanvasSize,
		Background: DefaultBackground,
		Seed:       DefaultSeed,
		Columns:    DefaultColumns,
	}
}

// Validate checks the configuration ranges.
func (c Config) Validate() error {
	if c.CanvasSize < MinCanvasSize || c.CanvasSize > MaxCanvasSize {
		return fmt.Errorf("%w: canvas size %d outside %d..%d", ErrInvalidConfig, c.CanvasSize, MinCanvasSize, MaxCanvasSize)
	}
	if c.Columns < 1 || c.Columns > 6 {
		return fmt.Errorf("%w: columns %d outside 1..6", ErrInvalidConfig, c.Columns)
	}
	return nil
}

// ParseColor parses "#rrggbb", "rrggbb" or "#rgb" into an opaque colour.
func ParseColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("%w: colour %q", ErrInvalidConfig, s)
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: colour %q", ErrInvalidConfig, s)
	}
	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: 0xff}, nil
}

// FormatColor renders c as "#rrggbb".
func FormatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func validateCount(n int) error {
	switch {
	case n == 0:
		return ErrNoSources
	case n > layout.MaxImages:
		return fmt.Errorf("%w: %d given, at most %d", ErrTooManyImages, n, layout.MaxImages)
	}
	return nil
}
