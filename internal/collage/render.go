// Package collage renders scattered-print collages: it fetches the source
// photos, plans their slots, transforms each photo into a framed, tilted,
// shadowed print and composites them onto one square JPEG.
//
// A render is a single task. Only fetching runs in parallel; planning,
// transforming, compositing and encoding happen sequentially on a canvas
// owned by that render. Photos are stacked in input order, so the last
// source ends up on top.
package collage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	imagepkg "github.com/youruser/collageapp/internal/image"
	"github.com/youruser/collageapp/internal/layout"
)

// Placement records where one photo landed.
type Placement struct {
	Index     int // position in the requested source list
	Ref       string
	Slot      layout.Slot
	Variation float64
	Origin    image.Point // top-left of the shadowed print on the canvas
	Size      image.Point // size of the shadowed print
}

// Result is a finished collage.
type Result struct {
	Data       []byte // JPEG
	Requested  int
	Placements []Placement
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStyle overrides imagepkg.DefaultStyle.
func WithStyle(s imagepkg.Style) Option {
	return func(r *Renderer) { r.style = s }
}

// Renderer produces collages. It holds no per-render state and is safe for
// concurrent use.
type Renderer struct {
	fetcher *imagepkg.Fetcher
	logger  *slog.Logger
	style   imagepkg.Style
}

// NewRenderer creates a Renderer fetching through fetcher. A nil fetcher is
// allowed when only Compose is used.
func NewRenderer(fetcher *imagepkg.Fetcher, opts ...Option) *Renderer {
	r := &Renderer{
		fetcher: fetcher,
		logger:  slog.Default(),
		style:   imagepkg.DefaultStyle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render fetches sources and composes them. Sources that fail to fetch or
// decode are dropped; the survivors keep their order and take the first
// slots planned for len(sources) photos.
func (r *Renderer) Render(ctx context.Context, sources []imagepkg.Source, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateCount(len(sources)); err != nil {
		return nil, err
	}
	if r.fetcher == nil {
		return nil, errors.New("collage: renderer has no fetcher")
	}

	r.logger.InfoContext(ctx, "creating collage",
		"images", len(sources), "canvas_size", cfg.CanvasSize, "seed", cfg.Seed, "columns", cfg.Columns)

	images, err := r.fetcher.Fetch(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("fetch sources: %w", err)
	}
	return r.Compose(ctx, images, len(sources), cfg)
}

// Compose lays out already decoded images as if requested photos had been
// asked for, and encodes the collage.
func (r *Renderer) Compose(ctx context.Context, images []imagepkg.SourceImage, requested int, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrNoImagesAvailable
	}
	requested = max(requested, len(images))
	if err := validateCount(requested); err != nil {
		return nil, err
	}

	rng := layout.NewStream(cfg.Seed)
	slots := layout.PlanFrom(rng, requested, cfg.CanvasSize)
	n := min(len(images), len(slots))

	prints := make([]*image.NRGBA, 0, n)
	placements := make([]Placement, 0, n)
	for i, src := range images[:n] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		variation := layout.SizeVariation(rng)
		p := imagepkg.Transform(src.Image, slots[i], variation, r.style)
		prints = append(prints, p)
		placements = append(placements, Placement{
			Index:     src.Index,
			Ref:       src.Ref,
			Slot:      slots[i],
			Variation: variation,
			Size:      p.Bounds().Size(),
		})
	}

	canvas := imagepkg.NewCanvas(cfg.CanvasSize, cfg.Background)
	canvas, origins := imagepkg.Composite(canvas, prints, slots[:n])
	for i := range placements {
		placements[i].Origin = origins[i]
		r.logger.InfoContext(ctx, "placed image",
			"n", i+1, "ref", placements[i].Ref,
			"x", origins[i].X, "y", origins[i].Y, "rotation", placements[i].Slot.Rotation)
	}

	data, err := imagepkg.EncodeBytes(canvas, cfg.Background)
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "collage created",
		"placed", len(placements), "requested", requested, "kb", float64(len(data))/1024)
	return &Result{Data: data, Requested: requested, Placements: placements}, nil
}
