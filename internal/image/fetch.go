package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

// Source references one input photo: either a URL to download or the
// encoded bytes themselves.
type Source struct {
	URL  string
	Data []byte
	// Name labels inline data in logs.
	Name string
}

const maxRefLen = 80

// Ref returns a short loggable name for the source.
func (s Source) Ref() string {
	switch {
	case s.URL != "":
		if len(s.URL) > maxRefLen {
			cut := maxRefLen
			for cut > 0 && !utf8.RuneStart(s.URL[cut]) {
				cut--
			}
			return s.URL[:cut] + "..."
		}
		return s.URL
	case s.Name != "":
		return s.Name
	default:
		return fmt.Sprintf("inline(%d bytes)", len(s.Data))
	}
}

// SourceImage is a decoded, upright, fully opaque photo.
type SourceImage struct {
	Index int // position in the requested source list
	Ref   string
	Image *image.NRGBA
}

// FetcherConfig configures Fetcher.
type FetcherConfig struct {
	Timeout     time.Duration // per-fetch timeout. Default: 30s.
	Concurrency int           // parallel fetches. Default: 8.
}

func (c *FetcherConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 8
	}
}

// Fetcher turns Sources into SourceImages.
type Fetcher struct {
	dl     Downloader
	config FetcherConfig
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A nil logger uses slog.Default().
func NewFetcher(dl Downloader, cfg FetcherConfig, logger *slog.Logger) *Fetcher {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{dl: dl, config: cfg, logger: logger}
}

// Fetch retrieves and decodes sources in parallel and returns the ones that
// succeeded, in their original order. Failed sources are logged and skipped;
// ErrNoImagesAvailable is returned when none succeed.
func (f *Fetcher) Fetch(ctx context.Context, sources []Source) ([]SourceImage, error) {
	decoded := make([]*image.NRGBA, len(sources))

	var g errgroup.Group
	g.SetLimit(f.config.Concurrency)
	for i, src := range sources {
		g.Go(func() error {
			img, err := f.fetchOne(ctx, src)
			if err != nil {
				f.logger.WarnContext(ctx, "collage source dropped",
					"index", i, "ref", src.Ref(), "error", err)
				return nil
			}
			f.logger.DebugContext(ctx, "collage source decoded",
				"index", i, "ref", src.Ref(), "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
			decoded[i] = img
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]SourceImage, 0, len(sources))
	for i, img := range decoded {
		if img == nil {
			continue
		}
		out = append(out, SourceImage{Index: i, Ref: sources[i].Ref(), Image: img})
	}
	if len(out) == 0 {
		return nil, ErrNoImagesAvailable
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, src Source) (*image.NRGBA, error) {
	data := src.Data
	if len(data) == 0 {
		if src.URL == "" {
			return nil, &FetchError{Ref: src.Ref(), Err: errors.New("empty source")}
		}
		if f.dl == nil {
			return nil, &FetchError{Ref: src.Ref(), Err: errors.New("no downloader configured")}
		}
		fetchCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		b, err := f.dl.FetchBytes(fetchCtx, src.URL)
		cancel()
		if err != nil {
			return nil, &FetchError{Ref: src.Ref(), Err: err}
		}
		data = b
	}
	return Decode(src.Ref(), data)
}

// Decode decodes data, applies its EXIF orientation and drops any alpha
// channel so the result is opaque RGB.
func Decode(ref string, data []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Ref: ref, Err: err}
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Ref: ref, Err: errors.New("empty image")}
	}
	return toOpaque(img), nil
}

func toOpaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
