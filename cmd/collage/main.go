// Command collage renders a scattered-print collage JPEG from local files
// or URLs.
//
// Usage:
//
//	collage -o out.jpg a.jpg https://cdn.example/b.png   # explicit references
//	collage -o out.jpg -manifest items.csv               # references from a manifest
//	collage -o out.jpg -demo 5                           # generated sample photos
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/youruser/collageapp/internal/collage"
	"github.com/youruser/collageapp/internal/config"
	"github.com/youruser/collageapp/internal/fixture"
	imagepkg "github.com/youruser/collageapp/internal/image"
	"github.com/youruser/collageapp/internal/manifest"
	"github.com/youruser/collageapp/internal/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "collage:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	out        string
	manifest   string
	size       int
	seed       int64
	bg         string
	columns    int
	timeout    time.Duration
	logLevel   string
	demo       int
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("collage", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.configPath, "config", os.Getenv("COLLAGE_CONFIG"), "path to collage.yaml config file")
	fs.StringVar(&o.out, "o", "collage.jpg", "output JPEG path")
	fs.StringVar(&o.manifest, "manifest", "", "CSV or line manifest of image references")
	fs.IntVar(&o.size, "size", 0, "canvas size in pixels (default from config)")
	fs.Int64Var(&o.seed, "seed", 0, "layout seed (default from config)")
	fs.StringVar(&o.bg, "bg", "", "background colour #rrggbb (default from config)")
	fs.IntVar(&o.columns, "columns", 0, "layout density hint 1..6 (default from config)")
	fs.DurationVar(&o.timeout, "timeout", 0, "per-image fetch timeout (default from config)")
	fs.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.IntVar(&o.demo, "demo", 0, "render N generated sample photos instead of references")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.timeout > 0 {
		cfg.Fetch.Timeout = o.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	rc, err := cfg.RenderConfig()
	if err != nil {
		return err
	}
	if set["size"] {
		rc.CanvasSize = o.size
	}
	if set["seed"] {
		rc.Seed = o.seed
	}
	if set["columns"] {
		rc.Columns = o.columns
	}
	if o.bg != "" {
		if rc.Background, err = collage.ParseColor(o.bg); err != nil {
			return err
		}
	}

	sources, err := collectSources(o, fs.Args())
	if err != nil {
		return err
	}

	dl := &localOrHTTP{http: imagepkg.NewHTTPDownloader(cfg.DownloaderConfig())}
	fetcher := imagepkg.NewFetcher(dl, cfg.FetcherConfig(), logger)
	renderer := collage.NewRenderer(fetcher, collage.WithLogger(logger))

	res, err := renderer.Render(ctx, sources, rc)
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(o.out, res.Data); err != nil {
		return err
	}
	logger.Info("wrote collage", "path", o.out, "placed", len(res.Placements), "requested", res.Requested)
	return nil
}

func collectSources(o options, args []string) ([]imagepkg.Source, error) {
	if o.demo > 0 {
		sources := make([]imagepkg.Source, o.demo)
		for i := range sources {
			data, err := fixture.SamplePNG(i)
			if err != nil {
				return nil, err
			}
			sources[i] = imagepkg.Source{Data: data, Name: fmt.Sprintf("sample-%d", i)}
		}
		return sources, nil
	}

	refs := args
	if o.manifest != "" {
		m, err := manifest.Load(o.manifest)
		if err != nil {
			return nil, err
		}
		refs = append(m, refs...)
	}
	sources := make([]imagepkg.Source, len(refs))
	for i, ref := range refs {
		sources[i] = imagepkg.Source{URL: ref}
	}
	return sources, nil
}

// localOrHTTP downloads http(s) references and reads everything else from
// the local filesystem.
type localOrHTTP struct {
	http imagepkg.Downloader
}

func (d *localOrHTTP) FetchBytes(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return d.http.FetchBytes(ctx, ref)
	}
	return os.ReadFile(strings.TrimPrefix(ref, "file://"))
}
