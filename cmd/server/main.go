package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youruser/collageapp/internal/api"
	"github.com/youruser/collageapp/internal/collage"
	"github.com/youruser/collageapp/internal/config"
	imagepkg "github.com/youruser/collageapp/internal/image"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

// run loads the configuration named by -config (default $COLLAGE_CONFIG),
// logs JSON to stderr and serves until ctx is done.
func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", getenv("COLLAGE_CONFIG"), "path to collage.yaml config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return fmt.Errorf("config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return serve(ctx, logger, cfg)
}

func serve(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	defaults, err := cfg.RenderConfig()
	if err != nil {
		return err
	}

	fetcher := imagepkg.NewFetcher(imagepkg.NewHTTPDownloader(cfg.DownloaderConfig()), cfg.FetcherConfig(), logger)
	renderer := collage.NewRenderer(fetcher, collage.WithLogger(logger))
	h := api.NewHandler(renderer, defaults, cfg.MaxUploadBytes(), logger)

	if cfg.SlogLevel() > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", "addr", cfg.Server.Addr)
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
