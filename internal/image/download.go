package imagepkg

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/youruser/collageapp/internal/util"
)

// Downloader retrieves the raw bytes behind an image URL.
type Downloader interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// DownloaderConfig configures HTTPDownloader.
type DownloaderConfig struct {
	Timeout   time.Duration // whole-request timeout. Default: 30s.
	MaxBytes  int64         // response body limit. Default: 10MB.
	UserAgent string
	// BlockPrivate rejects URLs, including redirect targets, that resolve
	// to private, loopback or link-local addresses.
	BlockPrivate bool
}

func (c *DownloaderConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "collageapp/1.0"
	}
}

// HTTPDownloader downloads images over HTTP(S).
type HTTPDownloader struct {
	client *http.Client
	config DownloaderConfig
}

// NewHTTPDownloader creates an HTTPDownloader.
func NewHTTPDownloader(cfg DownloaderConfig) *HTTPDownloader {
	cfg.defaults()
	client := &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (%d)", len(via))
			}
			if cfg.BlockPrivate {
				if err := util.ValidatePublicURL(req.URL.String()); err != nil {
					return fmt.Errorf("redirect blocked: %w", err)
				}
			}
			return nil
		},
	}
	return &HTTPDownloader{client: client, config: cfg}
}

// FetchBytes downloads url.
func (d *HTTPDownloader) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	if d.config.BlockPrivate {
		if err := util.ValidatePublicURL(url); err != nil {
			return nil, fmt.Errorf("url blocked: %w", err)
		}
	}
	return util.GetBytes(ctx, d.client, url, d.config.UserAgent, d.config.MaxBytes)
}
