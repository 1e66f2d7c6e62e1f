package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/youruser/collageapp/internal/collage"
	imagepkg "github.com/youruser/collageapp/internal/image"
	"github.com/youruser/collageapp/internal/layout"
)

var errUploadTooLarge = errors.New("file too large")

// statusClientClosedRequest is reported when the caller went away before
// the collage was ready.
const statusClientClosedRequest = 499

// formOverhead covers URLs and scalar fields on top of image payloads.
const formOverhead = 1 << 20

// Handler serves collage requests.
type Handler struct {
	renderer  *collage.Renderer
	defaults  collage.Config
	maxUpload int64
	logger    *slog.Logger
}

// NewHandler creates a Handler. defaults fill request fields left unset and
// maxUpload bounds each uploaded or inline image.
func NewHandler(renderer *collage.Renderer, defaults collage.Config, maxUpload int64, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{renderer: renderer, defaults: defaults, maxUpload: maxUpload, logger: logger}
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// collageRequest is the JSON body of POST /api/collage. URLs are placed
// before inline images; list order is stacking order, last on top.
type collageRequest struct {
	ImageURLs       []string        `json:"image_urls"`
	Images          []string        `json:"images"` // base64 or data URLs
	Columns         *int            `json:"columns"`
	CanvasSize      *int            `json:"canvas_size"`
	BackgroundColor json.RawMessage `json:"background_color"`
	Seed            *int64          `json:"seed"`
}

// maxBody bounds a request body: MaxImages images at the upload limit,
// base64 inflated by 4/3.
func (h *Handler) maxBody() int64 {
	return int64(layout.MaxImages)*h.maxUpload*4/3 + formOverhead
}

func (h *Handler) collageJSON(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody())

	var req collageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(bodyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := checkCount(len(req.ImageURLs) + len(req.Images)); err != nil {
		h.writeError(c, err)
		return
	}

	cfg := h.defaults
	if req.Columns != nil {
		cfg.Columns = *req.Columns
	}
	if req.CanvasSize != nil {
		cfg.CanvasSize = *req.CanvasSize
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if len(req.BackgroundColor) > 0 && string(req.BackgroundColor) != "null" {
		bg, err := parseBackground(req.BackgroundColor)
		if err != nil {
			h.writeError(c, err)
			return
		}
		cfg.Background = bg
	}

	sources := make([]imagepkg.Source, 0, len(req.ImageURLs)+len(req.Images))
	for _, u := range req.ImageURLs {
		sources = append(sources, imagepkg.Source{URL: u})
	}
	for i, s := range req.Images {
		data, err := decodeInline(s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("images[%d]: %v", i, err)})
			return
		}
		if int64(len(data)) > h.maxUpload {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("images[%d]: %v", i, errUploadTooLarge)})
			return
		}
		sources = append(sources, imagepkg.Source{Data: data, Name: fmt.Sprintf("images[%d]", i)})
	}

	h.render(c, sources, cfg)
}

func (h *Handler) collageUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody())

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(bodyErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	if err := checkCount(len(form.Value["image_urls"]) + len(form.File["images"])); err != nil {
		h.writeError(c, err)
		return
	}

	cfg, err := h.formConfig(form.Value)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var sources []imagepkg.Source
	for _, u := range form.Value["image_urls"] {
		sources = append(sources, imagepkg.Source{URL: u})
	}
	for _, fh := range form.File["images"] {
		if ct := fh.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: file must be an image", fh.Filename)})
			return
		}
		data, err := h.readUpload(fh)
		if errors.Is(err, errUploadTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("%s: %v", fh.Filename, err)})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sources = append(sources, imagepkg.Source{Data: data, Name: fh.Filename})
	}

	h.render(c, sources, cfg)
}

func (h *Handler) render(c *gin.Context, sources []imagepkg.Source, cfg collage.Config) {
	res, err := h.renderer.Render(c.Request.Context(), sources, cfg)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("X-Collage-Images", strconv.Itoa(len(res.Placements)))
	c.Header("X-Collage-Requested", strconv.Itoa(res.Requested))
	c.Data(http.StatusOK, "image/jpeg", res.Data)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, collage.ErrNoSources),
		errors.Is(err, collage.ErrTooManyImages),
		errors.Is(err, collage.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, collage.ErrNoImagesAvailable):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		h.logger.InfoContext(c.Request.Context(), "collage abandoned by client", "request_id", c.GetString("request_id"))
		c.AbortWithStatus(statusClientClosedRequest)
		return
	}
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(c.Request.Context(), "collage failed", "error", err, "request_id", c.GetString("request_id"))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// checkCount rejects oversized requests before any image is decoded.
func checkCount(n int) error {
	if n > layout.MaxImages {
		return fmt.Errorf("%w: %d sources, at most %d", collage.ErrTooManyImages, n, layout.MaxImages)
	}
	return nil
}

func bodyErrorStatus(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func (h *Handler) formConfig(values map[string][]string) (collage.Config, error) {
	cfg := h.defaults
	get := func(k string) string {
		if v := values[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	if s := get("columns"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("%w: columns %q", collage.ErrInvalidConfig, s)
		}
		cfg.Columns = v
	}
	if s := get("canvas_size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("%w: canvas_size %q", collage.ErrInvalidConfig, s)
		}
		cfg.CanvasSize = v
	}
	if s := get("seed"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("%w: seed %q", collage.ErrInvalidConfig, s)
		}
		cfg.Seed = v
	}
	if s := get("background_color"); s != "" {
		bg, err := collage.ParseColor(s)
		if err != nil {
			return cfg, err
		}
		cfg.Background = bg
	}
	return cfg, nil
}

func (h *Handler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > h.maxUpload {
		return nil, errUploadTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > h.maxUpload {
		return nil, errUploadTooLarge
	}
	return data, nil
}

// parseBackground accepts "#rrggbb" or [r, g, b].
func parseBackground(raw json.RawMessage) (color.NRGBA, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return collage.ParseColor(s)
	}
	var rgb []int
	if err := json.Unmarshal(raw, &rgb); err != nil || len(rgb) != 3 {
		return color.NRGBA{}, fmt.Errorf("%w: background_color must be \"#rrggbb\" or [r, g, b]", collage.ErrInvalidConfig)
	}
	for _, v := range rgb {
		if v < 0 || v > 255 {
			return color.NRGBA{}, fmt.Errorf("%w: background_color component %d outside 0..255", collage.ErrInvalidConfig, v)
		}
	}
	return color.NRGBA{R: uint8(rgb[0]), G: uint8(rgb[1]), B: uint8(rgb[2]), A: 0xff}, nil
}

// decodeInline decodes base64 image data, dropping any "data:...," prefix.
func decodeInline(s string) ([]byte, error) {
	if i := strings.LastIndex(s, ","); i >= 0 {
		s = s[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	return data, nil
}
