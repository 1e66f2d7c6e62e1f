package imagepkg

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/collageapp/internal/fixture"
)

// mockDownloader implements Downloader.
type mockDownloader struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockDownloader) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return m.fetchFunc(ctx, url)
}

func samplePNG(t *testing.T, i int) []byte {
	t.Helper()
	b, err := fixture.SamplePNG(i)
	require.NoError(t, err)
	return b
}

func imageServer(t *testing.T, routes map[string][]byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_KeepsOrderAndDropsFailures(t *testing.T) {
	srv := imageServer(t, map[string][]byte{
		"/a.png": samplePNG(t, 0),
		"/b.png": samplePNG(t, 1),
	})
	f := NewFetcher(NewHTTPDownloader(DownloaderConfig{}), FetcherConfig{Timeout: time.Second}, nil)

	sources := []Source{
		{URL: srv.URL + "/a.png"},
		{URL: srv.URL + "/missing.png"},
		{Data: []byte("definitely not an image"), Name: "garbage"},
		{Data: samplePNG(t, 2), Name: "inline"},
		{URL: srv.URL + "/b.png"},
	}
	got, err := f.Fetch(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []int{0, 3, 4}, []int{got[0].Index, got[1].Index, got[2].Index})
	assert.Equal(t, "inline", got[1].Ref)
	assert.Equal(t, image.Pt(640, 480), got[0].Image.Bounds().Size())
	assert.Equal(t, image.Pt(512, 512), got[1].Image.Bounds().Size())
	assert.Equal(t, image.Pt(480, 640), got[2].Image.Bounds().Size())
}

func TestFetcher_AllFailed(t *testing.T) {
	srv := imageServer(t, nil)
	f := NewFetcher(NewHTTPDownloader(DownloaderConfig{}), FetcherConfig{}, nil)

	_, err := f.Fetch(context.Background(), []Source{
		{URL: srv.URL + "/nope.jpg"},
		{URL: "http://127.0.0.1:1/unreachable.jpg"},
		{},
	})
	assert.ErrorIs(t, err, ErrNoImagesAvailable)
}

func TestFetcher_TimeoutDropsImage(t *testing.T) {
	srv := imageServer(t, map[string][]byte{"/ok.png": samplePNG(t, 0)})
	f := NewFetcher(NewHTTPDownloader(DownloaderConfig{}), FetcherConfig{Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	got, err := f.Fetch(context.Background(), []Source{
		{URL: srv.URL + "/slow"},
		{URL: srv.URL + "/ok.png"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Index)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetcher_BoundedConcurrency(t *testing.T) {
	data := samplePNG(t, 0)
	var inFlight, peak atomic.Int32
	dl := &mockDownloader{fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		return data, nil
	}}
	f := NewFetcher(dl, FetcherConfig{Concurrency: 2}, nil)

	sources := make([]Source, 8)
	for i := range sources {
		sources[i] = Source{URL: "https://photos.example/" + string(rune('a'+i))}
	}
	got, err := f.Fetch(context.Background(), sources)
	require.NoError(t, err)
	assert.Len(t, got, 8)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestFetcher_PassesPerFetchDeadline(t *testing.T) {
	var mu sync.Mutex
	var deadlines []time.Time
	dl := &mockDownloader{fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
		d, ok := ctx.Deadline()
		assert.True(t, ok)
		mu.Lock()
		deadlines = append(deadlines, d)
		mu.Unlock()
		return nil, errors.New("offline")
	}}
	f := NewFetcher(dl, FetcherConfig{Timeout: 5 * time.Second}, nil)

	_, err := f.Fetch(context.Background(), []Source{{URL: "https://a.example/1.jpg"}})
	assert.ErrorIs(t, err, ErrNoImagesAvailable)
	require.Len(t, deadlines, 1)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadlines[0], time.Second)
}

func TestFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dl := &mockDownloader{fetchFunc: func(ctx context.Context, url string) ([]byte, error) {
		return nil, ctx.Err()
	}}
	f := NewFetcher(dl, FetcherConfig{}, nil)

	_, err := f.Fetch(ctx, []Source{{URL: "https://a.example/1.jpg"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPDownloader_BlockPrivate(t *testing.T) {
	srv := imageServer(t, map[string][]byte{"/a.png": samplePNG(t, 0)})
	dl := NewHTTPDownloader(DownloaderConfig{BlockPrivate: true})

	_, err := dl.FetchBytes(context.Background(), srv.URL+"/a.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url blocked")
}

func TestDecode_NormalisesToOpaque(t *testing.T) {
	t.Run("alpha is dropped", func(t *testing.T) {
		src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for i := range src.Pix {
			src.Pix[i] = 0x40
		}
		data, err := fixture.EncodePNG(src)
		require.NoError(t, err)

		img, err := Decode("translucent", data)
		require.NoError(t, err)
		for i := 3; i < len(img.Pix); i += 4 {
			require.Equal(t, uint8(0xff), img.Pix[i])
		}
	})

	t.Run("grayscale becomes RGB", func(t *testing.T) {
		src := image.NewGray(image.Rect(0, 0, 3, 2))
		for i := range src.Pix {
			src.Pix[i] = 0x80
		}
		data, err := fixture.EncodePNG(src)
		require.NoError(t, err)

		img, err := Decode("gray", data)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}, img.NRGBAAt(1, 1))
	})

	t.Run("palette becomes RGB", func(t *testing.T) {
		pal := color.Palette{
			color.NRGBA{R: 0xff, A: 0xff},
			color.NRGBA{B: 0xff, A: 0xff},
		}
		src := image.NewPaletted(image.Rect(0, 0, 2, 1), pal)
		src.SetColorIndex(1, 0, 1)
		data, err := fixture.EncodePNG(src)
		require.NoError(t, err)

		img, err := Decode("palette", data)
		require.NoError(t, err)
		assert.Equal(t, color.NRGBA{R: 0xff, A: 0xff}, img.NRGBAAt(0, 0))
		assert.Equal(t, color.NRGBA{B: 0xff, A: 0xff}, img.NRGBAAt(1, 0))
	})

	t.Run("garbage is a DecodeError", func(t *testing.T) {
		_, err := Decode("junk", []byte("junk"))
		var de *DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "junk", de.Ref)
	})
}

// withOrientation inserts a big-endian Exif APP1 segment carrying the given
// orientation tag right after the JPEG SOI marker.
func withOrientation(t *testing.T, jpg []byte, orientation byte) []byte {
	t.Helper()
	require.Equal(t, []byte{0xff, 0xd8}, jpg[:2])
	app1 := []byte{
		0xff, 0xe1, 0x00, 0x22, // APP1, length 34
		'E', 'x', 'i', 'f', 0x00, 0x00,
		'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08, // TIFF header, IFD at 8
		0x00, 0x01, // one entry
		0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01, 0x00, orientation, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, // no next IFD
	}
	out := append([]byte{}, jpg[:2]...)
	out = append(out, app1...)
	return append(out, jpg[2:]...)
}

func TestDecode_AppliesExifOrientation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 40, 20)), nil))

	plain, err := Decode("plain", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, image.Pt(40, 20), plain.Bounds().Size())

	// Orientation 6: the camera was turned, the upright photo is portrait.
	rotated, err := Decode("rotated", withOrientation(t, buf.Bytes(), 6))
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 40), rotated.Bounds().Size())
}

// 1x1 lossless WebP.
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func TestDecode_WebP(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	require.NoError(t, err)

	img, err := Decode("tiny.webp", data)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(1, 1), img.Bounds().Size())
	assert.Equal(t, uint8(0xff), img.NRGBAAt(0, 0).A)
}

func TestSource_Ref(t *testing.T) {
	assert.Equal(t, "https://a.example/x.jpg", Source{URL: "https://a.example/x.jpg"}.Ref())

	long := "https://a.example/x" + strings.Repeat("é", 40) // byte 80 falls inside a rune
	ref := Source{URL: long}.Ref()
	assert.True(t, utf8.ValidString(ref), ref)
	assert.True(t, strings.HasSuffix(ref, "..."))
	assert.LessOrEqual(t, len(ref), maxRefLen+len("..."))

	assert.Equal(t, "upload.jpg", Source{Data: []byte{1}, Name: "upload.jpg"}.Ref())
	assert.Equal(t, "inline(3 bytes)", Source{Data: []byte{1, 2, 3}}.Ref())
}
