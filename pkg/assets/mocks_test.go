package assets

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// mockHTTPClient は httpkit.ClientInterface のうち FetchBytes だけを差し替えるのだ。
type mockHTTPClient struct {
	httpkit.ClientInterface
	calls     []string
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls = append(m.calls, url)
	return m.fetchFunc(ctx, url)
}

// mockReader は remoteio.InputReader のうち Open だけを差し替えるのだ。
type mockReader struct {
	remoteio.InputReader
	openFunc func(ctx context.Context, path string) (io.ReadCloser, error)
}

func (m *mockReader) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	return m.openFunc(ctx, path)
}

func samplePNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
