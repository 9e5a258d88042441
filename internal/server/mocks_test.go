package server

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shouni/gemini-image-studio/internal/metrics"
	"github.com/shouni/gemini-image-studio/pkg/assets"
	"github.com/shouni/gemini-image-studio/pkg/credential"
	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/gemini-image-studio/pkg/notify"
	"github.com/shouni/gemini-image-studio/pkg/session"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/require"
)

// mockGenerator は generator.ImageGenerator のモックなのだ。
type mockGenerator struct {
	mu           sync.Mutex
	genReqs      []domain.ImageGenerationRequest
	editReqs     []domain.ImageEditRequest
	remixReqs    []domain.ImageRemixRequest
	generateFunc func(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error)
	editFunc     func(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error)
}

func (m *mockGenerator) GenerateFromText(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.genReqs = append(m.genReqs, req)
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return &domain.ImageResponse{Data: pngBytes(16, 16), MimeType: "image/png", UsedSeed: 7, SeedHonored: true}, nil
}

func (m *mockGenerator) EditImage(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.editReqs = append(m.editReqs, req)
	m.mu.Unlock()
	if m.editFunc != nil {
		return m.editFunc(ctx, req)
	}
	return &domain.ImageResponse{Data: pngBytes(20, 10), MimeType: "image/png", Description: "新图片"}, nil
}

func (m *mockGenerator) RemixImage(ctx context.Context, req domain.ImageRemixRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.remixReqs = append(m.remixReqs, req)
	m.mu.Unlock()
	return &domain.ImageResponse{Data: pngBytes(16, 16), MimeType: "image/png"}, nil
}

func (m *mockGenerator) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", domain.Validationf("请输入要优化的提示词。")
	}
	return "详细的" + prompt, nil
}

// mockHTTPClient は httpkit.ClientInterface のうち FetchBytes だけを差し替えるのだ。
type mockHTTPClient struct {
	httpkit.ClientInterface
	data []byte
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	return m.data, nil
}

type testEnv struct {
	server  *Server
	http    *httptest.Server
	gen     *mockGenerator
	toaster *notify.Toaster
	creds   *credential.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gen := &mockGenerator{}
	loader, err := assets.NewLoader(&mockHTTPClient{data: pngBytes(24, 24)}, nil)
	require.NoError(t, err)
	creds := credential.NewStore(filepath.Join(t.TempDir(), "credentials.yaml"))
	toaster := notify.NewToaster()

	srv, err := New(Deps{
		Generator:   gen,
		Sessions:    session.NewStore(gen),
		Loader:      loader,
		Credentials: creds,
		Toaster:     toaster,
		Metrics:     metrics.NewCollector(),
	})
	require.NoError(t, err)

	hs := httptest.NewServer(srv.Router())
	t.Cleanup(hs.Close)
	return &testEnv{server: srv, http: hs, gen: gen, toaster: toaster, creds: creds}
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
