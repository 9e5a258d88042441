package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// mockGenerator は generator.ImageGenerator のモックなのだ。
type mockGenerator struct {
	mu           sync.Mutex
	editReqs     []domain.ImageEditRequest
	editFunc     func(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error)
	optimizeFunc func(ctx context.Context, prompt string) (string, error)
}

func (m *mockGenerator) GenerateFromText(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	return &domain.ImageResponse{Data: pngBytes(8, 8), MimeType: "image/png"}, nil
}

func (m *mockGenerator) EditImage(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error) {
	m.mu.Lock()
	m.editReqs = append(m.editReqs, req)
	m.mu.Unlock()
	if m.editFunc != nil {
		return m.editFunc(ctx, req)
	}
	return &domain.ImageResponse{Data: pngBytes(30, 20), MimeType: "image/png", Description: "新图片", Suggestions: []string{"加星星"}}, nil
}

func (m *mockGenerator) RemixImage(ctx context.Context, req domain.ImageRemixRequest) (*domain.ImageResponse, error) {
	return &domain.ImageResponse{Data: pngBytes(8, 8), MimeType: "image/png"}, nil
}

func (m *mockGenerator) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	if m.optimizeFunc != nil {
		return m.optimizeFunc(ctx, prompt)
	}
	return "详细的" + prompt, nil
}

func (m *mockGenerator) edits() []domain.ImageEditRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ImageEditRequest(nil), m.editReqs...)
}

func pngBytes(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func handle(w, h int) domain.ImageHandle {
	return domain.ImageHandle{Data: pngBytes(w, h), MimeType: "image/png", Width: w, Height: h}
}
