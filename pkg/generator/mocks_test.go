package generator

import (
	"context"
	"sync"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// --- Mocks ---

type generateCall struct {
	model string
	parts []*genai.Part
	opts  gemini.GenerateOptions
}

type mockAIClient struct {
	mu                    sync.Mutex
	calls                 []generateCall
	imageCalls            int
	lastImageConfig       *genai.GenerateImagesConfig
	imageSeed             bool
	generateWithPartsFunc func(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
	generateImagesFunc    func(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

func (m *mockAIClient) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, generateCall{model: model, parts: parts, opts: opts})
	m.mu.Unlock()
	if m.generateWithPartsFunc != nil {
		return m.generateWithPartsFunc(ctx, model, parts, opts)
	}
	return textResponse("ok"), nil
}

func (m *mockAIClient) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.mu.Lock()
	m.imageCalls++
	m.lastImageConfig = config
	m.mu.Unlock()
	if m.generateImagesFunc != nil {
		return m.generateImagesFunc(ctx, model, prompt, config)
	}
	return &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: []byte("jpeg"), MIMEType: "image/jpeg"}}},
	}, nil
}

func (m *mockAIClient) SupportsImageSeed() bool { return m.imageSeed }

type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

// mockExecutor は ImageExecutor のモックで、呼び出し順を記録するのだ。
type mockExecutor struct {
	mu       sync.Mutex
	log      []string
	textFunc func(prompt, instruction string) (string, error)
	descFunc func(img domain.ImageHandle, instruction string) (string, error)
	genFunc  func(prompt string, opts ImageOptions) (*domain.ImageResponse, error)
	editFunc func(parts []*genai.Part) (*domain.ImageResponse, error)
	resFunc  func(resp *domain.ImageResponse, prompt string) (string, error)
}

func (m *mockExecutor) record(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, s)
}

func (m *mockExecutor) GenerateText(ctx context.Context, prompt, instruction string) (string, error) {
	m.record("text:" + prompt)
	if m.textFunc != nil {
		return m.textFunc(prompt, instruction)
	}
	return "EN(" + prompt + ")", nil
}

func (m *mockExecutor) DescribeImage(ctx context.Context, img domain.ImageHandle, instruction string) (string, error) {
	m.record("describe")
	if m.descFunc != nil {
		return m.descFunc(img, instruction)
	}
	return "描述", nil
}

func (m *mockExecutor) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*domain.ImageResponse, error) {
	m.record("generate:" + prompt)
	if m.genFunc != nil {
		return m.genFunc(prompt, opts)
	}
	return &domain.ImageResponse{Data: []byte("img"), MimeType: "image/jpeg"}, nil
}

func (m *mockExecutor) ExecuteEdit(ctx context.Context, parts []*genai.Part) (*domain.ImageResponse, error) {
	m.record("edit")
	if m.editFunc != nil {
		return m.editFunc(parts)
	}
	return &domain.ImageResponse{Data: []byte("edited"), MimeType: "image/png"}, nil
}

func (m *mockExecutor) DescribeResult(ctx context.Context, resp *domain.ImageResponse, prompt string) (string, error) {
	m.record("result")
	if m.resFunc != nil {
		return m.resFunc(resp, prompt)
	}
	return "[DESCRIPTION]\n新图片\n[SUGGESTIONS]\n- 建议一\n- 建议二", nil
}

func (m *mockExecutor) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.log...)
}

// --- Response builders ---

func textResponse(text string) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
			}},
		},
	}
}

func imageResponse(mimeType string, data []byte) *gemini.Response {
	return &gemini.Response{
		RawResponse: &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
				},
			}},
		},
	}
}

// pngHeader は http.DetectContentType が image/png と判定する最小のデータなのだ。
var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")
