package genaiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// KeySource は呼び出し時点の APIキーを返します。
type KeySource interface {
	APIKey() string
}

// KeyFunc は関数を KeySource として扱うためのアダプタです。
type KeyFunc func() string

func (f KeyFunc) APIKey() string { return f() }

// Config は genai クライアント生成時の接続設定です。
type Config struct {
	// HTTPClient が nil の場合は SDK の既定クライアントを使います。
	HTTPClient *http.Client
	// BaseURL はテストやプロキシ経由の接続で API の接続先を差し替えます。
	BaseURL string
}

// Client は google.golang.org/genai の上に generator.AIClient を実装します。
// 内部の *genai.Client は初回呼び出し時に生成され、キーが変わると作り直されます。
type Client struct {
	keys KeySource
	cfg  Config

	mu     sync.Mutex
	client *genai.Client
	key    string
}

// New は Client を初期化します。この時点では通信もキーの検証も行いません。
func New(keys KeySource, cfg Config) (*Client, error) {
	if keys == nil {
		return nil, fmt.Errorf("key source is required")
	}
	return &Client{keys: keys, cfg: cfg}, nil
}

// current は現在のキーに対応する *genai.Client を返します。
func (c *Client) current(ctx context.Context) (*genai.Client, error) {
	key := strings.TrimSpace(c.keys.APIKey())
	if key == "" {
		return nil, fmt.Errorf("%w: 请先设置您的 Gemini API 密钥", domain.ErrServiceUnavailable)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.key == key {
		return c.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.cfg.HTTPClient,
	}
	if c.cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: genai client: %w", domain.ErrServiceUnavailable, err)
	}
	if c.client != nil {
		slog.InfoContext(ctx, "APIキーの変更を検知したため AI クライアントを再生成しました")
	}
	c.client = client
	c.key = key
	return client, nil
}

// GenerateWithParts はマルチパートの generateContent を実行します。
func (c *Client) GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error) {
	client, err := c.current(ctx)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{}
	if opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(opts.SystemPrompt, genai.RoleUser)
	}
	if opts.Seed != nil {
		if err := domain.ValidateSeed(opts.Seed); err != nil {
			return nil, err
		}
		seed := int32(*opts.Seed)
		config.Seed = &seed
	}
	if opts.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: opts.AspectRatio}
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, err
	}
	return &gemini.Response{RawResponse: resp}, nil
}

// SupportsImageSeed は常に false です。Gemini API バックエンドの Imagen はシード指定を受け付けず、
// SDK が送信前にエラーにします。
func (c *Client) SupportsImageSeed() bool { return false }

// GenerateImages は Imagen によるテキストからの画像生成を実行します。
func (c *Client) GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	client, err := c.current(ctx)
	if err != nil {
		return nil, err
	}
	return client.Models.GenerateImages(ctx, model, prompt, config)
}
