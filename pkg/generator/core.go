package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"

	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// GeminiImageCore は外部サービス契約（テキスト生成、画像説明、画像生成、画像編集）を実装する基盤クラスです。
type GeminiImageCore struct {
	aiClient   AIClient
	models     Models
	cache      ImageCacher
	expiration time.Duration
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
func NewGeminiImageCore(aiClient AIClient, models Models, cache ImageCacher, cacheTTL time.Duration) (*GeminiImageCore, error) {
	if aiClient == nil {
		return nil, fmt.Errorf("aiClient is required")
	}
	// cache は nil を許容（キャッシュなし動作）

	return &GeminiImageCore{
		aiClient:   aiClient,
		models:     models.withDefaults(),
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// GenerateText はシステム指示付きの単発テキスト生成を行います。
func (c *GeminiImageCore) GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	resp, err := c.aiClient.GenerateWithParts(ctx, c.models.Text, parts, gemini.GenerateOptions{
		SystemPrompt: systemInstruction,
	})
	if err != nil {
		return "", wrapUpstream("text generation", err)
	}
	return extractText(resp)
}

// DescribeImage は画像に基づく短い説明を生成します。
// 同じ画像と指示の組み合わせはキャッシュから返します。
func (c *GeminiImageCore) DescribeImage(ctx context.Context, img domain.ImageHandle, instruction string) (string, error) {
	if img.IsZero() {
		return "", domain.Validationf("image is required")
	}

	key := descriptionCacheKey(img.Data, instruction)
	if c.cache != nil {
		if val, ok := c.cache.Get(key); ok {
			if desc, ok := val.(string); ok {
				return desc, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "type", fmt.Sprintf("%T", val))
		}
	}

	part := c.toPart(img.Data)
	if part == nil {
		return "", domain.Validationf("unsupported image data")
	}

	resp, err := c.aiClient.GenerateWithParts(ctx, c.models.Text, []*genai.Part{part}, gemini.GenerateOptions{
		SystemPrompt: instruction,
	})
	if err != nil {
		return "", wrapUpstream("image description", err)
	}
	desc, err := extractText(resp)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		c.cache.Set(key, desc, c.expiration)
	}
	return desc, nil
}

// GenerateImage はテキストから画像を1枚生成します。
func (c *GeminiImageCore) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*domain.ImageResponse, error) {
	config := &genai.GenerateImagesConfig{
		NumberOfImages: imageCount,
		OutputMIMEType: imageOutputMimeType,
		AspectRatio:    opts.AspectRatio,
	}
	if opts.Seed != nil {
		if c.aiClient.SupportsImageSeed() {
			config.Seed = seedToPtrInt32(opts.Seed)
		} else {
			slog.DebugContext(ctx, "このバックエンドの画像生成はシード指定に対応していないため送信しません", "seed", *opts.Seed)
		}
	}

	resp, err := c.aiClient.GenerateImages(ctx, c.models.Image, prompt, config)
	if err != nil {
		return nil, wrapUpstream("image generation", err)
	}

	out, err := parseImagesResponse(resp, dereferenceSeed(opts.Seed))
	if err != nil {
		return nil, err
	}

	return &domain.ImageResponse{
		Data:        out.Data,
		MimeType:    out.MimeType,
		UsedSeed:    out.UsedSeed,
		SeedHonored: config.Seed != nil,
	}, nil
}

// ExecuteEdit は組み立て済みのパーツで画像編集モデルを呼び出します。
func (c *GeminiImageCore) ExecuteEdit(ctx context.Context, parts []*genai.Part) (*domain.ImageResponse, error) {
	return c.executeRequest(ctx, c.models.Edit, parts, gemini.GenerateOptions{})
}

// DescribeResult は編集結果の画像について説明と後続の提案を求めます。
func (c *GeminiImageCore) DescribeResult(ctx context.Context, result *domain.ImageResponse, prompt string) (string, error) {
	if result == nil || len(result.Data) == 0 {
		return "", fmt.Errorf("%w: no image to describe", domain.ErrUpstream)
	}

	mimeType := result.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		{InlineData: &genai.Blob{MIMEType: mimeType, Data: result.Data}},
	}

	resp, err := c.aiClient.GenerateWithParts(ctx, c.models.Text, parts, gemini.GenerateOptions{})
	if err != nil {
		return "", wrapUpstream("result description", err)
	}
	return extractText(resp)
}

func descriptionCacheKey(data []byte, instruction string) string {
	h := sha256.New()
	h.Write(data)
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(instruction)))
	return cacheKeyDescription + hex.EncodeToString(h.Sum(nil))
}
