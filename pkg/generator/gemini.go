package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"google.golang.org/genai"
)

// GeminiGenerator は、テキストからの生成(GenerateFromText)、マスク編集(EditImage)、
// リミックス(RemixImage) のリクエストを組み立てる統合ジェネレーターです。
type GeminiGenerator struct {
	imgCore  ImageExecutor
	pipeline *PromptPipeline
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(core ImageExecutor) (*GeminiGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (ImageExecutor) is required")
	}
	pipeline, err := NewPromptPipeline(core)
	if err != nil {
		return nil, err
	}

	return &GeminiGenerator{
		imgCore:  core,
		pipeline: pipeline,
	}, nil
}

// GenerateFromText はプロンプトパイプラインを通してテキストから画像を1枚生成するのだ。
func (g *GeminiGenerator) GenerateFromText(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.Validationf("请输入您的画面描述。")
	}
	if err := domain.ValidateSeed(req.Seed); err != nil {
		return nil, err
	}

	prompt, err := g.pipeline.BuildGenerationPrompt(ctx, domain.PromptContext{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Style:          req.Style,
		Seed:           req.Seed,
		Reference:      req.Reference,
	})
	if err != nil {
		return nil, err
	}

	resp, err := g.imgCore.GenerateImage(ctx, prompt, ImageOptions{
		AspectRatio: req.AspectRatio,
		Seed:        req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("从文本生成图像时出错: %w", err)
	}
	return resp, nil
}

// EditImage は元画像・マスク・指示をまとめて編集モデルに送り、結果の説明を付けて返すのだ。
// シードは受け付けるが、編集モデルはシード指定に対応していないため送信しないのだ。
func (g *GeminiGenerator) EditImage(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error) {
	if req.Base.IsZero() {
		return nil, domain.Validationf("请先上传要编辑的图片。")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, domain.Validationf("请输入您的修改指令。")
	}
	if err := domain.ValidateSeed(req.Seed); err != nil {
		return nil, err
	}

	basePart := &genai.Part{InlineData: &genai.Blob{MIMEType: mimeOrDefault(req.Base.MimeType), Data: req.Base.Data}}

	prompt, err := g.pipeline.BuildEditPrompt(ctx, domain.PromptContext{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Seed:           req.Seed,
		Reference:      req.Reference,
	})
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{genai.NewPartFromText(prompt), basePart}
	if len(req.Mask) > 0 {
		parts = append([]*genai.Part{genai.NewPartFromText(MaskInstruction)}, parts...)
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: req.Mask}})
	}
	if req.Seed != nil {
		slog.DebugContext(ctx, "編集モデルはシード指定に対応していないため無視します", "seed", *req.Seed)
	}

	slog.InfoContext(ctx, "Gemini画像編集リクエスト", "parts", len(parts), "masked", len(req.Mask) > 0)
	resp, err := g.imgCore.ExecuteEdit(ctx, parts)
	if err != nil {
		return nil, fmt.Errorf("生成图像时出错: %w", err)
	}
	resp.UsedSeed = dereferenceSeed(req.Seed)
	resp.SeedHonored = false

	g.describe(ctx, resp, req.Prompt)
	return resp, nil
}

// describe は編集結果の説明を付加するのだ。失敗しても結果は捨てず、既定の説明に置き換えるのだ。
func (g *GeminiGenerator) describe(ctx context.Context, resp *domain.ImageResponse, instruction string) {
	text, err := g.imgCore.DescribeResult(ctx, resp, descriptionPrompt(instruction))
	if err != nil {
		slog.WarnContext(ctx, "生成画像の説明に失敗しました。既定の説明で続行します", "error", err)
		resp.Description = DefaultDescription(instruction)
		resp.Suggestions = nil
		return
	}
	resp.Description, resp.Suggestions = ParseDescription(text)
	if resp.Description == "" {
		resp.Description = DefaultDescription(instruction)
	}
}

// RemixImage は内容画像とスタイル画像をそれぞれ説明し、合成したプロンプトでテキスト生成に委譲するのだ。
func (g *GeminiGenerator) RemixImage(ctx context.Context, req domain.ImageRemixRequest) (*domain.ImageResponse, error) {
	if req.Content.IsZero() || req.Style.IsZero() {
		return nil, domain.Validationf("请同时提供内容图和风格图。")
	}
	if err := domain.ValidateSeed(req.Seed); err != nil {
		return nil, err
	}

	content, err := g.imgCore.DescribeImage(ctx, req.Content, ContentInstruction)
	if err != nil {
		return nil, fmt.Errorf("图像融合时出错: %w", err)
	}
	style, err := g.imgCore.DescribeImage(ctx, req.Style, StyleInstruction)
	if err != nil {
		return nil, fmt.Errorf("图像融合时出错: %w", err)
	}

	return g.GenerateFromText(ctx, domain.ImageGenerationRequest{
		Prompt:         remixPrompt(content, req.Prompt, style),
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		Seed:           req.Seed,
	})
}

// OptimizePrompt は短いアイデアを詳細なプロンプトに展開するのだ。
func (g *GeminiGenerator) OptimizePrompt(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.Validationf("请输入要优化的提示词。")
	}
	out, err := g.imgCore.GenerateText(ctx, prompt, OptimizeInstruction)
	if err != nil {
		return "", fmt.Errorf("优化提示词时出错: %w", err)
	}
	return out, nil
}

func remixPrompt(content, prompt, style string) string {
	segments := []string{content}
	if p := strings.TrimSpace(prompt); p != "" {
		segments = append(segments, p)
	}
	segments = append(segments, RemixStyleLabel+style)
	return strings.Join(segments, LocaleSeparator)
}

func mimeOrDefault(mimeType string) string {
	if mimeType == "" {
		return "image/png"
	}
	return mimeType
}
