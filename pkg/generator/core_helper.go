package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

func (c *GeminiImageCore) executeRequest(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*domain.ImageResponse, error) {
	resp, err := c.aiClient.GenerateWithParts(ctx, model, parts, opts)
	if err != nil {
		return nil, wrapUpstream("image edit", err)
	}

	out, err := c.parseToResponse(resp, dereferenceSeed(opts.Seed))
	if err != nil {
		return nil, err
	}

	return &domain.ImageResponse{
		Data:     out.Data,
		MimeType: out.MimeType,
		UsedSeed: out.UsedSeed,
	}, nil
}

func (c *GeminiImageCore) toPart(data []byte) *genai.Part {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}
}

// parseToResponse は最初の候補から画像パーツを取り出します。
// テキストしか含まれない場合は生成拒否として ErrTextInsteadOfImage を返します。
func (c *GeminiImageCore) parseToResponse(resp *gemini.Response, seed int64) (*ImageOutput, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return nil, fmt.Errorf("%w: invalid response", domain.ErrUpstream)
	}
	candidate := resp.RawResponse.Candidates[0]

	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &ImageOutput{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType, UsedSeed: seed}, nil
			}
			text.WriteString(part.Text)
		}
	}

	if t := strings.TrimSpace(text.String()); t != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrTextInsteadOfImage, t)
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w: 画像生成が異常終了しました (FinishReason: %s)", domain.ErrUpstream, candidate.FinishReason)
	}
	return nil, fmt.Errorf("%w: AI未能返回新图像。", domain.ErrUpstream)
}

// parseImagesResponse は Imagen の応答から最初の画像を取り出します。
func parseImagesResponse(resp *genai.GenerateImagesResponse, seed int64) (*ImageOutput, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: invalid response", domain.ErrUpstream)
	}
	for _, img := range resp.GeneratedImages {
		if img == nil || img.Image == nil || len(img.Image.ImageBytes) == 0 {
			continue
		}
		mimeType := img.Image.MIMEType
		if mimeType == "" {
			mimeType = imageOutputMimeType
		}
		return &ImageOutput{Data: img.Image.ImageBytes, MimeType: mimeType, UsedSeed: seed}, nil
	}
	return nil, fmt.Errorf("%w: AI未能返回图像。", domain.ErrUpstream)
}

// extractText は最初の候補のテキストパーツを連結して返します。
func extractText(resp *gemini.Response) (string, error) {
	if resp == nil || resp.RawResponse == nil || len(resp.RawResponse.Candidates) == 0 {
		return "", fmt.Errorf("%w: invalid response", domain.ErrUpstream)
	}
	candidate := resp.RawResponse.Candidates[0]

	var out strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			out.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text returned by model", domain.ErrUpstream)
	}
	return text, nil
}
