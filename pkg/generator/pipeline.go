package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// PromptPipeline は 参照画像の説明 → 翻訳 → スタイル/品質/ネガティブの付加 を順に実行し、
// モデルに渡す最終プロンプトを組み立てます。どのステップが失敗しても全体を中断します。
type PromptPipeline struct {
	text TextService
}

// NewPromptPipeline は PromptPipeline を初期化します。
func NewPromptPipeline(text TextService) (*PromptPipeline, error) {
	if text == nil {
		return nil, fmt.Errorf("text service is required")
	}
	return &PromptPipeline{text: text}, nil
}

// BuildGenerationPrompt はテキストからの画像生成用プロンプトを組み立てます。
// 翻訳後にスタイルとネガティブを付加するため、モデルには英語のみが渡ります。
func (p *PromptPipeline) BuildGenerationPrompt(ctx context.Context, pc domain.PromptContext) (string, error) {
	working, err := p.withSubject(ctx, pc)
	if err != nil {
		return "", err
	}

	translated, err := p.Translate(ctx, working)
	if err != nil {
		return "", err
	}

	final := translated
	if style := strings.TrimSpace(pc.Style); style != "" {
		final = final + ", " + style
	}
	final += QualitySuffix

	if neg := strings.TrimSpace(pc.NegativePrompt); neg != "" {
		negEN, err := p.Translate(ctx, neg)
		if err != nil {
			return "", fmt.Errorf("negative prompt: %w", err)
		}
		final = final + ", " + NegativePromptLabel + negEN
	}

	slog.DebugContext(ctx, "プロンプトを組み立てました", "prompt", final)
	return final, nil
}

// BuildEditPrompt は画像編集用のプロンプトを組み立てます。
// 編集モデルにはネガティブ指定の欄がないため、翻訳前に除外指示として本文へ含めます。
func (p *PromptPipeline) BuildEditPrompt(ctx context.Context, pc domain.PromptContext) (string, error) {
	working, err := p.withSubject(ctx, pc)
	if err != nil {
		return "", err
	}

	if neg := strings.TrimSpace(pc.NegativePrompt); neg != "" {
		working = working + LocaleSeparator + EditExclusionLabel + neg
	}

	translated, err := p.Translate(ctx, working)
	if err != nil {
		return "", err
	}

	return translated + ". " + EditQualityPhrase, nil
}

// Translate は作業言語のテキストをサービスの期待する言語（英語）に翻訳します。
func (p *PromptPipeline) Translate(ctx context.Context, text string) (string, error) {
	out, err := p.text.GenerateText(ctx, text, TranslateInstruction)
	if err != nil {
		return "", fmt.Errorf("将提示词翻译成英文时出错: %w", err)
	}
	return out, nil
}

// withSubject は参照画像がある場合に被写体の説明をプロンプトの先頭に付加します。
func (p *PromptPipeline) withSubject(ctx context.Context, pc domain.PromptContext) (string, error) {
	if !pc.HasReference() {
		return pc.Prompt, nil
	}

	desc, err := p.text.DescribeImage(ctx, *pc.Reference, SubjectInstruction)
	if err != nil {
		return "", fmt.Errorf("分析参考图像时出错: %w", err)
	}
	return desc + LocaleSeparator + pc.Prompt, nil
}
