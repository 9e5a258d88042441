package generator

import (
	"context"
	"time"

	"github.com/shouni/gemini-image-studio/pkg/domain"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"google.golang.org/genai"
)

// AIClient は外部の生成AIサービスとの通信を抽象化します。
type AIClient interface {
	// GenerateWithParts はマルチパートの generateContent を実行します。
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
	// GenerateImages は Imagen によるテキストからの画像生成を実行します。
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	// SupportsImageSeed は GenerateImages にシードを渡せるバックエンドかどうかを返します。
	SupportsImageSeed() bool
}

// TextService はプロンプトパイプラインが利用するテキスト系の呼び出しです。
type TextService interface {
	// GenerateText はシステム指示付きの単発テキスト生成を行います。
	GenerateText(ctx context.Context, prompt, systemInstruction string) (string, error)
	// DescribeImage は画像に基づく説明文を生成します。
	DescribeImage(ctx context.Context, img domain.ImageHandle, instruction string) (string, error)
}

// ImageExecutor は、画像生成リクエストを処理するためのメソッドを定義するインターフェースです。
type ImageExecutor interface {
	TextService
	// GenerateImage はテキストから画像を1枚生成します。
	GenerateImage(ctx context.Context, prompt string, opts ImageOptions) (*domain.ImageResponse, error)
	// ExecuteEdit は組み立て済みのパーツで画像編集を実行します。
	ExecuteEdit(ctx context.Context, parts []*genai.Part) (*domain.ImageResponse, error)
	// DescribeResult は生成結果の画像について説明と提案を求めます。
	DescribeResult(ctx context.Context, resp *domain.ImageResponse, prompt string) (string, error)
}

// ImageGenerator はビジネスロジック層が利用する統合窓口です。
type ImageGenerator interface {
	GenerateFromText(ctx context.Context, req domain.ImageGenerationRequest) (*domain.ImageResponse, error)
	EditImage(ctx context.Context, req domain.ImageEditRequest) (*domain.ImageResponse, error)
	RemixImage(ctx context.Context, req domain.ImageRemixRequest) (*domain.ImageResponse, error)
	OptimizePrompt(ctx context.Context, prompt string) (string, error)
}

// ImageCacher は、説明文などをキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
