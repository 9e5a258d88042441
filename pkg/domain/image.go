package domain

// ImageHandle は編集セッションが保持する画像データへの参照です。
// アップロード画像または直前の生成結果で、編集が成功するたびに丸ごと置き換えられます。
type ImageHandle struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
}

// IsZero は画像データを保持していない場合に true を返します。
func (h *ImageHandle) IsZero() bool {
	return h == nil || len(h.Data) == 0
}

// ImageGenerationRequest はテキストからの単一画像生成要求です。
type ImageGenerationRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Style          string       // スタイルプリセットのプロンプト断片（翻訳後に連結）
	Reference      *ImageHandle // 被写体を抽出する参照画像
	Seed           *int64       // nil でランダム、値指定で固定
}

// ImageEditRequest は既存画像への指示ベースの編集要求です。
type ImageEditRequest struct {
	Base           ImageHandle
	Prompt         string
	NegativePrompt string
	Mask           []byte // PNG。nil の場合はマスクなし（画像全体が編集対象）
	Reference      *ImageHandle
	// Seed はインターフェースの対称性のために受け付けますが、編集モデルには送信されません。
	Seed *int64
}

// ImageRemixRequest は内容画像とスタイル画像を合成する要求です。
type ImageRemixRequest struct {
	Content        ImageHandle
	Style          ImageHandle
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	Seed           *int64
}

// ImageResponse は生成された画像データとそのメタデータです。
type ImageResponse struct {
	Data        []byte
	MimeType    string
	UsedSeed    int64 // 戻り値は情報欠落を防ぐため int64
	SeedHonored bool  // モデルが実際にシードを受け取ったかどうか
	Description string
	Suggestions []string
}

// Handle は生成結果を新しい ImageHandle として取り出します。寸法は呼び出し側で補完します。
func (r *ImageResponse) Handle() ImageHandle {
	return ImageHandle{Data: r.Data, MimeType: r.MimeType}
}
