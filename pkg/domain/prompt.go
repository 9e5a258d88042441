package domain

// PromptContext はリクエストごとに組み立てられるプロンプトの入力値です。永続化はしません。
type PromptContext struct {
	Prompt         string // 作業言語（中国語）の自由記述
	NegativePrompt string
	Style          string
	Seed           *int64
	Reference      *ImageHandle
}

// HasReference は参照画像が指定されているかを返します。
func (p PromptContext) HasReference() bool {
	return !p.Reference.IsZero()
}
