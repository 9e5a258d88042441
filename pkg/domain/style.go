package domain

// StylePreset はテキスト生成時に選択できる画風プリセットです。
type StylePreset struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ImageURL       string `json:"image_url"`
	PromptFragment string `json:"prompt_fragment"` // 翻訳後の英語プロンプトに連結される
}

// StylePresets は組み込みのプリセット一覧です。
var StylePresets = []StylePreset{
	{ID: "cyberpunk", Name: "赛博朋克", ImageURL: "https://picsum.photos/seed/cyberpunk/200/200", PromptFragment: "cyberpunk, neon lighting, futuristic cityscape, Blade Runner style, highly detailed"},
	{ID: "ghibli", Name: "吉卜力动画", ImageURL: "https://picsum.photos/seed/ghibli/200/200", PromptFragment: "Studio Ghibli anime style, hand-drawn, whimsical, vibrant colors, detailed background"},
	{ID: "inkwash", Name: "水墨画", ImageURL: "https://picsum.photos/seed/inkwash/200/200", PromptFragment: "Chinese ink wash painting (Shuimohua), minimalist, black and white, traditional, calligraphy strokes"},
	{ID: "portrait", Name: "电影感人像", ImageURL: "https://picsum.photos/seed/portrait/200/200", PromptFragment: "cinematic portrait photography, dramatic lighting, shallow depth of field, 35mm lens, film grain"},
	{ID: "surreal", Name: "超现实主义", ImageURL: "https://picsum.photos/seed/surreal/200/200", PromptFragment: "surrealism, dreamlike, bizarre, Salvador Dali style, illogical scene"},
	{ID: "pixel", Name: "像素艺术", ImageURL: "https://picsum.photos/seed/pixel/200/200", PromptFragment: "pixel art, 16-bit, retro gaming style, vibrant palette"},
	{ID: "fantasy", Name: "幻想", ImageURL: "https://picsum.photos/seed/fantasy/200/200", PromptFragment: "fantasy art, epic, detailed, mythical creatures, magical landscape, by Frank Frazetta"},
	{ID: "steampunk", Name: "蒸汽朋克", ImageURL: "https://picsum.photos/seed/steampunk/200/200", PromptFragment: "steampunk, Victorian era, gears and cogs, steam-powered machinery, intricate details, brass and copper"},
	{ID: "watercolor", Name: "水彩", ImageURL: "https://picsum.photos/seed/watercolor/200/200", PromptFragment: "watercolor painting, soft edges, translucent colors, wet-on-wet technique, delicate"},
	{ID: "lowpoly", Name: "低多边形", ImageURL: "https://picsum.photos/seed/lowpoly/200/200", PromptFragment: "low poly, geometric, faceted, minimalist, modern, vibrant colors"},
	{ID: "comic", Name: "漫画书", ImageURL: "https://picsum.photos/seed/comic/200/200", PromptFragment: "comic book style, bold outlines, halftone dots, vibrant colors, dynamic action, pop art"},
	{ID: "3dmodel", Name: "3D模型", ImageURL: "https://picsum.photos/seed/3dmodel/200/200", PromptFragment: "3D model, rendered in Octane, trending on ArtStation, polished, detailed, realistic materials"},
}

// FindStyle は ID からプリセットを探します。
func FindStyle(id string) (StylePreset, bool) {
	for _, s := range StylePresets {
		if s.ID == id {
			return s, true
		}
	}
	return StylePreset{}, false
}
