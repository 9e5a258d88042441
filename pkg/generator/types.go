package generator

import (
	"time"
)

const (
	DefaultTextModel  = "gemini-2.5-flash"
	DefaultImageModel = "imagen-4.0-generate-001"
	DefaultEditModel  = "gemini-2.5-flash-image"

	DefaultCacheTTL = 30 * time.Minute

	// generateImage は常に1枚、JPEG で要求する
	imageCount          = 1
	imageOutputMimeType = "image/jpeg"

	cacheKeyDescription = "description:"
)

// Models は各呼び出しで使用するモデル名の組です。
type Models struct {
	Text  string
	Image string
	Edit  string
}

// DefaultModels は既定のモデル構成を返します。
func DefaultModels() Models {
	return Models{Text: DefaultTextModel, Image: DefaultImageModel, Edit: DefaultEditModel}
}

func (m Models) withDefaults() Models {
	d := DefaultModels()
	if m.Text == "" {
		m.Text = d.Text
	}
	if m.Image == "" {
		m.Image = d.Image
	}
	if m.Edit == "" {
		m.Edit = d.Edit
	}
	return m
}

// ImageOptions はテキストからの画像生成オプションです。
type ImageOptions struct {
	AspectRatio string
	Seed        *int64
}

// ImageOutput は Core の内部解析結果
type ImageOutput struct {
	Data     []byte
	MimeType string
	UsedSeed int64
}

// プロンプト断片とシステム指示
const (
	// LocaleSeparator は作業言語（中国語）での連結記号
	LocaleSeparator = "，"

	QualitySuffix     = ", masterpiece, best quality, ultra-detailed, 8k, cinematic lighting, sharp focus, intricate details"
	EditQualityPhrase = "Ensure the output is masterpiece, best quality, ultra-detailed, 4k, with cinematic lighting, sharp focus, and intricate details."

	NegativePromptLabel = "negative prompt: "
	EditExclusionLabel  = "排除 "
	RemixStyleLabel     = "艺术风格为 "

	TranslateInstruction = "你是一个专业的翻译家。将以下中文文本翻译成英文。只输出翻译后的英文文本，不要任何额外的解释、标签或引号。"

	OptimizeInstruction = "你是一位顶尖的AI绘画提示词工程师，一位视觉叙事大师。你的任务是将用户输入的简短中文想法，扩展成一个结构化、极其详细、富有画面感的专业级中文提示词。严格遵循以下规则：1. **核心主题**: 首先明确描述核心主体和动作。2. **丰富细节**: 生动地描绘主体的外观、情绪、服装等细节。3. **构建场景**: 详细描述环境、背景和氛围。4. **定义艺术风格**: 具体说明艺术风格（如：照片级真实感、动漫、油画）、光照（如：电影感光照、柔光、霓虹灯）、色彩方案和摄影细节（如：相机视角、镜头类型，例如低角度拍摄、广角镜头）。5. **输出**: 只返回优化后的中文提示词，不要包含任何额外的解释、标题或引号。"

	SubjectInstruction = "你是一个图像分析专家。请详细描述图像中的核心主体（人物或物体）的视觉特征，重点描述那些可以用于在其他场景中重新生成该主体的关键细节（如发型、服装、颜色、风格等）。描述应简洁、准确，并以一个名词短语的形式呈现。例如：'一个穿着红色连衣裙的金发女孩'或'一辆复古的蓝色跑车'。"

	ContentInstruction = "你是一个图像分析专家。请用简洁的名词短语描述这张图片的主要内容。例如：'一只狗在公园里'或'一个山顶上的城堡'。"

	StyleInstruction = "你是一个艺术评论家。请用简洁的短语描述这张图片的艺术风格、媒介、光照和色彩。例如：'采用柔和色调的印象派油画'或'赛博朋克风格的数字艺术，充满霓虹灯光'。"

	MaskInstruction = "You are a professional image editor. Here is an original image, a black and white mask, and a text instruction. Your task is to modify ONLY the parts of the original image that correspond to the WHITE areas of the mask. The BLACK areas must remain completely unchanged. Strictly follow the text instruction to modify the white areas."

	descriptionPromptTemplate = `这是刚刚根据用户指令“%s”编辑生成的图片。请你：
1. 对这张新图片进行一段生动、富有想象力的描述。
2. 提出2-3个简短、可操作的后续修改建议，引导用户继续创作。

请严格按照以下格式返回，不要添加任何其他无关内容：
[DESCRIPTION]
这里是图片的描述文字。
[SUGGESTIONS]
- 第一个建议
- 第二个建议
- 第三个建议`

	defaultDescriptionTemplate = "已成功应用修改：“%s”"
)
