package imgutil

import (
	"bytes"
	"image"
	"net/http"

	"github.com/shouni/gemini-image-studio/pkg/domain"
)

// MaxUploadSize はアップロード可能な画像の最大サイズ（5MiB）です。
const MaxUploadSize = 5 * 1024 * 1024

// AcceptedMimeTypes は受け付ける画像形式です。
var AcceptedMimeTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

// ValidateUpload はネットワーク呼び出しの前に画像の形式とサイズを検証し、
// ネイティブサイズ付きの ImageHandle を返します。
func ValidateUpload(data []byte) (domain.ImageHandle, error) {
	if len(data) > MaxUploadSize {
		return domain.ImageHandle{}, domain.Validationf("文件过大，请上传小于5MB的图片。")
	}
	if len(data) == 0 {
		return domain.ImageHandle{}, domain.Validationf("请上传 PNG 或 JPG 格式的图片。")
	}

	mimeType := http.DetectContentType(data)
	if !AcceptedMimeTypes[mimeType] {
		return domain.ImageHandle{}, domain.Validationf("请上传 PNG 或 JPG 格式的图片。")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return domain.ImageHandle{}, domain.Validationf("无法读取图片: %v", err)
	}

	return domain.ImageHandle{
		Data:     data,
		MimeType: mimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// Dimensions は画像データのネイティブサイズを返します。デコードできない場合は 0, 0 です。
func Dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
