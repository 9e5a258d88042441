package canvas

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// Mask は二値化済みのマスク画像（白=編集領域、黒=保持領域）です。
type Mask struct {
	Data   []byte // PNG
	Width  int
	Height int
}

// Base64 はヘッダー（data:...;base64,）を含まないペイロードを返します。
func (m *Mask) Base64() string {
	return base64.StdEncoding.EncodeToString(m.Data)
}

// EncodeMask はラスタを二値マスクとして PNG にエンコードします。
// 何も描かれていない場合は (nil, nil) を返し、マスク自体を送信しないことを示します。
func EncodeMask(img image.Image) (*Mask, error) {
	if img == nil || !Painted(img) {
		return nil, nil
	}

	bin := Binarize(img)
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, bin); err != nil {
		return nil, fmt.Errorf("mask encode failed: %w", err)
	}

	b := bin.Bounds()
	return &Mask{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// Painted は色またはアルファが 0 でないピクセルが1つでもあれば true を返します。
func Painted(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := img.At(x, y).RGBA()
			if r|g|bl|a != 0 {
				return true
			}
		}
	}
	return false
}

// Binarize は alpha > 0 のピクセルを不透明な白、それ以外を不透明な黒に変換します。
func Binarize(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	white := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.NRGBA{A: 255}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a > 0 {
				out.SetNRGBA(x-b.Min.X, y-b.Min.Y, white)
			} else {
				out.SetNRGBA(x-b.Min.X, y-b.Min.Y, black)
			}
		}
	}
	return out
}
