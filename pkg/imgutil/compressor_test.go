package imgutil

import (
	"bytes"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodeAs(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		t.Fatalf("unsupported format: %s", format)
	}
	require.NoError(t, err)
	return buf.Bytes()
}

// createDummyImageData は 10x10 の赤い正方形を指定形式でエンコードするのだ。
func createDummyImageData(t *testing.T, format string) []byte {
	t.Helper()
	return encodeAs(t, format, solidImage(10, 10, color.RGBA{R: 255, A: 255}))
}

func TestCompressToJPEG(t *testing.T) {
	red := solidImage(12, 8, color.RGBA{R: 255, A: 255})

	for _, format := range []string{"png", "jpeg", "gif"} {
		t.Run(format+" を JPEG に変換できるのだ", func(t *testing.T) {
			got, err := CompressToJPEG(encodeAs(t, format, red), DefaultJPEGQuality)
			require.NoError(t, err)

			out, kind, err := image.Decode(bytes.NewReader(got))
			require.NoError(t, err)
			assert.Equal(t, "jpeg", kind)
			assert.Equal(t, red.Bounds().Size(), out.Bounds().Size())
		})
	}

	t.Run("画像でないデータはエラー", func(t *testing.T) {
		_, err := CompressToJPEG([]byte("plain text"), DefaultJPEGQuality)
		assert.Error(t, err)
	})

	t.Run("品質を下げるとサイズが小さくなるのだ", func(t *testing.T) {
		noisy := image.NewPaletted(image.Rect(0, 0, 64, 64), palette.Plan9)
		for y := 0; y < 64; y++ {
			for x := 0; x < 64; x++ {
				noisy.SetColorIndex(x, y, uint8((x*7+y*13)%len(palette.Plan9)))
			}
		}
		input := encodeAs(t, "png", noisy)

		high, err := CompressToJPEG(input, 100)
		require.NoError(t, err)
		low, err := CompressToJPEG(input, 10)
		require.NoError(t, err)
		assert.Less(t, len(low), len(high))
	})

	t.Run("透過部分は白になるのだ", func(t *testing.T) {
		transparent := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		got, err := CompressToJPEG(encodeAs(t, "png", transparent), 100)
		require.NoError(t, err)

		out, _, err := image.Decode(bytes.NewReader(got))
		require.NoError(t, err)
		r, g, b, _ := out.At(4, 4).RGBA()
		assert.GreaterOrEqual(t, r>>8, uint32(250))
		assert.GreaterOrEqual(t, g>>8, uint32(250))
		assert.GreaterOrEqual(t, b>>8, uint32(250))
	})
}
