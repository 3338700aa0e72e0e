package imgutil

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPNG(t *testing.T) {
	t.Run("PNGはエンコードとデコードを経ても画素が一致すること", func(t *testing.T) {
		src := createDummyImageData(t, "png")

		out, err := ToPNG(src)
		require.NoError(t, err)

		want, err := png.Decode(bytes.NewReader(src))
		require.NoError(t, err)
		got, err := png.Decode(bytes.NewReader(out))
		require.NoError(t, err)

		// 一度デコードした画像を再エンコードしても同じ画素になることも確認する
		buf := new(bytes.Buffer)
		require.NoError(t, png.Encode(buf, got))
		again, err := png.Decode(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)

		assertSamePixels(t, want, got)
		assertSamePixels(t, want, again)
	})

	t.Run("JPEGはPNGに変換されること", func(t *testing.T) {
		out, err := ToPNG(createDummyImageData(t, "jpeg"))
		require.NoError(t, err)

		_, format, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("不正なデータはエラーになること", func(t *testing.T) {
		_, err := ToPNG([]byte("not an image"))
		assert.Error(t, err)
	})
}

func assertSamePixels(t *testing.T, a, b image.Image) {
	t.Helper()
	require.Equal(t, a.Bounds(), b.Bounds())
	for y := a.Bounds().Min.Y; y < a.Bounds().Max.Y; y++ {
		for x := a.Bounds().Min.X; x < a.Bounds().Max.X; x++ {
			r1, g1, b1, a1 := a.At(x, y).RGBA()
			r2, g2, b2, a2 := b.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel mismatch at (%d,%d)", x, y)
			}
		}
	}
}
