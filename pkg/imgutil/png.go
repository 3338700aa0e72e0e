package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"

	_ "github.com/chai2010/webp"
)

// ToPNG はプロバイダーが返した画像（PNG, JPEG, GIF, WebP）をダウンロード用のPNGに変換します。
// 既にPNGの場合はそのまま返します。
func ToPNG(data []byte) ([]byte, error) {
	if http.DetectContentType(data) == "image/png" {
		return data, nil
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}

	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		return nil, fmt.Errorf("PNGへのエンコードに失敗しました (元形式: %s): %w", format, err)
	}
	return buf.Bytes(), nil
}
