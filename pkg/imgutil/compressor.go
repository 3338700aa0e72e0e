package imgutil

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// CompressToJPEG は画像データ（PNG, GIF, JPEG, WebP）をJPEG形式に圧縮します。
// maxEdge が正の値で長辺がそれを超える場合は、縦横比を保ったまま縮小します。
func CompressToJPEG(data []byte, quality int, maxEdge int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if b := img.Bounds(); maxEdge > 0 && (b.Dx() > maxEdge || b.Dy() > maxEdge) {
		img = resize.Thumbnail(uint(maxEdge), uint(maxEdge), img, resize.Lanczos3)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
