package prompt

import "github.com/shouni/prompt-image-kit/pkg/domain"

// StyleTable は画風キーからプロンプト末尾に付与する修飾句への対応表です。
type StyleTable map[domain.StyleKey]string

// DefaultStyleTable は既定の画風修飾句を返します。StyleNone は空文字です。
func DefaultStyleTable() StyleTable {
	return StyleTable{
		domain.StylePhotorealistic: "photorealistic, 8k, highly detailed, sharp focus, realistic textures",
		domain.StyleCinematic:      "cinematic lighting, dramatic atmosphere, movie scene, 4k",
		domain.Style3DRender:       "3d render, unreal engine 5, octane render, isometric",
		domain.StyleAnime:          "anime style, studio ghibli, vibrant colors",
		domain.StyleOilPainting:    "oil painting, visible brush strokes, canvas texture, classical composition",
		domain.StyleDigitalArt:     "digital art, concept art, trending on artstation, vivid colors",
		domain.StyleNone:           "",
	}
}

// Keys は対応表に登録された画風キーを返します。
func (t StyleTable) Keys() []domain.StyleKey {
	order := []domain.StyleKey{
		domain.StylePhotorealistic, domain.StyleCinematic, domain.Style3DRender,
		domain.StyleAnime, domain.StyleOilPainting, domain.StyleDigitalArt, domain.StyleNone,
	}
	keys := make([]domain.StyleKey, 0, len(t))
	seen := make(map[domain.StyleKey]bool, len(t))
	for _, k := range order {
		if _, ok := t[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	for k := range t {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	return keys
}
