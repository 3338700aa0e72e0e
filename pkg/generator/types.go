package generator

import (
	"time"

	"github.com/shouni/prompt-image-kit/pkg/domain"
)

const (
	UseImageCompression     = true
	ImageCompressionQuality = 75
	MaxReferenceEdge        = 1536
	cacheKeyReference       = "reference:"

	DefaultImagenModel        = "imagen-3.0-generate-002"
	DefaultImagenContentModel = "gemini-2.5-flash-image"
	DefaultImagenMaxImages    = 4

	DefaultPollinationsBaseURL   = "https://image.pollinations.ai"
	DefaultPollinationsModel     = "flux"
	DefaultPollinationsSize      = 1024
	DefaultPollinationsMaxImages = 4
	DefaultPollinationsWorkers   = 4
	DefaultRequestTimeout        = 30 * time.Second
)

// Batch はプロバイダーに渡す1回分の生成内容です。プロンプトは組み立て済みです。
type Batch struct {
	Prompt      domain.Prompt
	AspectRatio domain.AspectRatio
	Count       int
	SafetyLevel domain.SafetyLevel
	Seed        *int64
	Reference   []byte // 参照画像。対応していないプロバイダーは無視します
}
