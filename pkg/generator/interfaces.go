package generator

import (
	"context"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/prompt-image-kit/pkg/domain"
	"google.golang.org/genai"
)

// ImageGenerator は各プロバイダーの実装が満たすインターフェースです。
type ImageGenerator interface {
	Provider() domain.Provider
	Capabilities() Capabilities
	Generate(ctx context.Context, batch Batch) (*domain.GenerationResult, error)
}

// ImageModel は genai の Models サービスのうち、画像生成で使うメソッドだけを切り出したものです。
// *genai.Models がそのまま満たします。
type ImageModel interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// HTTPClient は、URLからデータを取得するためのインターフェースです。*httpkit.Client が満たします。
// 取得は Do を1回だけ呼び、FetchBytes の再試行は使いません。
type HTTPClient interface {
	httpkit.Doer
	IsSafeURL(urlStr string) (bool, error)
}

// ImageCacher は、画像をキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}

// Observer は生成結果の観測フックです。メトリクス収集に使います。
type Observer interface {
	ObserveGeneration(provider domain.Provider, state domain.State, images, failures int, elapsed time.Duration)
}
