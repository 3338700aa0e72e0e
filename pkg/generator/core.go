package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/prompt-image-kit/pkg/domain"
)

// ImageCore は参照画像の取得・キャッシュ・圧縮を担う基盤クラスです。
type ImageCore struct {
	httpClient HTTPClient
	cache      ImageCacher
	expiration time.Duration
}

// NewImageCore は依存関係を注入して ImageCore を初期化します。
func NewImageCore(httpClient HTTPClient, cache ImageCacher, cacheTTL time.Duration) (*ImageCore, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	// cache は nil を許容（キャッシュなし動作）

	return &ImageCore{
		httpClient: httpClient,
		cache:      cache,
		expiration: cacheTTL,
	}, nil
}

// LoadReference はリクエストの参照画像をプロバイダーへ送れる形で返します。
// バイト列が直接渡されていればそれを優先し、なければ ReferenceURL から取得します。
func (c *ImageCore) LoadReference(ctx context.Context, req domain.GenerationRequest) ([]byte, error) {
	if len(req.ReferenceImage) > 0 {
		return prepareReference(req.ReferenceImage)
	}
	if req.ReferenceURL == "" {
		return nil, nil
	}

	cacheKey := cacheKeyReference + req.ReferenceURL
	if c.cache != nil {
		if val, ok := c.cache.Get(cacheKey); ok {
			if data, ok := val.([]byte); ok {
				return data, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", req.ReferenceURL, "type", fmt.Sprintf("%T", val))
		}
	}

	raw, err := c.fetchImageData(ctx, req.ReferenceURL)
	if err != nil {
		return nil, &domain.ValidationError{Field: "reference_url", Reason: err.Error()}
	}
	data, err := prepareReference(raw)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, data, c.expiration)
	}
	return data, nil
}
