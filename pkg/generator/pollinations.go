package generator

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/shouni/prompt-image-kit/pkg/domain"
)

// PollinationsOptions は公開画像APIの設定です。
type PollinationsOptions struct {
	BaseURL   string
	Model     string
	Size      int // 縦横比は未対応のため常に Size x Size
	MaxImages int
	Timeout   time.Duration // 1枚ごとのタイムアウト
}

// PollinationsGenerator は Pollinations の公開APIで1枚ずつ画像を取得します。
// 各呼び出しは独立しており、1枚の失敗が他の枚数の生成を止めることはありません。
type PollinationsGenerator struct {
	httpClient HTTPClient
	pool       pond.Pool
	opts       PollinationsOptions
}

// NewPollinationsGenerator は PollinationsGenerator を初期化します。pool は複数リクエストで共有できます。
func NewPollinationsGenerator(httpClient HTTPClient, pool pond.Pool, opts PollinationsOptions) (*PollinationsGenerator, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultPollinationsBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultPollinationsModel
	}
	if opts.Size <= 0 {
		opts.Size = DefaultPollinationsSize
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultPollinationsMaxImages
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRequestTimeout
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &PollinationsGenerator{httpClient: httpClient, pool: pool, opts: opts}, nil
}

func (g *PollinationsGenerator) Provider() domain.Provider { return domain.ProviderFallback }

func (g *PollinationsGenerator) Capabilities() Capabilities {
	return Capabilities{
		MaxImages:    g.opts.MaxImages,
		AspectRatios: domain.AllAspectRatios,
	}
}

type pollinationsSlot struct {
	image *domain.ImageResponse
	err   error
}

// Generate は Count 回の GET をワーカープールで並行に発行します。
// 結果は完了順ではなくインデックスで格納するため、images[i] は常にシード i に対応します。
func (g *PollinationsGenerator) Generate(ctx context.Context, batch Batch) (*domain.GenerationResult, error) {
	if batch.AspectRatio != "" && batch.AspectRatio != domain.AspectSquare {
		slog.InfoContext(ctx, "Pollinationsは縦横比に未対応のため正方形で生成します", "aspect_ratio", batch.AspectRatio)
	}

	slots := make([]pollinationsSlot, batch.Count)
	group := g.pool.NewGroup()
	for i := range slots {
		group.Submit(func() {
			img, err := g.fetchOne(ctx, batch, i)
			slots[i] = pollinationsSlot{image: img, err: err}
		})
	}
	if err := group.Wait(); err != nil {
		slog.ErrorContext(ctx, "ワーカーが異常終了しました", "error", err)
	}

	res := &domain.GenerationResult{
		Prompt:       batch.Prompt,
		ProviderUsed: domain.ProviderFallback,
		Requested:    batch.Count,
	}
	for i, s := range slots {
		switch {
		case s.image != nil:
			res.Images = append(res.Images, *s.image)
		case s.err != nil:
			slog.WarnContext(ctx, "画像の取得に失敗しました", "index", i, "error", s.err)
			res.Errors = append(res.Errors, domain.ImageError{Index: i, Err: s.err})
		default:
			res.Errors = append(res.Errors, domain.ImageError{Index: i, Err: fmt.Errorf("worker did not complete")})
		}
	}
	return res, nil
}

func (g *PollinationsGenerator) fetchOne(ctx context.Context, batch Batch, i int) (*domain.ImageResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewProviderError(domain.ProviderFallback, fmt.Errorf("canceled before request: %w", err))
	}

	seed := seedAt(batch.Seed, i)
	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	data, err := fetchOnce(callCtx, g.httpClient, g.imageURL(batch.Prompt.Text, seed))
	if err != nil {
		return nil, domain.NewProviderError(domain.ProviderFallback, err)
	}

	mimeType := http.DetectContentType(data)
	if len(data) == 0 || !strings.HasPrefix(mimeType, "image/") {
		return nil, &domain.ProviderError{
			Provider: domain.ProviderFallback,
			Kind:     domain.KindMalformed,
			Message:  fmt.Sprintf("response body is not an image (detected %s, %d bytes)", mimeType, len(data)),
		}
	}

	return &domain.ImageResponse{Index: i, Data: data, MimeType: mimeType, UsedSeed: seed}, nil
}

// imageURL は GET 用のURLを組み立てます。プロンプトはパスに埋め込むためパスエスケープします。
func (g *PollinationsGenerator) imageURL(prompt string, seed int64) string {
	params := url.Values{}
	params.Set("width", strconv.Itoa(g.opts.Size))
	params.Set("height", strconv.Itoa(g.opts.Size))
	params.Set("seed", strconv.FormatInt(seed, 10))
	params.Set("model", g.opts.Model)
	params.Set("nologo", "true")
	return g.opts.BaseURL + "/prompt/" + url.PathEscape(prompt) + "?" + params.Encode()
}
