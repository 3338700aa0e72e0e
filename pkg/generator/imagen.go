package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/prompt-image-kit/pkg/domain"
	"google.golang.org/genai"
)

// ImagenOptions はホスト型プロバイダーの設定です。
type ImagenOptions struct {
	Model          string // テキストのみの生成に使う Imagen モデル
	ContentModel   string // 参照画像付きの生成に使う Gemini 画像モデル
	MaxImages      int
	NegativePrompt bool // Gemini API バックエンドでは未対応のため既定は false
	SafetyFilter   bool
	SafetyLevel    domain.SafetyLevel // リクエストで未指定の場合に使う強度
	Timeout        time.Duration      // 0 以下なら呼び出し側の ctx のみに従う
}

// ImagenGenerator は Google のホスト型画像モデルで画像を生成するのだ。
type ImagenGenerator struct {
	models ImageModel
	opts   ImagenOptions
}

// NewImagenGenerator は ImagenGenerator を初期化するのだ。
func NewImagenGenerator(models ImageModel, opts ImagenOptions) (*ImagenGenerator, error) {
	if models == nil {
		return nil, fmt.Errorf("models (ImageModel) is required")
	}
	if opts.Model == "" {
		opts.Model = DefaultImagenModel
	}
	if opts.ContentModel == "" {
		opts.ContentModel = DefaultImagenContentModel
	}
	if opts.MaxImages <= 0 {
		opts.MaxImages = DefaultImagenMaxImages
	}
	return &ImagenGenerator{models: models, opts: opts}, nil
}

func (g *ImagenGenerator) Provider() domain.Provider { return domain.ProviderPrimary }

func (g *ImagenGenerator) Capabilities() Capabilities {
	return Capabilities{
		MaxImages:         g.opts.MaxImages,
		AspectRatios:      domain.AllAspectRatios,
		NativeAspectRatio: true,
		NegativePrompt:    g.opts.NegativePrompt,
		SafetyFilter:      g.opts.SafetyFilter,
		ReferenceImage:    true,
	}
}

// Generate は1回の呼び出しで Count 枚をまとめて生成するのだ。
// 呼び出し自体が失敗した場合はリクエスト全体を失敗として ProviderError を返すのだ。
func (g *ImagenGenerator) Generate(ctx context.Context, batch Batch) (*domain.GenerationResult, error) {
	var (
		images   []domain.ImageResponse
		failures []domain.ImageError
		err      error
	)
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}
	if len(batch.Reference) > 0 {
		images, failures, err = g.generateWithReference(ctx, batch)
	} else {
		images, failures, err = g.generateImages(ctx, batch)
	}
	if err != nil {
		return nil, domain.NewProviderError(domain.ProviderPrimary, err)
	}

	return &domain.GenerationResult{
		Prompt:       batch.Prompt,
		ProviderUsed: domain.ProviderPrimary,
		Requested:    batch.Count,
		Images:       images,
		Errors:       failures,
	}, nil
}

func (g *ImagenGenerator) generateImages(ctx context.Context, batch Batch) ([]domain.ImageResponse, []domain.ImageError, error) {
	cfg := &genai.GenerateImagesConfig{
		NumberOfImages:   int32(batch.Count),
		AspectRatio:      string(batch.AspectRatio),
		IncludeRAIReason: true,
	}
	if g.opts.NegativePrompt && batch.Prompt.Negative != "" {
		cfg.NegativePrompt = batch.Prompt.Negative
	}
	level := batch.SafetyLevel
	if level == "" {
		level = g.opts.SafetyLevel
	}
	if g.opts.SafetyFilter && level != "" {
		cfg.SafetyFilterLevel = safetyFilterLevel(level)
	}

	slog.InfoContext(ctx, "Imagen画像生成をリクエストします", "model", g.opts.Model, "count", batch.Count, "aspect_ratio", batch.AspectRatio)
	resp, err := g.models.GenerateImages(ctx, g.opts.Model, batch.Prompt.Text, cfg)
	if err != nil {
		return nil, nil, err
	}
	return parseImagesResponse(resp, batch.Count)
}

// generateWithReference はプロンプト、参照画像の順でパーツを並べて Gemini に送るのだ。
func (g *ImagenGenerator) generateWithReference(ctx context.Context, batch Batch) ([]domain.ImageResponse, []domain.ImageError, error) {
	parts := []*genai.Part{{Text: batch.Prompt.Text}}
	if imgPart := toPart(batch.Reference); imgPart != nil {
		parts = append(parts, imgPart)
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: string(batch.AspectRatio)},
	}
	if batch.Count > 1 {
		cfg.CandidateCount = int32(batch.Count)
	}

	slog.InfoContext(ctx, "Gemini参照画像付き生成をリクエストします", "model", g.opts.ContentModel, "total_parts", len(parts), "count", batch.Count)
	resp, err := g.models.GenerateContent(ctx, g.opts.ContentModel, contents, cfg)
	if err != nil {
		return nil, nil, err
	}
	return parseContentResponse(resp, batch.Count)
}
