package generator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/shouni/prompt-image-kit/pkg/prompt"
)

// Dispatcher はプロンプトを組み立て、リクエストで指定されたプロバイダーに処理を振り分けます。
// プロバイダー間の自動フォールバックは行いません。
type Dispatcher struct {
	builder    *prompt.Builder
	core       *ImageCore
	generators map[domain.Provider]ImageGenerator
	observer   Observer
	newID      func() string
}

// Option は Dispatcher の任意設定です。
type Option func(*Dispatcher)

// WithImageCore は ReferenceURL の取得に使う ImageCore を設定します。
func WithImageCore(core *ImageCore) Option {
	return func(d *Dispatcher) { d.core = core }
}

// WithObserver は生成結果の観測フックを設定します。
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// NewDispatcher は Builder と利用可能なプロバイダーを注入して Dispatcher を生成します。
// APIキーが無いなどで構成できなかったプロバイダーは generators に含めません。
func NewDispatcher(builder *prompt.Builder, generators []ImageGenerator, opts ...Option) (*Dispatcher, error) {
	if builder == nil {
		return nil, fmt.Errorf("builder is required")
	}
	d := &Dispatcher{
		builder:    builder,
		generators: make(map[domain.Provider]ImageGenerator, len(generators)),
		newID:      func() string { return uuid.NewString() },
	}
	for _, g := range generators {
		if g == nil {
			continue
		}
		if _, dup := d.generators[g.Provider()]; dup {
			return nil, fmt.Errorf("duplicate generator for provider %s", g.Provider())
		}
		d.generators[g.Provider()] = g
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Providers は構成済みのプロバイダーを返します。
func (d *Dispatcher) Providers() []domain.Provider {
	out := make([]domain.Provider, 0, len(d.generators))
	for p := range d.generators {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Capabilities は指定プロバイダーの対応機能を返します。
func (d *Dispatcher) Capabilities(p domain.Provider) (Capabilities, bool) {
	g, ok := d.generators[p]
	if !ok {
		return Capabilities{}, false
	}
	return g.Capabilities(), true
}

// Styles はプロンプト組み立てに使う画風の対応表を返します。
func (d *Dispatcher) Styles() prompt.StyleTable {
	return d.builder.Styles()
}

// Generate は1リクエスト分の生成を同期的に行います。
// 検証エラーはネットワーク呼び出しの前に返し、ホスト型モデルの失敗は ProviderError としてそのまま返します。
func (d *Dispatcher) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error) {
	return d.run(ctx, req, nil)
}

// Submit は生成をバックグラウンドで開始し、停止や待機に使う Generation を返します。
func (d *Dispatcher) Submit(ctx context.Context, req domain.GenerationRequest) *Generation {
	ctx, cancel := context.WithCancel(ctx)
	gen := newGeneration(cancel)
	go func() {
		defer cancel()
		res, err := d.run(ctx, req, gen.setState)
		gen.finish(res, err)
	}()
	return gen
}

func (d *Dispatcher) run(ctx context.Context, req domain.GenerationRequest, onState func(domain.State)) (*domain.GenerationResult, error) {
	if onState == nil {
		onState = func(domain.State) {}
	}

	p, err := d.builder.BuildPrompt(req.RawPrompt, req.Style, req.NegativePrompt)
	if err != nil {
		onState(domain.StateFailed)
		return nil, err
	}

	gen, ok := d.generators[req.Provider]
	if !ok {
		onState(domain.StateFailed)
		if req.Provider == "" {
			return nil, &domain.ValidationError{Field: "provider", Reason: "provider must be selected"}
		}
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("provider %s is not configured (is the API key set?)", req.Provider)}
	}

	ar := req.AspectRatio
	if ar == "" {
		ar = domain.AspectSquare
	}
	caps := gen.Capabilities()
	if err := caps.Validate(req.ImageCount, ar); err != nil {
		onState(domain.StateFailed)
		return nil, err
	}

	reference, err := d.loadReference(ctx, req, caps)
	if err != nil {
		onState(domain.StateFailed)
		return nil, err
	}

	if req.NegativePrompt != "" && !caps.NegativePrompt {
		slog.InfoContext(ctx, "このプロバイダーはネガティブプロンプトに未対応のため無視します", "provider", req.Provider)
	}

	batch := Batch{
		Prompt:      p,
		AspectRatio: ar,
		Count:       req.ImageCount,
		SafetyLevel: req.SafetyLevel,
		Seed:        req.Seed,
		Reference:   reference,
	}

	requestID := d.newID()
	onState(domain.StateInFlight)
	slog.InfoContext(ctx, "画像生成を開始します", "request_id", requestID, "provider", req.Provider, "count", req.ImageCount)
	start := time.Now()

	res, err := gen.Generate(ctx, batch)
	elapsed := time.Since(start)
	if err != nil {
		slog.WarnContext(ctx, "画像生成に失敗しました", "request_id", requestID, "provider", req.Provider, "error", err)
		d.observe(req.Provider, domain.StateFailed, 0, req.ImageCount, elapsed)
		onState(domain.StateFailed)
		return &domain.GenerationResult{
			RequestID:    requestID,
			Prompt:       p,
			ProviderUsed: req.Provider,
			Requested:    req.ImageCount,
			State:        domain.StateFailed,
		}, err
	}

	res.RequestID = requestID
	res.Prompt = p
	res.ProviderUsed = gen.Provider()
	res.Requested = req.ImageCount
	res.Sort()
	res.State = domain.StateCompleted
	if len(res.Images) == 0 {
		res.State = domain.StateFailed
	}

	d.observe(res.ProviderUsed, res.State, len(res.Images), len(res.Errors), elapsed)
	onState(res.State)
	slog.InfoContext(ctx, "画像生成が完了しました", "request_id", requestID, "provider", res.ProviderUsed,
		"images", len(res.Images), "failures", len(res.Errors), "elapsed", elapsed)

	if err := ctx.Err(); err != nil {
		return res, fmt.Errorf("generation stopped: %w", err)
	}
	return res, nil
}

// loadReference は参照画像に対応したプロバイダーの場合のみ参照画像を読み込みます。
// 未対応のプロバイダーでは失敗させずに無視します。
func (d *Dispatcher) loadReference(ctx context.Context, req domain.GenerationRequest, caps Capabilities) ([]byte, error) {
	if !req.HasReference() {
		return nil, nil
	}
	if !caps.ReferenceImage {
		slog.InfoContext(ctx, "このプロバイダーは参照画像に未対応のため無視します", "provider", req.Provider)
		return nil, nil
	}
	if d.core != nil {
		return d.core.LoadReference(ctx, req)
	}
	if len(req.ReferenceImage) > 0 {
		return prepareReference(req.ReferenceImage)
	}
	return nil, &domain.ConfigurationError{Reason: "reference URLs are not supported without an image loader"}
}

func (d *Dispatcher) observe(p domain.Provider, s domain.State, images, failures int, elapsed time.Duration) {
	if d.observer != nil {
		d.observer.ObserveGeneration(p, s, images, failures, elapsed)
	}
}
