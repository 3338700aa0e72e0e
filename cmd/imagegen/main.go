package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alitto/pond/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"

	"github.com/shouni/prompt-image-kit/pkg/config"
	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/shouni/prompt-image-kit/pkg/gallery"
	"github.com/shouni/prompt-image-kit/pkg/generator"
	"github.com/shouni/prompt-image-kit/pkg/prompt"
	"github.com/shouni/prompt-image-kit/pkg/server"
)

func main() {
	configFile := flag.String("config", "", "YAML config file")
	envFile := flag.String("env", "", ".env file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config.Options{ConfigFile: *configFile, EnvFile: *envFile}); err != nil {
		slog.Error("サーバーが異常終了しました", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts config.Options) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	// 参照画像URLの取得は常にSSRF対策付きのクライアントで行う
	refClient := httpkit.New(cfg.Pollinations.Timeout)

	builder, err := prompt.NewBuilder(prompt.DefaultStyleTable())
	if err != nil {
		return err
	}

	var generators []generator.ImageGenerator

	if cfg.ImagenEnabled() {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.Imagen.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return err
		}
		imagen, err := generator.NewImagenGenerator(client.Models, generator.ImagenOptions{
			Model:          cfg.Imagen.Model,
			ContentModel:   cfg.Imagen.ContentModel,
			MaxImages:      cfg.Imagen.MaxImages,
			NegativePrompt: cfg.Imagen.NegativePrompt,
			SafetyFilter:   cfg.Imagen.SafetyFilter,
			SafetyLevel:    domain.SafetyLevel(cfg.Imagen.SafetyLevel),
			Timeout:        cfg.Imagen.Timeout,
		})
		if err != nil {
			return err
		}
		generators = append(generators, imagen)
	} else {
		slog.Warn("APIキーが未設定のため Imagen は利用できません", "env", "GEMINI_API_KEY")
	}

	if cfg.Pollinations.Enabled {
		pool := pond.NewPool(cfg.Pollinations.Workers)
		defer pool.StopAndWait()

		pollinations, err := generator.NewPollinationsGenerator(newPollinationsClient(cfg.Pollinations), pool, generator.PollinationsOptions{
			BaseURL:   cfg.Pollinations.BaseURL,
			Model:     cfg.Pollinations.Model,
			Size:      cfg.Pollinations.Size,
			MaxImages: cfg.Pollinations.MaxImages,
			Timeout:   cfg.Pollinations.Timeout,
		})
		if err != nil {
			return err
		}
		generators = append(generators, pollinations)
	}

	core, err := generator.NewImageCore(refClient, generator.NewLRUCache(cfg.Cache.Size, cfg.Cache.TTL), cfg.Cache.TTL)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := server.NewMetrics(reg)

	dispatcher, err := generator.NewDispatcher(builder, generators,
		generator.WithImageCore(core),
		generator.WithObserver(metrics),
	)
	if err != nil {
		return err
	}
	slog.Info("プロバイダーを構成しました", "providers", dispatcher.Providers())

	srv, err := server.New(
		dispatcher,
		dispatcher.Styles().Keys(),
		gallery.New(cfg.Server.GalleryLimit),
		reg,
		int64(cfg.Server.BodyLimitMB)<<20,
	)
	if err != nil {
		return err
	}
	return srv.Listen(ctx, cfg.Server.ListenAddr, cfg.Server.ShutdownTimeout)
}

// newPollinationsClient は公開画像API用のクライアントを返します。
// allow_private_network が有効な場合のみ、ループバックやプライベートアドレスへの接続を許可します。
func newPollinationsClient(cfg config.PollinationsConfig) *httpkit.Client {
	if cfg.AllowPrivateNetwork {
		slog.Warn("Pollinations のネットワーク検証を無効にしました", "base_url", cfg.BaseURL)
		return httpkit.New(cfg.Timeout, httpkit.WithSkipNetworkValidation(true))
	}

	client := httpkit.New(cfg.Timeout)
	if safe, err := client.IsSafeURL(cfg.BaseURL); !safe {
		slog.Warn("pollinations.base_url への接続は拒否されます。自前のエンドポイントなら pollinations.allow_private_network を有効にしてください",
			"base_url", cfg.BaseURL, "error", err)
	}
	return client
}
