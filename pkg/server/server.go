package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shouni/prompt-image-kit/pkg/domain"
	"github.com/shouni/prompt-image-kit/pkg/gallery"
	"github.com/shouni/prompt-image-kit/pkg/generator"
	"github.com/shouni/prompt-image-kit/pkg/imgutil"
)

// Dispatcher はサーバーが利用する生成窓口です。*generator.Dispatcher が満たします。
type Dispatcher interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResult, error)
	Providers() []domain.Provider
	Capabilities(p domain.Provider) (generator.Capabilities, bool)
}

// Server はフォーム入力を受け取り生成結果を返す、薄いHTTPシェルです。
type Server struct {
	dispatcher Dispatcher
	styles     []domain.StyleKey
	gallery    *gallery.Gallery
	gatherer   prometheus.Gatherer
	bodyLimit  int64
	router     *gin.Engine
}

// New は Server を生成します。gatherer が nil の場合 /metrics は公開しません。
func New(dispatcher Dispatcher, styles []domain.StyleKey, g *gallery.Gallery, gatherer prometheus.Gatherer, bodyLimit int64) (*Server, error) {
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if g == nil {
		return nil, fmt.Errorf("gallery is required")
	}
	s := &Server{
		dispatcher: dispatcher,
		styles:     styles,
		gallery:    g,
		gatherer:   gatherer,
		bodyLimit:  bodyLimit,
	}
	s.router = s.generateRouter()
	return s, nil
}

// Handler は http.Handler を返します。
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) generateRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.POST("/generate", s.handleGenerate)
	api.GET("/styles", s.handleStyles)
	api.GET("/providers", s.handleProviders)
	api.GET("/gallery", s.handleGalleryList)
	api.GET("/gallery/:id/download", s.handleGalleryDownload)
	api.DELETE("/gallery", s.handleGalleryClear)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "providers": s.dispatcher.Providers()})
	})
	if s.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

// Listen は addr で待ち受け、ctx がキャンセルされると shutdownTimeout 以内に停止します。
func (s *Server) Listen(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTPサーバーを起動します", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		if shutdownTimeout <= 0 {
			shutdownTimeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("サーバーの停止に失敗しました: %w", err)
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleGenerate(c *gin.Context) {
	if s.bodyLimit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.bodyLimit)
	}

	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, &domain.ValidationError{Reason: fmt.Sprintf("invalid request body: %v", err)}, "")
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(c, err, "")
		return
	}

	res, err := s.dispatcher.Generate(c.Request.Context(), req)
	if err != nil {
		requestID := ""
		if res != nil {
			requestID = res.RequestID
		}
		writeError(c, err, requestID)
		return
	}

	saved := s.gallery.Add(res)
	c.JSON(http.StatusOK, newResultDTO(res, saved))
}

func (s *Server) handleStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"styles": s.styles, "aspect_ratios": domain.AllAspectRatios})
}

func (s *Server) handleProviders(c *gin.Context) {
	out := make([]gin.H, 0, 2)
	for _, p := range s.dispatcher.Providers() {
		caps, _ := s.dispatcher.Capabilities(p)
		out = append(out, gin.H{"id": p, "name": p.DisplayName(), "capabilities": caps})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

func (s *Server) handleGalleryList(c *gin.Context) {
	entries := s.gallery.List()
	out := make([]galleryEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, galleryEntryDTO{
			ID:        e.ID,
			RequestID: e.RequestID,
			Prompt:    e.Prompt,
			Provider:  string(e.Provider),
			Caption:   e.Caption,
			FileName:  e.FileName,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"images": out})
}

func (s *Server) handleGalleryDownload(c *gin.Context) {
	entry, err := s.gallery.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, errorDTO{Error: err.Error(), Kind: "not_found"})
		return
	}

	data, err := imgutil.ToPNG(entry.Image.Data)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "PNGへの変換に失敗しました", "id", entry.ID, "error", err)
		c.JSON(http.StatusInternalServerError, errorDTO{Error: err.Error(), Kind: "encode"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.FileName))
	c.Data(http.StatusOK, "image/png", data)
}

func (s *Server) handleGalleryClear(c *gin.Context) {
	s.gallery.Clear()
	c.Status(http.StatusNoContent)
}

// writeError はエラーの種類に応じたステータスコードで、原因を含むJSONを返します。
func writeError(c *gin.Context, err error, requestID string) {
	var (
		ve *domain.ValidationError
		ce *domain.ConfigurationError
		pe *domain.ProviderError
	)
	body := errorDTO{Error: err.Error(), Request: requestID}
	status := http.StatusInternalServerError

	switch {
	case errors.As(err, &ve):
		status, body.Kind, body.Field = http.StatusBadRequest, "validation", ve.Field
	case errors.As(err, &ce):
		status, body.Kind = http.StatusServiceUnavailable, "configuration"
	case errors.As(err, &pe):
		status, body.Kind = http.StatusBadGateway, "provider_"+string(pe.Kind)
	case errors.Is(err, context.Canceled):
		status, body.Kind = 499, "canceled"
	default:
		body.Kind = "internal"
	}

	slog.WarnContext(c.Request.Context(), "リクエストを処理できませんでした", "status", status, "kind", body.Kind, "error", err)
	c.JSON(status, body)
}
