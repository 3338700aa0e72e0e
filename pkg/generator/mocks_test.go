package generator

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/prompt-image-kit/pkg/domain"
	"google.golang.org/genai"
)

// --- Mocks ---

type mockImageModel struct {
	mu           sync.Mutex
	imagesCalls  int
	contentCalls int

	generateImagesFunc  func(ctx context.Context, model, prompt string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
	generateContentFunc func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockImageModel) GenerateImages(ctx context.Context, model string, prompt string, cfg *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	m.mu.Lock()
	m.imagesCalls++
	m.mu.Unlock()
	if m.generateImagesFunc != nil {
		return m.generateImagesFunc(ctx, model, prompt, cfg)
	}
	return imagesResponse(int(cfg.NumberOfImages)), nil
}

func (m *mockImageModel) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.mu.Lock()
	m.contentCalls++
	m.mu.Unlock()
	if m.generateContentFunc != nil {
		return m.generateContentFunc(ctx, model, contents, cfg)
	}
	return nil, nil
}

func (m *mockImageModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.imagesCalls + m.contentCalls
}

// mockHTTPClient は HTTPClient のモックなのだ。
// statusFunc が 2xx 以外を返した URL にはそのステータスで応答し、それ以外は fetchFunc の結果を 200 で返すのだ。
type mockHTTPClient struct {
	mu         sync.Mutex
	urls       []string
	fetchFunc  func(ctx context.Context, url string) ([]byte, error)
	statusFunc func(url string) int
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	u := req.URL.String()
	m.mu.Lock()
	m.urls = append(m.urls, u)
	m.mu.Unlock()

	if m.statusFunc != nil {
		if code := m.statusFunc(u); code != 0 && code != http.StatusOK {
			return newResponse(code, []byte(http.StatusText(code))), nil
		}
	}
	data := testPNG(1)
	if m.fetchFunc != nil {
		var err error
		if data, err = m.fetchFunc(req.Context(), u); err != nil {
			return nil, err
		}
	}
	return newResponse(http.StatusOK, data), nil
}

// IsSafeURL は本物の httpkit クライアントの判定に委ねるのだ。
func (m *mockHTTPClient) IsSafeURL(urlStr string) (bool, error) {
	return httpkit.New(time.Second).IsSafeURL(urlStr)
}

func (m *mockHTTPClient) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.urls...)
}

type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

// mockGenerator は ImageGenerator のモックなのだ。
type mockGenerator struct {
	provider domain.Provider
	caps     Capabilities

	mu       sync.Mutex
	batches  []Batch
	generate func(ctx context.Context, batch Batch) (*domain.GenerationResult, error)
}

func (m *mockGenerator) Provider() domain.Provider  { return m.provider }
func (m *mockGenerator) Capabilities() Capabilities { return m.caps }

func (m *mockGenerator) Generate(ctx context.Context, batch Batch) (*domain.GenerationResult, error) {
	m.mu.Lock()
	m.batches = append(m.batches, batch)
	m.mu.Unlock()
	if m.generate != nil {
		return m.generate(ctx, batch)
	}
	res := &domain.GenerationResult{ProviderUsed: m.provider}
	for i := 0; i < batch.Count; i++ {
		res.Images = append(res.Images, domain.ImageResponse{Index: i, Data: testPNG(uint8(i)), MimeType: "image/png"})
	}
	return res, nil
}

func (m *mockGenerator) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

type recordingObserver struct {
	mu     sync.Mutex
	states []domain.State
}

func (o *recordingObserver) ObserveGeneration(p domain.Provider, s domain.State, images, failures int, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, s)
}

// --- Helpers ---

// testPNG は shade で塗りつぶした 4x4 の PNG を返すのだ。
func testPNG(shade uint8) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{shade, 0, 255 - shade, 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func newResponse(code int, body []byte) *http.Response {
	return &http.Response{
		StatusCode:    code,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        make(http.Header),
	}
}

// countingDoer は常に同じステータスを返し、呼び出し回数を数える httpkit.Doer なのだ。
type countingDoer struct {
	mu     sync.Mutex
	status int
	count  int
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.mu.Lock()
	d.count++
	d.mu.Unlock()
	return newResponse(d.status, []byte("upstream says "+http.StatusText(d.status))), nil
}

func (d *countingDoer) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// newRealHTTPClient は Doer だけを差し替えた本物の httpkit クライアントなのだ。
func newRealHTTPClient(doer httpkit.Doer) *httpkit.Client {
	return httpkit.New(time.Second, httpkit.WithHTTPClient(doer), httpkit.WithSkipNetworkValidation(true))
}

func imagesResponse(n int) *genai.GenerateImagesResponse {
	resp := &genai.GenerateImagesResponse{}
	for i := 0; i < n; i++ {
		resp.GeneratedImages = append(resp.GeneratedImages, &genai.GeneratedImage{
			Image: &genai.Image{ImageBytes: testPNG(uint8(i)), MIMEType: "image/png"},
		})
	}
	return resp
}

func requireProviderError(t *testing.T, err error) *domain.ProviderError {
	t.Helper()
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	return pe
}
