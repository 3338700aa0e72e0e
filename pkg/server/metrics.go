package server

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shouni/prompt-image-kit/pkg/domain"
)

// Metrics は生成結果の Prometheus メトリクスです。generator.Observer を満たします。
type Metrics struct {
	requests *prometheus.CounterVec
	images   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics はメトリクスを生成して reg に登録します。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagegen_requests_total",
			Help: "Generation requests by provider and terminal state.",
		}, []string{"provider", "state"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "imagegen_images_total",
			Help: "Image slots by provider and outcome.",
		}, []string{"provider", "success"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "imagegen_request_duration_seconds",
			Help:    "Provider call latency.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"provider"}),
	}
	reg.MustRegister(m.requests, m.images, m.duration)
	return m
}

func (m *Metrics) ObserveGeneration(p domain.Provider, s domain.State, images, failures int, elapsed time.Duration) {
	m.requests.WithLabelValues(string(p), string(s)).Inc()
	m.images.WithLabelValues(string(p), strconv.FormatBool(true)).Add(float64(images))
	m.images.WithLabelValues(string(p), strconv.FormatBool(false)).Add(float64(failures))
	m.duration.WithLabelValues(string(p)).Observe(elapsed.Seconds())
}
