// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェア、上流クライアント、サービス層から利用する。
type MetricsCollector interface {
	RecordHTTPRequest(route, method string, statusCode int, duration time.Duration)
	ObserveUpstream(endpoint, outcome string, duration time.Duration)
	RecordFavoriteMutation(op, outcome string)
	RecordUserUpsert(outcome string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests      *prometheus.CounterVec
	httpLatency       *prometheus.HistogramVec
	upstreamCalls     *prometheus.CounterVec
	upstreamLatency   *prometheus.HistogramVec
	favoriteMutations *prometheus.CounterVec
	userUpserts       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feinime_http_requests_total",
			Help: "ルート、メソッド、ステータスコード別のリクエスト数",
		}, []string{"route", "method", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feinime_http_request_duration_seconds",
			Help:    "リクエスト処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feinime_upstream_requests_total",
			Help: "上流プロバイダー呼び出しの結果別件数",
		}, []string{"endpoint", "outcome"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "feinime_upstream_latency_seconds",
			Help:    "上流プロバイダー呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		favoriteMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feinime_favorite_mutations_total",
			Help: "お気に入りの追加・削除の結果別件数",
		}, []string{"op", "outcome"}),
		userUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "feinime_user_upserts_total",
			Help: "ユーザー保存の結果別件数",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.upstreamCalls,
		c.upstreamLatency,
		c.favoriteMutations,
		c.userUpserts,
	)

	return c
}

// RecordHTTPRequest はリクエスト1件の結果と処理時間を記録する。
// routeにはchiのルートパターンを渡し、ラベルの濃度を抑える。
func (c *Collector) RecordHTTPRequest(route, method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(route, method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(route, method).Observe(duration.Seconds())
}

// ObserveUpstream は上流呼び出しの結果を記録する。
func (c *Collector) ObserveUpstream(endpoint, outcome string, duration time.Duration) {
	c.upstreamCalls.WithLabelValues(endpoint, outcome).Inc()
	c.upstreamLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordFavoriteMutation はお気に入り更新の結果を記録する。
func (c *Collector) RecordFavoriteMutation(op, outcome string) {
	c.favoriteMutations.WithLabelValues(op, outcome).Inc()
}

// RecordUserUpsert はユーザー保存の結果を記録する。
func (c *Collector) RecordUserUpsert(outcome string) {
	c.userUpserts.WithLabelValues(outcome).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

var _ MetricsCollector = (*Collector)(nil)
