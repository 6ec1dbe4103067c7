package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// 予約作成・取消の結果ラベル
const (
	StatusSuccess    = "success"
	StatusInvalid    = "invalid"
	StatusConflict   = "conflict"
	StatusLockFailed = "lock_failed"
	StatusNotFound   = "not_found"
	StatusPast       = "past"
	StatusError      = "error"
)

// Metrics はアプリケーションのメトリクスを管理する
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約作成の試行数（status）
	ReservationsTotal *prometheus.CounterVec

	// 予約取消の試行数（status）
	CancellationsTotal *prometheus.CounterVec

	// 予約枠ロックの操作時間（operation: acquire/release, status: success/failed）
	SlotLockDuration *prometheus.HistogramVec

	// 予約一覧キャッシュの参照結果（result: hit/miss/error）
	ScheduleCacheRequests *prometheus.CounterVec

	// 期限切れとして削除した予約数
	PurgedReservationsTotal prometheus.Counter
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ReservationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "room_reservations_total",
				Help: "Total number of room reservation attempts",
			},
			[]string{"status"},
		),
		CancellationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "room_reservation_cancellations_total",
				Help: "Total number of room reservation cancellation attempts",
			},
			[]string{"status"},
		),
		SlotLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slot_lock_duration_seconds",
				Help:    "Time spent on room slot lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		ScheduleCacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schedule_cache_requests_total",
				Help: "Schedule cache lookups by result",
			},
			[]string{"result"},
		),
		PurgedReservationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "purged_reservations_total",
				Help: "Total number of elapsed reservations purged",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReservationsTotal,
		m.CancellationsTotal,
		m.SlotLockDuration,
		m.ScheduleCacheRequests,
		m.PurgedReservationsTotal,
	)

	return m
}

// 以下の記録メソッドは nil レシーバでは何もしない

// ObserveReservation は予約作成の結果を記録する
func (m *Metrics) ObserveReservation(status string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(status).Inc()
}

// ObserveCancellation は予約取消の結果を記録する
func (m *Metrics) ObserveCancellation(status string) {
	if m == nil {
		return
	}
	m.CancellationsTotal.WithLabelValues(status).Inc()
}

// ObserveLock はロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = "failed"
	}
	m.SlotLockDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ObserveCache はキャッシュ参照結果を記録する
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.ScheduleCacheRequests.WithLabelValues(result).Inc()
}

// AddPurged は削除件数を加算する
func (m *Metrics) AddPurged(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PurgedReservationsTotal.Add(float64(n))
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す
func Get() *Metrics {
	return defaultMetrics
}
