package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	sourceCalls   *prometheus.CounterVec
	sourceErrors  *prometheus.CounterVec
	cacheHits     *prometheus.CounterVec
	cacheMisses   *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	cyclesSkipped prometheus.Counter
	pacingBlocked prometheus.Counter
	lastScore     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		sourceCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpulse_source_calls_total",
				Help: "Total number of candle fetch calls per data source",
			},
			[]string{"source"},
		),
		sourceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpulse_source_errors_total",
				Help: "Total number of failed candle fetches per data source",
			},
			[]string{"source", "kind"},
		),
		cacheHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpulse_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache"},
		),
		cacheMisses: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpulse_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sigpulse_signals_total",
				Help: "Total number of evaluations by resulting action",
			},
			[]string{"action"},
		),
		cyclesSkipped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sigpulse_cycles_skipped_total",
				Help: "Total number of evaluation cycles skipped because a prior cycle was running",
			},
		),
		pacingBlocked: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "sigpulse_pacing_rejections_total",
				Help: "Total number of signals rejected by the hourly pacing limit",
			},
		),
		lastScore: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sigpulse_last_final_score",
				Help: "Final score of the most recent evaluation for a pair",
			},
			[]string{"pair"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sigpulse_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordSourceCall records a fetch attempt against a data source.
func (r *Recorder) RecordSourceCall(source string) {
	r.sourceCalls.WithLabelValues(source).Inc()
}

// RecordSourceError records a failed fetch against a data source.
func (r *Recorder) RecordSourceError(source, kind string) {
	r.sourceErrors.WithLabelValues(source, kind).Inc()
}

// RecordCacheHit records a hit on the named cache.
func (r *Recorder) RecordCacheHit(cache string) {
	r.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a miss on the named cache.
func (r *Recorder) RecordCacheMiss(cache string) {
	r.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordSignal records the action produced by an evaluation.
func (r *Recorder) RecordSignal(action string) {
	r.signalsTotal.WithLabelValues(action).Inc()
}

// RecordCycleSkipped records an evaluation cycle skipped due to overlap.
func (r *Recorder) RecordCycleSkipped() {
	r.cyclesSkipped.Inc()
}

// RecordPacingRejection records a signal dropped by the pacing limiter.
func (r *Recorder) RecordPacingRejection() {
	r.pacingBlocked.Inc()
}

// RecordFinalScore records the final score of the latest evaluation.
func (r *Recorder) RecordFinalScore(pair string, score float64) {
	r.lastScore.WithLabelValues(pair).Set(score)
}

// RecordStageLatency records pipeline stage latency in seconds.
func (r *Recorder) RecordStageLatency(stage string, seconds float64) {
	r.latency.WithLabelValues(stage).Observe(seconds)
}
