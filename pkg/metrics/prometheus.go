package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ingestTotal    *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	lastRate       *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
	forecastsTotal *prometheus.CounterVec
	sentimentCache *prometheus.CounterVec
	fusionWeight   prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ingestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxadvisor_ingest_total",
				Help: "Total number of records ingested per backend",
			},
			[]string{"backend", "pair"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxadvisor_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastRate: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxadvisor_last_rate",
				Help: "Last observed mid rate for a pair",
			},
			[]string{"pair"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxadvisor_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxadvisor_forecasts_total",
				Help: "Total forecasts served, by pair and recommendation",
			},
			[]string{"pair", "recommendation"},
		),
		sentimentCache: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxadvisor_sentiment_cache_total",
				Help: "Sentiment cache lookups by result",
			},
			[]string{"result"},
		),
		fusionWeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fxadvisor_fusion_llm_weight",
				Help: "Last LLM weight used by the fusion engine",
			},
		),
	}
}

// RecordIngest records a record ingested into a backend.
func (r *Recorder) RecordIngest(backend, pair string) {
	r.ingestTotal.WithLabelValues(backend, pair).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastRate records the last mid rate for a pair.
func (r *Recorder) RecordLastRate(pair string, rate float64) {
	r.lastRate.WithLabelValues(pair).Set(rate)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordForecast records a served forecast.
func (r *Recorder) RecordForecast(pair, recommendation string) {
	r.forecastsTotal.WithLabelValues(pair, recommendation).Inc()
}

// RecordSentimentCache records a sentiment cache hit or miss.
func (r *Recorder) RecordSentimentCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.sentimentCache.WithLabelValues(result).Inc()
}

// RecordFusionWeight records the LLM weight applied on the last fusion.
func (r *Recorder) RecordFusionWeight(llmWeight float64) {
	r.fusionWeight.Set(llmWeight)
}
