// Package metrics exposes flight computer counters in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/helium/internal/scheduler"
)

// Collector owns a private registry so tests and multiple instances never
// collide on the default one.
type Collector struct {
	reg *prometheus.Registry

	jobRuns     *prometheus.CounterVec
	jobFailures *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec

	sentences       *prometheus.CounterVec
	sentenceErrors  prometheus.Counter
	sinkFailures    *prometheus.CounterVec
	poolDrops       prometheus.Counter
	mode            prometheus.Gauge
	gpsOwner        prometheus.Gauge
	historyAltitude prometheus.Gauge
}

// NewCollector creates and registers every metric.
func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_job_runs_total",
			Help: "Scheduled job invocations",
		}, []string{"job"}),
		jobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_job_failures_total",
			Help: "Scheduled job invocations that returned an error",
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "helium_job_duration_seconds",
			Help:    "Time spent inside a scheduled job on the control loop",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		sentences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_nmea_sentences_total",
			Help: "NMEA sentences decoded, by type",
		}, []string{"type"}),
		sentenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helium_nmea_sentence_errors_total",
			Help: "NMEA sentences rejected by the parser",
		}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "helium_sink_failures_total",
			Help: "Snapshots that could not be persisted",
		}, []string{"kind"}),
		poolDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "helium_pool_rejected_total",
			Help: "Background reads rejected because the worker queue was full",
		}),
		mode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helium_flight_mode",
			Help: "Current flight mode (0 preflight, 1 start, 2 ascent, 3 descent)",
		}),
		gpsOwner: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helium_gps_owner",
			Help: "GPS channel owner (0 ground tracker, 1 flight computer)",
		}),
		historyAltitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "helium_baro_altitude_meters",
			Help: "Latest barometric altitude",
		}),
	}
	c.reg.MustRegister(
		c.jobRuns, c.jobFailures, c.jobDuration,
		c.sentences, c.sentenceErrors,
		c.sinkFailures, c.poolDrops,
		c.mode, c.gpsOwner, c.historyAltitude,
	)
	return c
}

// JobRan implements scheduler.Observer.
func (c *Collector) JobRan(id scheduler.JobID, took time.Duration, err error) {
	c.jobRuns.WithLabelValues(string(id)).Inc()
	c.jobDuration.WithLabelValues(string(id)).Observe(took.Seconds())
	if err != nil {
		c.jobFailures.WithLabelValues(string(id)).Inc()
	}
}

// Sentence counts a decoded sentence, or a rejected one when err is set.
func (c *Collector) Sentence(typ string, err error) {
	if err != nil {
		c.sentenceErrors.Inc()
		return
	}
	c.sentences.WithLabelValues(typ).Inc()
}

// SinkFailed counts a snapshot of the given kind ("sensors", "fix") that
// could not be persisted.
func (c *Collector) SinkFailed(kind string) {
	c.sinkFailures.WithLabelValues(kind).Inc()
}

// PoolRejected counts a background task the worker pool would not accept.
func (c *Collector) PoolRejected() {
	c.poolDrops.Inc()
}

// SetMode records the current flight mode ordinal.
func (c *Collector) SetMode(mode int) {
	c.mode.Set(float64(mode))
}

// SetGPSOwner records the current GPS channel owner ordinal.
func (c *Collector) SetGPSOwner(owner int) {
	c.gpsOwner.Set(float64(owner))
}

// SetAltitude records the latest barometric altitude.
func (c *Collector) SetAltitude(m float64) {
	c.historyAltitude.Set(m)
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
