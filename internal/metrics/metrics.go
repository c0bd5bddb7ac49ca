package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	FeedsIngested prometheus.Counter
	FeedsFailed   prometheus.Counter

	RowsWritten      *prometheus.CounterVec // table label
	StopTimesDropped *prometheus.CounterVec // reason label: orphan|untimed

	FetchDuration  prometheus.Histogram
	IngestDuration prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		FeedsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_feeds_ingested_total",
			Help: "Feeds whose partitions were replaced successfully.",
		}),
		FeedsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_feeds_failed_total",
			Help: "Feeds that failed to ingest.",
		}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_rows_written_total",
			Help: "Rows written per canonical table.",
		}, []string{"table"}),
		StopTimesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_stop_times_dropped_total",
			Help: "stop_time rows dropped during normalization.",
		}, []string{"reason"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_fetch_duration_seconds",
			Help:    "Duration of feed bundle fetches.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_feed_duration_seconds",
			Help:    "Duration of one feed's normalize-and-write cycle.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ingest_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ingest_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.FeedsIngested, c.FeedsFailed,
		c.RowsWritten, c.StopTimesDropped,
		c.FetchDuration, c.IngestDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
	)
	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}
