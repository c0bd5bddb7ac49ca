package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/config"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/feed"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/geo"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/metrics"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/publisher"
	"github.com/TYLin-CitySolutions/gtfs-bus/internal/store"
)

func main() {
	configPath := flag.String("config", "feeds.yml", "feeds config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	projector, err := geo.NewProjProjector(cfg.Projection)
	if err != nil {
		log.Fatalf("projection error: %v", err)
	}
	defer projector.Close()

	mcol := metrics.NewCollector()
	if cfg.MetricsAddr != "" {
		srv := mcol.Serve(cfg.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var pub *publisher.NATSPublisher
	if cfg.NATSURL != "" {
		pub, err = publisher.NewNATSPublisher(cfg.NATSURL, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
	}

	fetcher := feed.NewFetcher(cfg.FetchTimeout())

	// Feeds are independent: ingest in parallel, isolate failures per feed.
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, cfg.Parallelism)
	for _, fc := range cfg.Feeds {
		wg.Add(1)
		go func(fc config.FeedConfig) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestOne(ctx, fc, fetcher, projector, cfg.DatasetDir, mcol, pub); err != nil {
				log.Printf("feed %s: %v", fc.ID, err)
				mcol.FeedsFailed.Inc()
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(fc)
	}
	wg.Wait()

	log.Printf("ingestion complete: %d feeds ok, %d failed", len(cfg.Feeds)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func ingestOne(ctx context.Context, fc config.FeedConfig, fetcher *feed.Fetcher, projector geo.Projector, datasetDir string, mcol *metrics.Collector, pub *publisher.NATSPublisher) error {
	start := time.Now()

	fetchStart := time.Now()
	raw, err := fetcher.Fetch(ctx, fc.ID, fc.Source)
	if err != nil {
		return err
	}
	mcol.FetchDuration.Observe(time.Since(fetchStart).Seconds())

	bundle, err := feed.ReadBundle(fc.ID, raw)
	if err != nil {
		return err
	}
	tables, err := feed.Normalize(fc.ID, bundle, projector)
	if err != nil {
		return err
	}
	if tables.OrphanedStopTimes > 0 {
		log.Printf("feed %s: dropped %d stop_time rows with no matching trip", fc.ID, tables.OrphanedStopTimes)
		mcol.StopTimesDropped.WithLabelValues("orphan").Add(float64(tables.OrphanedStopTimes))
	}
	if tables.UntimedStopTimes > 0 {
		log.Printf("feed %s: skipped %d stop_time rows with no arrival_time", fc.ID, tables.UntimedStopTimes)
		mcol.StopTimesDropped.WithLabelValues("untimed").Add(float64(tables.UntimedStopTimes))
	}

	counts, err := store.ReplaceFeed(datasetDir, fc.ID, tables)
	if err != nil {
		return err
	}
	for table, n := range counts {
		mcol.RowsWritten.WithLabelValues(table).Add(float64(n))
	}
	mcol.FeedsIngested.Inc()
	mcol.IngestDuration.Observe(time.Since(start).Seconds())
	log.Printf("feed %s: wrote %d stops, %d trips, %d routes, %d services, %d stop events in %s",
		fc.ID, counts["dim_stops"], counts["dim_trips"], counts["dim_routes"],
		counts["calendar_base"], counts["fact_stop_events"], time.Since(start).Round(time.Millisecond))

	if pub != nil {
		msg := publisher.FeedIngestedMessage{
			FeedID:            fc.ID,
			Rows:              counts,
			OrphanedStopTimes: tables.OrphanedStopTimes,
			UntimedStopTimes:  tables.UntimedStopTimes,
			CompletedAt:       time.Now().UTC(),
		}
		if err := pub.PublishFeedIngested(msg); err != nil {
			log.Printf("feed %s: publish ingest event: %v", fc.ID, err)
		}
	}
	return nil
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()  { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc() { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
