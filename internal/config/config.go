package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/feed"
)

// FeedConfig declares one feed: its identifier (the partition name, unique
// across the dataset) and where its zip bundle comes from.
type FeedConfig struct {
	ID     string      `yaml:"id" validate:"required"`
	Source feed.Source `yaml:"source" validate:"required"`
}

// Config drives an ingestion run. The feeds list comes from feeds.yml;
// operational knobs (dataset dir, metrics address, NATS URL) may be
// overridden from .env/environment.
type Config struct {
	DatasetDir      string       `yaml:"dataset_dir"`
	Projection      string       `yaml:"projection"` // PROJ pipeline; empty = EPSG:2263 default
	FetchTimeoutSec int          `yaml:"fetch_timeout_sec" validate:"gte=0"`
	Parallelism     int          `yaml:"parallelism" validate:"gte=0"`
	Feeds           []FeedConfig `yaml:"feeds" validate:"required,min=1,dive"`

	MetricsAddr string `yaml:"-"`
	NATSURL     string `yaml:"-"`
}

// Load reads feeds.yml, applies environment overrides and validates.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("DATASET_DIR"); v != "" {
		cfg.DatasetDir = v
	}
	if cfg.DatasetDir == "" {
		cfg.DatasetDir = "parquet"
	}
	if cfg.FetchTimeoutSec == 0 {
		cfg.FetchTimeoutSec = 90
	}
	if v := os.Getenv("INGEST_PARALLELISM"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid INGEST_PARALLELISM: %q", v)
		}
		cfg.Parallelism = n
	}
	if cfg.Parallelism == 0 {
		cfg.Parallelism = 4
	}
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.NATSURL = os.Getenv("NATS_URL")

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	seen := make(map[string]bool, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		if strings.ContainsAny(f.ID, `/\`) || strings.HasPrefix(f.ID, ".") {
			return nil, fmt.Errorf("feed id %q is not a valid partition name", f.ID)
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("duplicate feed id %q", f.ID)
		}
		seen[f.ID] = true
	}
	return cfg, nil
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}
