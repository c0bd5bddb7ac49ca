package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TYLin-CitySolutions/gtfs-bus/internal/feed"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
dataset_dir: /data/parquet
fetch_timeout_sec: 30
feeds:
  - id: mta_bronx
    source:
      kind: url
      url: https://example.com/bronx.zip
  - id: local
    source:
      kind: file
      path: ./gtfs.zip
  - id: corp
    source:
      kind: authenticated
      url: https://example.com/private.zip
      token_env: CORP_FEED_TOKEN
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/parquet", cfg.DatasetDir)
	assert.Equal(t, 30, cfg.FetchTimeoutSec)
	assert.Equal(t, 4, cfg.Parallelism)
	require.Len(t, cfg.Feeds, 3)
	assert.Equal(t, feed.SourceURL, cfg.Feeds[0].Source.Kind)
	assert.Equal(t, feed.SourceAuthenticated, cfg.Feeds[2].Source.Kind)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATASET_DIR", "")
	path := writeConfig(t, `
feeds:
  - id: one
    source:
      kind: file
      path: ./gtfs.zip
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "parquet", cfg.DatasetDir)
	assert.Equal(t, 90, cfg.FetchTimeoutSec)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATASET_DIR", "/tmp/override")
	t.Setenv("INGEST_PARALLELISM", "2")
	path := writeConfig(t, `
feeds:
  - id: one
    source:
      kind: file
      path: ./gtfs.zip
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.DatasetDir)
	assert.Equal(t, 2, cfg.Parallelism)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no feeds", "dataset_dir: parquet\n"},
		{"missing id", "feeds:\n  - source:\n      kind: file\n      path: x.zip\n"},
		{"bad kind", "feeds:\n  - id: a\n    source:\n      kind: carrier-pigeon\n"},
		{"bad url", "feeds:\n  - id: a\n    source:\n      kind: url\n      url: 'not a url'\n"},
		{"path separator in id", "feeds:\n  - id: ../a\n    source:\n      kind: file\n      path: x.zip\n"},
		{"duplicate id", "feeds:\n  - id: a\n    source:\n      kind: file\n      path: x.zip\n  - id: a\n    source:\n      kind: file\n      path: y.zip\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
