package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// SourceKind selects how a feed's raw zip bundle is acquired.
type SourceKind string

const (
	SourceFile          SourceKind = "file"
	SourceURL           SourceKind = "url"
	SourceAuthenticated SourceKind = "authenticated"
)

// Source describes where one feed's zip bundle comes from. For the
// authenticated kind the bearer token is read from the environment variable
// named by TokenEnv, never stored in config.
type Source struct {
	Kind     SourceKind `yaml:"kind" validate:"required,oneof=file url authenticated"`
	Path     string     `yaml:"path"`
	URL      string     `yaml:"url" validate:"omitempty,url"`
	TokenEnv string     `yaml:"token_env"`
}

func (s Source) location() string {
	if s.Kind == SourceFile {
		return s.Path
	}
	return s.URL
}

// Fetcher retrieves raw feed bundles. Remote fetches are bounded by the
// client timeout so a dead endpoint surfaces as a FetchError rather than a
// hung ingestion run.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch returns the raw zip bytes for one feed.
func (f *Fetcher) Fetch(ctx context.Context, feedID string, src Source) ([]byte, error) {
	switch src.Kind {
	case SourceFile:
		if src.Path == "" {
			return nil, &FetchError{Feed: feedID, Location: "(unset)", Err: fmt.Errorf("source kind file requires a path")}
		}
		b, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, &FetchError{Feed: feedID, Location: src.Path, Err: err}
		}
		return b, nil
	case SourceURL:
		return f.get(ctx, feedID, src, "")
	case SourceAuthenticated:
		if src.TokenEnv == "" {
			return nil, &FetchError{Feed: feedID, Location: src.URL, Err: fmt.Errorf("source kind authenticated requires token_env")}
		}
		token := os.Getenv(src.TokenEnv)
		if token == "" {
			return nil, &FetchError{Feed: feedID, Location: src.URL, Err: fmt.Errorf("env %s is empty", src.TokenEnv)}
		}
		return f.get(ctx, feedID, src, token)
	default:
		return nil, &FetchError{Feed: feedID, Location: src.location(), Err: fmt.Errorf("unknown source kind %q", src.Kind)}
	}
}

func (f *Fetcher) get(ctx context.Context, feedID string, src Source, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, &FetchError{Feed: feedID, Location: src.URL, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Feed: feedID, Location: src.URL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{Feed: feedID, Location: src.URL, Status: resp.StatusCode}
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Feed: feedID, Location: src.URL, Err: err}
	}
	return b, nil
}
