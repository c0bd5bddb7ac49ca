package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gtfs.zip")
	require.NoError(t, os.WriteFile(path, []byte("zip bytes"), 0o644))

	f := NewFetcher(time.Second)
	b, err := f.Fetch(context.Background(), "mta", Source{Kind: SourceFile, Path: path})
	require.NoError(t, err)
	assert.Equal(t, []byte("zip bytes"), b)
}

func TestFetchFileMissing(t *testing.T) {
	f := NewFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "mta", Source{Kind: SourceFile, Path: "/does/not/exist.zip"})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "mta", fe.Feed)
}

func TestFetchURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("remote zip"))
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	b, err := f.Fetch(context.Background(), "mta", Source{Kind: SourceURL, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []byte("remote zip"), b)
}

func TestFetchURLNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	f := NewFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "mta", Source{Kind: SourceURL, URL: srv.URL})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusGone, fe.Status)
}

func TestFetchAuthenticated(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("private zip"))
	}))
	defer srv.Close()

	t.Setenv("FEED_TOKEN", "s3cret")
	f := NewFetcher(time.Second)
	b, err := f.Fetch(context.Background(), "mta", Source{Kind: SourceAuthenticated, URL: srv.URL, TokenEnv: "FEED_TOKEN"})
	require.NoError(t, err)
	assert.Equal(t, []byte("private zip"), b)
	assert.Equal(t, "Bearer s3cret", gotAuth)
}

func TestFetchAuthenticatedMissingToken(t *testing.T) {
	t.Setenv("FEED_TOKEN", "")
	f := NewFetcher(time.Second)
	_, err := f.Fetch(context.Background(), "mta", Source{Kind: SourceAuthenticated, URL: "http://example.invalid", TokenEnv: "FEED_TOKEN"})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := NewFetcher(10 * time.Millisecond)
	_, err := f.Fetch(context.Background(), "mta", Source{Kind: SourceURL, URL: srv.URL})
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
}
