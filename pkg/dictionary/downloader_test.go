package dictionary

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSource_LocalCache(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "Lexique383.tsv")
	require.NoError(t, os.WriteFile(dest, []byte("cached"), 0o644))

	downloaded, err := EnsureSource(context.Background(), srv.Client(), srv.URL, dest)
	require.NoError(t, err)
	assert.False(t, downloaded)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "cached", string(data))
}

func TestEnsureSource_Downloads(t *testing.T) {
	body := "ortho\tphon\tfreqfilms2\nchat\tSa\t120.5\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "nested", "Lexique383.tsv")
	downloaded, err := EnsureSource(context.Background(), srv.Client(), srv.URL, dest)
	require.NoError(t, err)
	assert.True(t, downloaded)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	leftovers, err := filepath.Glob(dest + ".part-*")
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	// second call is a cache hit
	downloaded, err = EnsureSource(context.Background(), srv.Client(), srv.URL, dest)
	require.NoError(t, err)
	assert.False(t, downloaded)
}

func TestEnsureSource_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "Lexique383.tsv")
	_, err := EnsureSource(context.Background(), srv.Client(), srv.URL, dest)
	require.Error(t, err)

	var rerr *RetrievalError
	assert.True(t, errors.As(err, &rerr))
	assert.Equal(t, srv.URL, rerr.URL)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnsureSource_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := EnsureSource(context.Background(), nil, url, filepath.Join(t.TempDir(), "x.tsv"))
	var rerr *RetrievalError
	assert.True(t, errors.As(err, &rerr))
}

func TestEnsureSource_DirectoryIsNotACache(t *testing.T) {
	dir := t.TempDir()
	_, err := EnsureSource(context.Background(), nil, "http://127.0.0.1:1/never", dir)
	assert.Error(t, err)
}
