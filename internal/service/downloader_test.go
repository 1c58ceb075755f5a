package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPDownloaderDownload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(srv.Close)

	d := NewHTTPDownloader(DownloaderConfig{})
	dl, err := d.Download(context.Background(), srv.URL+"/out.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), dl.Body)
	assert.Equal(t, "image/png", dl.ContentType)
}

func TestHTTPDownloaderSniffsMissingContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		// Minimal PNG signature so detection has something to work with.
		_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nxxxxxxxx"))
	}))
	t.Cleanup(srv.Close)

	d := NewHTTPDownloader(DownloaderConfig{})
	dl, err := d.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "image/png", dl.ContentType)
}

func TestHTTPDownloaderRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("finally"))
	}))
	t.Cleanup(srv.Close)

	d := NewHTTPDownloader(DownloaderConfig{RetryLimit: 3})
	dl, err := d.Download(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("finally"), dl.Body)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPDownloaderFailsFastOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	d := NewHTTPDownloader(DownloaderConfig{RetryLimit: 3})
	_, err := d.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHTTPDownloaderEnforcesMaxBytes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(make([]byte, 64))
	}))
	t.Cleanup(srv.Close)

	d := NewHTTPDownloader(DownloaderConfig{MaxBytes: 16})
	_, err := d.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "byte limit")
}
