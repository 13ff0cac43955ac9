package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGet(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte("feed bytes"))
	}))
	defer server.Close()

	body, err := HTTPGet(context.Background(), server.URL, map[string]string{
		"Authorization": "Bearer sekrit",
	}, GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, []byte("feed bytes"), body)
	assert.Equal(t, "Bearer sekrit", gotAuth)
}

func TestHTTPGetErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := HTTPGet(context.Background(), server.URL, nil, GetOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPGetEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := HTTPGet(context.Background(), server.URL, nil, GetOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestHTTPGetMaxSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer server.Close()

	body, err := HTTPGet(context.Background(), server.URL, nil, GetOptions{MaxSize: 4})
	require.NoError(t, err)
	assert.Equal(t, []byte("0123"), body)
}

func TestMemoryDownloaderCaching(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("cached feed"))
	}))
	defer server.Close()

	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	dl := NewMemoryDownloader()
	dl.TimeNow = func() time.Time { return now }

	options := GetOptions{Cache: true, CacheTTL: time.Hour}

	body, err := dl.Get(context.Background(), server.URL, nil, options)
	require.NoError(t, err)
	assert.Equal(t, []byte("cached feed"), body)

	// Second fetch inside the TTL comes from cache.
	_, err = dl.Get(context.Background(), server.URL, nil, options)
	require.NoError(t, err)
	assert.Equal(t, int32(1), requests.Load())

	// Past the TTL the entry is stale and gets re-fetched.
	now = now.Add(2 * time.Hour)
	_, err = dl.Get(context.Background(), server.URL, nil, options)
	require.NoError(t, err)
	assert.Equal(t, int32(2), requests.Load())
}

func TestMemoryDownloaderNoCache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte("fresh feed"))
	}))
	defer server.Close()

	dl := NewMemoryDownloader()
	for i := 0; i < 3; i++ {
		_, err := dl.Get(context.Background(), server.URL, nil, GetOptions{})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), requests.Load())
}
