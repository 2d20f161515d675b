package etherscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"walletRisk/internal/cache"
)

func TestSourceCachesLiveResult(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	mem := cache.NewMemory()
	src := NewSource(newTestClient(srv.URL), mem, SourceConfig{CacheTTL: time.Hour}, nil)

	first := src.Fetch(context.Background(), testWallet)
	require.Len(t, first, 2)
	second := src.Fetch(context.Background(), "0x1111111111111111111111111111111111111111")
	require.Len(t, second, 2)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, first[0].Value.String(), second[0].Value.String())
	assert.Equal(t, first[1].Hash, second[1].Hash)

	_, ok, err := mem.Get(context.Background(), cacheKey(testWallet))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSourceInvalidAddress(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	src := NewSource(newTestClient(srv.URL), nil, SourceConfig{}, nil)
	assert.Empty(t, src.Fetch(context.Background(), "not-a-wallet"))
	assert.Zero(t, atomic.LoadInt32(&hits))
}

func TestSourceRetriesThenGivesUp(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"status":"0","message":"NOTOK","result":"Max rate limit reached"}`))
	}))
	defer srv.Close()

	src := NewSource(newTestClient(srv.URL), nil, SourceConfig{MaxRetries: 2, RetryBackoff: time.Millisecond}, nil)
	assert.Empty(t, src.Fetch(context.Background(), testWallet))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestSourceRecoversAfterTransientFailure(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	src := NewSource(newTestClient(srv.URL), nil, SourceConfig{MaxRetries: 3, RetryBackoff: time.Millisecond}, nil)
	assert.Len(t, src.Fetch(context.Background(), testWallet), 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSourceIgnoresCorruptCacheEntry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(okBody))
	}))
	defer srv.Close()

	mem := cache.NewMemory()
	require.NoError(t, mem.Set(context.Background(), cacheKey(testWallet), []byte("{"), time.Hour))

	src := NewSource(newTestClient(srv.URL), mem, SourceConfig{}, nil)
	assert.Len(t, src.Fetch(context.Background(), testWallet), 2)
}
