package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New()
	defer l.Close()
	rule := Rule{Prefix: "test", Limit: 3, Window: time.Minute}

	for i := 0; i < 3; i++ {
		res := l.Allow(rule, "k")
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := l.Allow(rule, "k")
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.False(t, res.ResetAt.IsZero())
	assert.True(t, res.ResetAt.After(time.Now()), "reset time is in the future")
}

func TestAllowWindowSlides(t *testing.T) {
	l := New()
	defer l.Close()
	rule := Rule{Prefix: "test", Limit: 1, Window: 30 * time.Millisecond}

	require.True(t, l.Allow(rule, "k").Allowed)
	assert.False(t, l.Allow(rule, "k").Allowed)

	time.Sleep(40 * time.Millisecond)
	assert.True(t, l.Allow(rule, "k").Allowed, "old timestamps fall out of the window")
}

func TestAllowKeysIndependent(t *testing.T) {
	l := New()
	defer l.Close()
	rule := Rule{Prefix: "test", Limit: 1, Window: time.Minute}

	require.True(t, l.Allow(rule, "a").Allowed)
	assert.False(t, l.Allow(rule, "a").Allowed)
	assert.True(t, l.Allow(rule, "b").Allowed, "keys do not share windows")
}

func TestAllowPrefixesIndependent(t *testing.T) {
	l := New()
	defer l.Close()
	auth := Rule{Prefix: "auth", Limit: 1, Window: time.Minute}
	api := Rule{Prefix: "api", Limit: 1, Window: time.Minute}

	require.True(t, l.Allow(auth, "k").Allowed)
	assert.False(t, l.Allow(auth, "k").Allowed)
	assert.True(t, l.Allow(api, "k").Allowed, "prefixes namespace the same key")
}

func TestAllowConcurrent(t *testing.T) {
	l := New()
	defer l.Close()
	rule := Rule{Prefix: "test", Limit: 50, Window: time.Minute}

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow(rule, "k").Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	assert.Equal(t, 50, count, "exactly the limit is admitted under contention")
}

func TestEvictStale(t *testing.T) {
	l := New()
	defer l.Close()
	rule := Rule{Prefix: "test", Limit: 5, Window: time.Minute}

	for i := 0; i < 20; i++ {
		l.Allow(rule, fmt.Sprintf("key-%d", i))
	}
	l.mu.Lock()
	for k, w := range l.windows {
		for i := range w {
			w[i] = w[i].Add(-staleThreshold - time.Minute)
		}
		l.windows[k] = w
	}
	l.mu.Unlock()

	l.evictStale()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Empty(t, l.windows)
}

func TestCloseIdempotent(t *testing.T) {
	l := New()
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}
