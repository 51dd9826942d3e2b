package ratelimit

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scryptex/bridge-middleware/pkg/redisutil"
)

func requireDockerAccess(t *testing.T) {
	t.Helper()

	candidates := []string{
		"/var/run/docker.sock",
		filepath.Join(os.Getenv("HOME"), ".docker/run/docker.sock"),
	}

	for _, sock := range candidates {
		if _, err := os.Stat(sock); err != nil {
			continue
		}
		conn, err := (&net.Dialer{}).DialContext(context.Background(), "unix", sock)
		if err == nil {
			_ = conn.Close()
			return
		}
	}

	t.Skip("docker daemon socket is not accessible; skipping testcontainer-backed rate limit tests")
}

func setupRedisLimiter(t *testing.T) *RedisLimiter {
	t.Helper()
	requireDockerAccess(t)
	client, cleanup := redisutil.SetupTestRedis(t)
	t.Cleanup(cleanup)
	return NewRedisLimiter(client, "test")
}

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	l := setupRedisLimiter(t)
	ctx := context.Background()
	now := time.Now()
	l.now = func() time.Time { return now }

	policy := Policy{Name: PolicyQuote, Limit: 3, Window: time.Minute}
	for i := 0; i < 3; i++ {
		d, err := l.Allow(ctx, policy, "client")
		require.NoError(t, err)
		require.True(t, d.Allowed)
		assert.Equal(t, 2-i, d.Remaining)
		now = now.Add(10 * time.Second)
	}

	d, err := l.Allow(ctx, policy, "client")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	// The oldest request leaves the window 60s after it was made, 30s from now.
	assert.InDelta(t, float64(30*time.Second), float64(d.RetryAfter), float64(time.Millisecond))

	// Rejections do not extend the window.
	now = now.Add(31 * time.Second)
	d, err = l.Allow(ctx, policy, "client")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRedisLimiter_SharedAcrossInstances(t *testing.T) {
	l := setupRedisLimiter(t)
	other := NewRedisLimiter(l.client, "test")
	policy := Policy{Name: PolicyExecute, Limit: 5, Window: time.Minute}

	var allowed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lim := l
			if i%2 == 1 {
				lim = other
			}
			d, err := lim.Allow(context.Background(), policy, "203.0.113.7")
			if err == nil && d.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), allowed.Load())
}
