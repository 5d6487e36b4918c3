package reconcile

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"contact-sync/core/identity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(calls *int32, delay time.Duration) Loader {
	return func(ctx context.Context) (*identity.Index, error) {
		atomic.AddInt32(calls, 1)
		time.Sleep(delay)
		return identity.NewIndex(existingEntries(), lastName), nil
	}
}

// TestUniverseCache_SingleFlight tests that concurrent callers share one build.
func TestUniverseCache_SingleFlight(t *testing.T) {
	cache := NewUniverseCache(time.Minute)
	var calls int32
	load := countingLoader(&calls, 50*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx, err := cache.Get(context.Background(), "person", load)
			assert.NoError(t, err)
			assert.Equal(t, 6, idx.Len())
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Fresh entry is reused
	_, err := cache.Get(context.Background(), "person", load)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Other families are cached separately
	_, err = cache.Get(context.Background(), "group", load)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	cache.Invalidate("person")
	_, err = cache.Get(context.Background(), "person", load)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUniverseCache_ZeroTTL(t *testing.T) {
	cache := NewUniverseCache(0)
	var calls int32
	load := countingLoader(&calls, 0)

	for i := 0; i < 3; i++ {
		_, err := cache.Get(context.Background(), "person", load)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestUniverseCache_ErrorNotCached(t *testing.T) {
	cache := NewUniverseCache(time.Minute)
	fail := true
	load := func(ctx context.Context) (*identity.Index, error) {
		if fail {
			return nil, fmt.Errorf("store unavailable")
		}
		return identity.NewIndex(nil, nil), nil
	}

	_, err := cache.Get(context.Background(), "person", load)
	assert.ErrorContains(t, err, "store unavailable")

	fail = false
	idx, err := cache.Get(context.Background(), "person", load)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}
