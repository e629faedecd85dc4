package cache_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lexisearch/lexisearch/internal/cache"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestLRU_SetGet(t *testing.T) {
	t.Parallel()

	store, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	store.Set(ctx, "k1", []byte("v1"), 60_000)

	entry, ok := store.Get(ctx, "k1")
	if !ok {
		t.Fatal("expected hit")
	}

	if string(entry.Value) != "v1" {
		t.Errorf("value = %q, want v1", entry.Value)
	}
}

func TestLRU_Miss(t *testing.T) {
	t.Parallel()

	store, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, ok := store.Get(context.Background(), "absent")
	if ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestLRU_ExpiredEntryIsMiss(t *testing.T) {
	t.Parallel()

	store, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	store.Set(ctx, "k1", []byte("v1"), 1) // 1ms TTL

	time.Sleep(5 * time.Millisecond)

	_, ok := store.Get(ctx, "k1")
	if ok {
		t.Fatal("expected expired entry to be reported as a miss")
	}
}

func TestLRU_Delete(t *testing.T) {
	t.Parallel()

	store, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	store.Set(ctx, "k1", []byte("v1"), 60_000)
	store.Delete(ctx, "k1")

	if _, ok := store.Get(ctx, "k1"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	t.Parallel()

	store, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := cache.NewGroup()
	ctx := context.Background()

	var calls atomic.Int32

	compute := func() ([]byte, error) {
		calls.Add(1)
		return []byte("computed"), nil
	}

	value, hit, err := cache.GetOrCompute(ctx, store, group, "k1", 60_000, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hit {
		t.Fatal("expected first call to be a miss")
	}

	if string(value) != "computed" {
		t.Errorf("value = %q", value)
	}

	value, hit, err = cache.GetOrCompute(ctx, store, group, "k1", 60_000, compute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !hit {
		t.Fatal("expected second call to be a hit")
	}

	if string(value) != "computed" {
		t.Errorf("value = %q", value)
	}

	if calls.Load() != 1 {
		t.Errorf("compute called %d times, want 1", calls.Load())
	}
}

func TestGetOrCompute_ConcurrentMissesDeduped(t *testing.T) {
	t.Parallel()

	store, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := cache.NewGroup()
	ctx := context.Background()

	var calls atomic.Int32

	compute := func() ([]byte, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)

		return []byte("computed"), nil
	}

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _, _ = cache.GetOrCompute(ctx, store, group, "shared", 60_000, compute)
		}()
	}

	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("compute called %d times, want exactly 1 under singleflight", calls.Load())
	}
}

func TestGetOrCompute_PropagatesComputeError(t *testing.T) {
	t.Parallel()

	store, err := cache.NewLRU(8, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	group := cache.NewGroup()
	wantErr := errors.New("upstream failed")

	_, _, err = cache.GetOrCompute(context.Background(), store, group, "k1", 60_000, func() ([]byte, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
