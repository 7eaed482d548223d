package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(NewShardedCache(4))
	if err != nil {
		t.Fatalf("NewLoader() = %v", err)
	}
	return l
}

func constLoad(calls *atomic.Int64, v string) LoadFunc {
	return func(context.Context) (string, error) {
		calls.Add(1)
		return v, nil
	}
}

func TestNewLoader_NilCache(t *testing.T) {
	if _, err := NewLoader(nil); err != ErrNilCache {
		t.Fatalf("NewLoader(nil) = %v, want ErrNilCache", err)
	}
}

func TestLoader_MissThenHit(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()
	var calls atomic.Int64

	v, hit, err := l.Load(ctx, "/root", constLoad(&calls, "frag"))
	if err != nil || hit || v != "frag" {
		t.Fatalf("first Load() = %q, %v, %v", v, hit, err)
	}
	v, hit, err = l.Load(ctx, "/root", constLoad(&calls, "other"))
	if err != nil || !hit || v != "frag" {
		t.Fatalf("second Load() = %q, %v, %v", v, hit, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("load calls = %d, want 1", calls.Load())
	}

	st := l.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Loads != 1 || st.Entries != 1 {
		t.Fatalf("Stats() = %+v", st)
	}
}

func TestLoader_ErrorsNotCached(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()
	boom := errors.New("scan failed")

	_, _, err := l.Load(ctx, "/root", func(context.Context) (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Load() err = %v, want %v", err, boom)
	}
	if l.Cache().Len() != 0 {
		t.Fatal("error result was cached")
	}

	var calls atomic.Int64
	v, hit, err := l.Load(ctx, "/root", constLoad(&calls, "frag"))
	if err != nil || hit || v != "frag" || calls.Load() != 1 {
		t.Fatalf("retry Load() = %q, %v, %v (calls %d)", v, hit, err, calls.Load())
	}
}

func TestLoader_InvalidKey(t *testing.T) {
	l := newTestLoader(t)
	var calls atomic.Int64
	if _, _, err := l.Load(context.Background(), "", constLoad(&calls, "x")); err != ErrInvalidKey {
		t.Fatalf("Load(\"\") = %v, want ErrInvalidKey", err)
	}
	if calls.Load() != 0 {
		t.Fatal("LoadFunc called for invalid key")
	}
}

func TestLoader_ConcurrentMissesShareOneLoad(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()
	release := make(chan struct{})
	var calls atomic.Int64
	fn := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "frag", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _, _ = l.Load(ctx, "/root", fn)
		}(i)
	}
	// Give every goroutine time to join the flight.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("load calls = %d, want 1", calls.Load())
	}
	for i, r := range results {
		if r != "frag" {
			t.Fatalf("result[%d] = %q, want frag", i, r)
		}
	}
}

func TestLoader_Evict(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()
	var calls atomic.Int64
	for _, k := range []string{"/a", "/a/b", "/c"} {
		if _, _, err := l.Load(ctx, k, constLoad(&calls, "v"+k)); err != nil {
			t.Fatalf("Load(%s) = %v", k, err)
		}
	}

	removed := l.Evict(ctx, func(k string) bool { return k == "/a" || k == "/a/b" })
	if len(removed) != 2 {
		t.Fatalf("Evict() removed %v, want 2 keys", removed)
	}
	if _, hit, _ := l.Load(ctx, "/a", constLoad(&calls, "v/a")); hit {
		t.Fatal("evicted key served from cache")
	}
	if _, hit, _ := l.Load(ctx, "/c", constLoad(&calls, "v/c")); !hit {
		t.Fatal("unrelated key was evicted")
	}
	if st := l.Stats(); st.Evictions != 2 {
		t.Fatalf("Evictions = %d, want 2", st.Evictions)
	}
}

// TestLoader_EvictDuringLoad covers a load that starts before an eviction
// and finishes after it: its value must not be stored, and the next Load
// must recompute.
func TestLoader_EvictDuringLoad(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int64
	slow := func(context.Context) (string, error) {
		calls.Add(1)
		close(started)
		<-release
		return "stale", nil
	}

	done := make(chan string)
	go func() {
		v, _, _ := l.Load(ctx, "/root", slow)
		done <- v
	}()
	<-started

	l.Evict(ctx, func(k string) bool { return k == "/root" })
	close(release)

	if v := <-done; v != "stale" {
		t.Fatalf("in-flight caller got %q, want stale", v)
	}
	if _, ok := l.Cache().Get(ctx, "/root"); ok {
		t.Fatal("stale value was stored after eviction")
	}

	v, hit, err := l.Load(ctx, "/root", constLoad(&calls, "fresh"))
	if err != nil || hit || v != "fresh" {
		t.Fatalf("Load() after eviction = %q, %v, %v", v, hit, err)
	}
	if calls.Load() != 2 {
		t.Fatalf("load calls = %d, want 2", calls.Load())
	}
	if st := l.Stats(); st.StaleLoads != 1 {
		t.Fatalf("StaleLoads = %d, want 1", st.StaleLoads)
	}
}

// TestLoader_EvictDetachesWaiters checks that a Load issued after Evict does
// not join a flight that started before it.
func TestLoader_EvictDetachesWaiters(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _, _ = l.Load(ctx, "/root", func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
	}()
	<-started
	l.Evict(ctx, func(k string) bool { return k == "/root" })

	v, _, err := l.Load(ctx, "/root", func(context.Context) (string, error) { return "fresh", nil })
	close(release)
	if err != nil || v != "fresh" {
		t.Fatalf("Load() after eviction = %q, %v; want fresh", v, err)
	}
	if got, _ := l.Cache().Get(ctx, "/root"); got != "fresh" {
		t.Fatalf("cached value = %q, want fresh", got)
	}
}

func TestLoader_StripesAreIndependent(t *testing.T) {
	l := newTestLoader(t)
	ctx := context.Background()

	held := "/sitecore/templates/Tenant1"
	other := ""
	for i := 0; other == ""; i++ {
		k := fmt.Sprintf("/sitecore/templates/Tenant%d", i+2)
		if l.stripeFor(k) != l.stripeFor(held) {
			other = k
		}
	}

	st := l.stripeFor(held)
	st.mu.Lock()
	defer st.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, _, err := l.Load(ctx, other, func(context.Context) (string, error) { return "frag", nil })
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Load(%s) = %v", other, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Load(%s) blocked on the stripe of %s", other, held)
	}
	if _, ok := l.Cache().Get(ctx, other); !ok {
		t.Fatalf("%s not stored", other)
	}
}
