package cache

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// ticketStripes is the number of independently locked in-flight sets.
const ticketStripes = 32

// LoadFunc computes the value for a missing key. Errors are never cached.
type LoadFunc func(ctx context.Context) (string, error)

// Loader reads through a Cache, computing misses with LoadFunc.
//
// Contract:
//   - Concurrency: concurrent misses on one key share a single LoadFunc call.
//   - Invalidation: Evict marks in-flight loads for matching keys stale and
//     detaches them from the singleflight group. A stale load still returns
//     its value to the callers already waiting on it but never stores it, and
//     the next Load after Evict starts a fresh computation.
//   - Errors: LoadFunc errors are returned to every waiter and not stored.
//   - Locking: loads of keys in different stripes never share a lock. Evict
//     holds every stripe while it runs.
type Loader struct {
	cache Cache
	group singleflight.Group

	// Each stripe's mu orders its commits against evictions.
	stripes [ticketStripes]ticketStripe

	hits      atomic.Int64
	misses    atomic.Int64
	loads     atomic.Int64
	stale     atomic.Int64
	evictions atomic.Int64
}

type ticketStripe struct {
	mu       sync.Mutex
	inflight map[*ticket]struct{}
}

type ticket struct {
	key   string
	stale bool
}

// NewLoader creates a Loader in front of c.
func NewLoader(c Cache) (*Loader, error) {
	if c == nil {
		return nil, ErrNilCache
	}
	l := &Loader{cache: c}
	for i := range l.stripes {
		l.stripes[i].inflight = make(map[*ticket]struct{})
	}
	return l, nil
}

func (l *Loader) stripeFor(key string) *ticketStripe {
	return &l.stripes[xxhash.Sum64String(key)%ticketStripes]
}

// Cache returns the underlying cache.
func (l *Loader) Cache() Cache { return l.cache }

// Load returns the cached value for key, computing and storing it with fn on
// a miss. hit reports whether the value came from the cache.
func (l *Loader) Load(ctx context.Context, key string, fn LoadFunc) (value string, hit bool, err error) {
	if err := ValidateKey(key); err != nil {
		return "", false, err
	}
	if v, ok := l.cache.Get(ctx, key); ok {
		l.hits.Add(1)
		return v, true, nil
	}
	l.misses.Add(1)

	res, err, _ := l.group.Do(key, func() (any, error) {
		t := l.begin(key)
		defer l.end(t)

		// A flight that finished between our Get and Do may have stored it.
		if v, ok := l.cache.Get(ctx, key); ok {
			return v, nil
		}
		l.loads.Add(1)
		v, err := fn(ctx)
		if err != nil {
			return "", err
		}
		l.commit(ctx, t, v)
		return v, nil
	})
	if err != nil {
		return "", false, err
	}
	return res.(string), false, nil
}

func (l *Loader) begin(key string) *ticket {
	t := &ticket{key: key}
	st := l.stripeFor(key)
	st.mu.Lock()
	st.inflight[t] = struct{}{}
	st.mu.Unlock()
	return t
}

func (l *Loader) end(t *ticket) {
	st := l.stripeFor(t.key)
	st.mu.Lock()
	delete(st.inflight, t)
	st.mu.Unlock()
}

func (l *Loader) commit(ctx context.Context, t *ticket, v string) {
	st := l.stripeFor(t.key)
	st.mu.Lock()
	defer st.mu.Unlock()
	if t.stale {
		l.stale.Add(1)
		return
	}
	_ = l.cache.Set(ctx, t.key, v)
}

// Evict removes every cached key selected by match, invalidates in-flight
// loads for those keys, and returns the removed keys.
func (l *Loader) Evict(ctx context.Context, match MatchFunc) []string {
	if match == nil {
		return nil
	}
	// Stripes are always taken in index order.
	for i := range l.stripes {
		l.stripes[i].mu.Lock()
	}
	defer func() {
		for i := range l.stripes {
			l.stripes[i].mu.Unlock()
		}
	}()
	for i := range l.stripes {
		for t := range l.stripes[i].inflight {
			if !t.stale && match(t.key) {
				t.stale = true
				l.group.Forget(t.key)
			}
		}
	}
	removed := l.cache.Evict(ctx, match)
	l.evictions.Add(int64(len(removed)))
	return removed
}

// Stats returns a snapshot of the loader counters.
func (l *Loader) Stats() Stats {
	return Stats{
		Hits:       l.hits.Load(),
		Misses:     l.misses.Load(),
		Loads:      l.loads.Load(),
		StaleLoads: l.stale.Load(),
		Evictions:  l.evictions.Load(),
		Entries:    l.cache.Len(),
	}
}
