package health

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// DefaultTimeout bounds a CheckAll run when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Aggregator runs registered checkers and combines their results.
type Aggregator struct {
	timeout  time.Duration
	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string // Maintains registration order
}

// NewAggregator creates an aggregator. timeout <= 0 selects DefaultTimeout.
func NewAggregator(timeout time.Duration) *Aggregator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{
		timeout:  timeout,
		checkers: make(map[string]Checker),
	}
}

// Register adds checker under its own name, replacing any checker with the
// same name.
func (a *Aggregator) Register(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := checker.Name()
	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes the named checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	a.order = slices.DeleteFunc(a.order, func(n string) bool { return n == name })
}

// CheckerNames returns the names of all registered checkers in
// registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.order)
}

// Check runs a single named health check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	a.mu.RLock()
	checker, ok := a.checkers[name]
	a.mu.RUnlock()

	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrCheckerNotFound, name)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	return runCheck(ctx, checker), nil
}

// CheckAll runs every registered checker concurrently and returns the
// results by name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	a.mu.RLock()
	checkers := make(map[string]Checker, len(a.checkers))
	for name, checker := range a.checkers {
		checkers[name] = checker
	}
	a.mu.RUnlock()

	results := make(map[string]Result, len(checkers))
	if len(checkers) == 0 {
		return results
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := runCheck(ctx, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// Ordered returns results in registration order. Results for checkers
// registered after the run are skipped.
func (a *Aggregator) Ordered(results map[string]Result) []Result {
	names := a.CheckerNames()
	out := make([]Result, 0, len(results))
	for _, name := range names {
		if r, ok := results[name]; ok {
			out = append(out, r)
		}
	}
	return out
}

// OverallStatus returns the worst status in results, or Healthy when there
// are none.
func OverallStatus(results map[string]Result) Status {
	overall := StatusHealthy
	for _, result := range results {
		if result.Status > overall {
			overall = result.Status
		}
	}
	return overall
}

func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- Unhealthy(fmt.Sprintf("check panicked: %v", r), ErrCheckPanicked)
			}
		}()
		resultCh <- checker.Check(ctx)
	}()

	var result Result
	select {
	case result = <-resultCh:
	case <-ctx.Done():
		result = Unhealthy("check timed out", ErrCheckTimeout)
	}
	result.Name = checker.Name()
	result.Duration = time.Since(start)
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	return result
}
