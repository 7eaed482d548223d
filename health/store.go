package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/sitetokens/content"
)

// StoreChecker probes the content store by loading a well-known path.
type StoreChecker struct {
	store    content.Store
	database string
	probe    content.Path
}

// NewStoreChecker creates a checker that loads probe from database.
func NewStoreChecker(store content.Store, database string, probe content.Path) *StoreChecker {
	return &StoreChecker{store: store, database: database, probe: probe}
}

// Name returns the name of this checker.
func (s *StoreChecker) Name() string { return "content_store" }

// Check loads the probe node.
func (s *StoreChecker) Check(ctx context.Context) Result {
	n, err := s.store.ItemByPath(ctx, s.database, s.probe)
	if err != nil {
		return Unhealthy(fmt.Sprintf("probe %s failed", s.probe), fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	return Healthy("probe " + n.FullPath() + " found").WithDetails(map[string]any{
		"database": s.database,
		"probe_id": n.ID.String(),
	})
}
