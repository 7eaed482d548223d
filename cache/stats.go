package cache

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Loads      int64 `json:"loads"`
	StaleLoads int64 `json:"stale_loads"`
	Evictions  int64 `json:"evictions"`
	Entries    int   `json:"entries"`
}

// Lookups returns Hits + Misses.
func (s Stats) Lookups() int64 {
	return s.Hits + s.Misses
}

// HitRate returns the fraction of lookups served from the cache, or 0 when
// there were none.
func (s Stats) HitRate() float64 {
	total := s.Lookups()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
