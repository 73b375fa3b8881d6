package tmdbcache

import "time"

// SetClock overrides the store's time source for tests.
func (s *Store) SetClock(now func() time.Time) { s.now = now }
