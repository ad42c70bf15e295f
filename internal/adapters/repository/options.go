package repository

import "time"

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithClock sets the time source used for activity log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator used for activity log IDs.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *Store) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}
