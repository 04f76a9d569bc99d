package shinrai

import "time"

type resolvedOptions struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*resolvedOptions)

// WithNow overrides the clock used for gap freshness and bias staleness
// checks. Intended for tests and replay.
func WithNow(now func() time.Time) Option {
	return func(o *resolvedOptions) { o.now = now }
}
