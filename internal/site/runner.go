// internal/site/runner.go
package site

import (
	"context"
	"time"
)

// Run scans the site once immediately and then on every tick, emitting
// each Result on out. Each scan starts from fresh snapshots.
// One scan at a time. No overlap. No retries.
//
// A Result carries its own copy of the unit states, so the receiver may
// keep reading it while the next scan runs. Read res.Units, never s.Units.
func (s *Site) Run(ctx context.Context, interval time.Duration, obs Observer, out chan<- Result) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res := s.Scan(ctx, obs)
		select {
		case <-ctx.Done():
			return
		case out <- res:
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
