// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/emcon/internal/dali"
	"github.com/tamzrod/emcon/internal/status"
)

// PollResult is what one poll cycle produced for one unit.
type PollResult struct {
	UnitID  string
	Address dali.Address
	At      time.Time

	// Snapshot is fully populated when Err is nil and fresh otherwise.
	// A partially read unit is never exposed.
	Snapshot status.Snapshot

	Err error
}
