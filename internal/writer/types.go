// internal/writer/types.go
package writer

import (
	"time"

	"github.com/tamzrod/emcon/internal/site"
)

// Plan is the fully-built status memory plan for one site.
// Unit i of the site owns block BaseSlot+i.
type Plan struct {
	SiteKey  string
	Endpoint string
	UnitID   uint8
	BaseSlot uint16
	Timeout  time.Duration
	Units    []string // unit ids, configured order
}

// Writer delivers scan results into status memory.
type Writer interface {
	Write(units []*site.Unit) error
}
