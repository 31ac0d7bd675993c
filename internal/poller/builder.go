// internal/poller/builder.go
package poller

import (
	"fmt"

	cfg "github.com/tamzrod/emcon/internal/config"
	"github.com/tamzrod/emcon/internal/dali"
)

// Build constructs the Poller for one configured unit.
// The unit id is "site/bus/address".
func Build(site string, u cfg.UnitConfig) (*Poller, error) {
	addr, err := dali.Short(u.Address)
	if err != nil {
		return nil, err
	}

	return New(Config{
		UnitID:  fmt.Sprintf("%s/%s/%d", site, u.Bus, u.Address),
		Address: addr,
	})
}
