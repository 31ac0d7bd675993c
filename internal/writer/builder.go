// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"time"

	cfg "github.com/tamzrod/emcon/internal/config"
	wmodbus "github.com/tamzrod/emcon/internal/writer/modbus"
)

// BuildPlan converts one site config into a status memory Plan.
// Status memory is opt-in: ok is false when the site has none.
// Assumes config has already passed validation.
func BuildPlan(sc cfg.SiteConfig) (plan Plan, ok bool, err error) {
	sm := sc.StatusMemory
	if sm == nil {
		return Plan{}, false, nil
	}
	if sm.Endpoint == "" {
		return Plan{}, false, errors.New("writer: status_memory.endpoint required")
	}

	plan = Plan{
		SiteKey:  sc.Key,
		Endpoint: sm.Endpoint,
		UnitID:   sm.UnitID,
		BaseSlot: sm.BaseSlot,
		Timeout:  time.Duration(sm.TimeoutMs) * time.Millisecond,
	}
	for _, u := range sc.Units {
		plan.Units = append(plan.Units, fmt.Sprintf("%s/%s/%d", sc.Key, u.Bus, u.Address))
	}
	return plan, true, nil
}

// BuildEndpointClient prepares the client for a plan.
// The connection is made on the first write.
func BuildEndpointClient(plan Plan) (*wmodbus.EndpointClient, error) {
	return wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  plan.Timeout,
	})
}
