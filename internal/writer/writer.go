// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/emcon/internal/site"
	"github.com/tamzrod/emcon/internal/status"
)

// endpointClient is the exact contract the writer uses.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

type siteWriter struct {
	plan  Plan
	units map[string]*unitStatusWriter
}

// New builds the writer for one site. Block state is kept across calls,
// so one writer should serve every scan of the site.
func New(plan Plan, cli endpointClient) Writer {
	w := &siteWriter{
		plan:  plan,
		units: make(map[string]*unitStatusWriter, len(plan.Units)),
	}
	for i, id := range plan.Units {
		w.units[id] = newUnitStatusWriter(cli, plan.UnitID, plan.BaseSlot+uint16(i))
	}
	return w
}

// Write delivers the verdict of every unit. All units are attempted;
// failures are joined.
func (w *siteWriter) Write(units []*site.Unit) error {
	var errs []string

	for _, u := range units {
		sw, ok := w.units[u.ID()]
		if !ok {
			errs = append(errs, fmt.Sprintf("writer: unit %s has no status block", u.ID()))
			continue
		}
		if err := sw.WriteStatus(status.Encode(u.Summary, u.Snapshot)); err != nil {
			errs = append(errs, fmt.Sprintf("writer: ep=%s unit=%s err=%v", w.plan.Endpoint, u.ID(), err))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}
