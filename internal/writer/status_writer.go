// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/emcon/internal/status"
)

// unitStatusWriter owns the status block of ONE unit.
// It writes encoded blocks verbatim: no interpretation.
type unitStatusWriter struct {
	cli    endpointClient
	unitID uint8
	slot   uint16

	needFull bool
	last     []uint16
}

func newUnitStatusWriter(cli endpointClient, unitID uint8, slot uint16) *unitStatusWriter {
	return &unitStatusWriter{
		cli:      cli,
		unitID:   unitID,
		slot:     slot,
		needFull: true, // full re-assert on first successful write
	}
}

// WriteStatus delivers one encoded block.
// On any write failure, the next call re-asserts the full block.
func (sw *unitStatusWriter) WriteStatus(regs []uint16) error {
	if sw.cli == nil {
		return errors.New("status writer: missing client")
	}
	if len(regs) != status.SlotsPerUnit {
		return fmt.Errorf("status writer: block has %d registers, want %d", len(regs), status.SlotsPerUnit)
	}

	base := sw.baseAddr()

	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.unitID, base, regs); err != nil {
			return fmt.Errorf("status writer: slot %d full block write failed: %w", sw.slot, err)
		}
		sw.needFull = false
		sw.last = append([]uint16(nil), regs...)
		return nil
	}

	// incremental: one request per run of changed registers
	var errs []string
	for _, r := range changedRuns(sw.last, regs) {
		if err := sw.cli.WriteRegisters(sw.unitID, base+uint16(r.off), regs[r.off:r.end]); err != nil {
			errs = append(errs, fmt.Sprintf("slot %d regs %d..%d write failed: %v", sw.slot, r.off, r.end-1, err))
			continue
		}
		copy(sw.last[r.off:r.end], regs[r.off:r.end])
	}

	if len(errs) > 0 {
		// partial failure: the endpoint may hold a mix, re-assert next time
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

type run struct{ off, end int }

// changedRuns returns the maximal ranges where next differs from last.
func changedRuns(last, next []uint16) []run {
	var out []run
	for i := 0; i < len(next); i++ {
		if last[i] == next[i] {
			continue
		}
		j := i + 1
		for j < len(next) && last[j] != next[j] {
			j++
		}
		out = append(out, run{off: i, end: j})
		i = j
	}
	return out
}

func (sw *unitStatusWriter) baseAddr() uint16 {
	return sw.slot * status.SlotsPerUnit
}
