// internal/report/text.go
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/tamzrod/emcon/internal/site"
)

// Header writes the site line and, when verbose, the site expectations.
func Header(w io.Writer, s *site.Site, verbose bool) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Site: %s\n", s.Name)
	if verbose {
		fmt.Fprintf(&b, "  - Rated duration: %d minutes\n", s.Expected.RatedDuration)
		fmt.Fprintf(&b, "  - Function test every %d days\n", s.Expected.FunctionTestInterval)
		fmt.Fprintf(&b, "  - Duration test every %d weeks\n", s.Expected.DurationTestInterval)
		fmt.Fprintf(&b, "  - Test required to complete within %d days of scheduled time\n", s.Expected.ExecutionTimeout)
		b.WriteString("  - Gear:\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Unit writes one unit's verdict followed by its indented detail lines.
func Unit(w io.Writer, u *site.Unit) error {
	var b strings.Builder
	fmt.Fprintf(&b, "    - %s — %s\n", u.ID(), u.Summary.Text)
	for _, line := range u.Details() {
		fmt.Fprintf(&b, "        %s\n", line)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Footer writes the overall verdict and the result tally.
func Footer(w io.Writer, res site.Result) error {
	state := "Fail"
	if res.Pass {
		state = "Pass"
	}
	_, err := fmt.Fprintf(w, "  - Overall state: %s\n  - Results: %s\n", state, Tally(res.Results))
	return err
}

// Text renders a completed scan in one go, from the unit states the
// scan captured.
func Text(w io.Writer, s *site.Site, res site.Result, verbose bool) error {
	if err := Header(w, s, verbose); err != nil {
		return err
	}
	if verbose {
		for _, u := range res.Units {
			if err := Unit(w, u); err != nil {
				return err
			}
		}
	}
	return Footer(w, res)
}

// Tally formats counts as "text: n", most frequent first.
func Tally(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return strings.Join(parts, ", ")
}

// Progress prints each unit as its poll completes.
// Detailed prints the unit's detail lines as well.
type Progress struct {
	W        io.Writer
	Detailed bool

	mu  sync.Mutex
	err error
}

func (p *Progress) UnitDone(u *site.Unit) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	if p.Detailed {
		err = Unit(p.W, u)
	} else {
		_, err = fmt.Fprintf(p.W, "  - %s — %s\n", u.ID(), u.Summary.Text)
	}
	if err != nil && p.err == nil {
		p.err = err
	}
}

// Err returns the first write failure.
func (p *Progress) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}
