// Package term prints the board to a terminal. It reads a page snapshot the same way
// the web UI does, so both show identical cards, chips and filter bar state.
package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/umputun/jobboard/app/board"
)

// Printer writes board views to out
type Printer struct {
	out     io.Writer
	noColor bool
}

// NewPrinter makes printer writing to out, noColor disables colors and text styles
func NewPrinter(out io.Writer, noColor bool) *Printer {
	return &Printer{out: out, noColor: noColor}
}

// Print writes filter bar, load error and the table of visible cards.
// total is a number of all loaded jobs.
func (p *Printer) Print(view board.View, total int) error {
	var sb strings.Builder

	if view.FilterBarVisible {
		tags := make([]string, 0, len(view.Chips))
		for _, c := range view.Chips {
			tags = append(tags, p.color(pterm.Cyan, "["+c.Tag+" x]"))
		}
		sb.WriteString("Filters: " + strings.Join(tags, " ") + "\n")
	}

	if view.Error != "" {
		sb.WriteString(p.color(pterm.Red, "Failed to load jobs: "+view.Error) + "\n")
	}

	if len(view.Cards) > 0 {
		table, err := p.table(view.Cards)
		if err != nil {
			return fmt.Errorf("failed to render jobs table: %w", err)
		}
		sb.WriteString(table)
		if !strings.HasSuffix(table, "\n") {
			sb.WriteString("\n")
		}
	}

	fmt.Fprintf(&sb, "%d of %d jobs\n", len(view.Cards), total)

	if _, err := io.WriteString(p.out, sb.String()); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}
	return nil
}

func (p *Printer) table(cards []board.Card) (string, error) {
	data := pterm.TableData{{"Company", "Position", "Details", "Languages"}}
	for _, c := range cards {
		company := c.Company
		for _, b := range c.Badges {
			company += " " + p.badge(b)
		}
		if c.Featured {
			company = p.color(pterm.Bold.Sprint, company)
		}
		data = append(data, []string{company, c.Position, strings.Join(c.Details, " · "), strings.Join(c.Languages, ", ")})
	}

	tbl := pterm.DefaultTable.WithHasHeader().WithData(data)
	if p.noColor {
		tbl = tbl.WithStyle(pterm.NewStyle()).WithHeaderStyle(pterm.NewStyle()).WithSeparatorStyle(pterm.NewStyle())
	}
	return tbl.Srender()
}

func (p *Printer) badge(b board.Badge) string {
	switch b.Kind {
	case board.BadgeNew:
		return p.color(pterm.Green, b.Label)
	case board.BadgeFeatured:
		return p.color(pterm.Yellow, b.Label)
	default:
		return b.Label
	}
}

func (p *Printer) color(fn func(a ...any) string, s string) string {
	if p.noColor {
		return s
	}
	return fn(s)
}
