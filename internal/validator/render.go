package validator

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// WriteCSV writes the coverage table: field,producer_node,covered_full,covered_aggregate_only.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"field", "producer_node", "covered_full", "covered_aggregate_only"}); err != nil {
		return err
	}
	for _, row := range r.Coverage {
		if err := cw.Write([]string{row.Field, row.Producer, yn(row.CoveredFull), yn(row.CoveredAggregate)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Markdown renders the report for terminal display.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Rule coherence\n\n")
	if r.OK() {
		b.WriteString("**All checks passed.**\n\n")
	} else {
		fmt.Fprintf(&b, "**%d error(s)**\n\n", len(r.Errors))
	}

	if len(r.Errors) > 0 {
		b.WriteString("## Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
	if len(r.Order) > 0 {
		fmt.Fprintf(&b, "Topological order: `%s`\n\n", strings.Join(r.Order, " → "))
	}
	if len(r.Coverage) > 0 {
		full, aggregate := 0, 0
		for _, row := range r.Coverage {
			if row.CoveredFull {
				full++
			}
			if row.CoveredAggregate {
				aggregate++
			}
		}
		b.WriteString("## Coverage\n\n")
		fmt.Fprintf(&b, "%d fields; %d covered by full_downstream, %d by aggregate_only.\n\n", len(r.Coverage), full, aggregate)
		b.WriteString("| field | producer | full | aggregate_only |\n|---|---|---|---|\n")
		for _, row := range r.Coverage {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", row.Field, row.Producer, yn(row.CoveredFull), yn(row.CoveredAggregate))
		}
	}
	return b.String()
}
