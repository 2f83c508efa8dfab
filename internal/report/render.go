package report

import (
	"fmt"
	"sort"
	"strings"

	"spendbot/internal/core"
)

// Display truncation limit for transaction names. Storage keeps the
// full name; only the rendered views cut it.
const maxNameWidth = 20

// RenderList renders day-grouped transactions as a monospace table.
// Returns the records-empty fallback when there is nothing to show.
func RenderList(groups []DayGroup) string {
	if len(groups) == 0 {
		return "No transactions found."
	}

	var b strings.Builder
	for i, group := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", group.Date.Format("Mon 02 Jan 2006"))
		for _, record := range group.Records {
			fmt.Fprintf(&b, "%4d  %-*s %9s  x%-3d %s\n",
				record.ID,
				maxNameWidth, truncateName(record.Name),
				"$"+record.Cost.String(),
				record.Quantity,
				record.Category)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderSummary renders an aggregation result, categories sorted by
// descending total so the biggest spend reads first.
func RenderSummary(s Summary, title string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)

	if len(s.Totals) == 0 {
		b.WriteString("No transactions found.")
		return b.String()
	}

	categories := make([]core.Category, 0, len(s.Totals))
	for category := range s.Totals {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		if s.Totals[categories[i]].Cents != s.Totals[categories[j]].Cents {
			return s.Totals[categories[i]].Cents > s.Totals[categories[j]].Cents
		}
		return categories[i] < categories[j]
	})

	for _, category := range categories {
		fmt.Fprintf(&b, "%-10s %9s", category, "$"+s.Totals[category].String())
		if s.Averages != nil {
			fmt.Fprintf(&b, "  ($%s/day)", s.Averages[category].StringFixed(2))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "%-10s %9s\n", "Total", "$"+s.Total.String())

	if s.Max != nil {
		fmt.Fprintf(&b, "Biggest: %s x%d at $%s",
			truncateName(s.Max.Name), s.Max.Quantity, s.Max.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxNameWidth {
		return name
	}
	return string(runes[:maxNameWidth-1]) + "…"
}
