package report

import (
	"strings"
	"testing"

	"spendbot/internal/core"
)

func tx(id int64, date core.Date, name string, cents, quantity int64, category core.Category) core.Transaction {
	return core.Transaction{
		ID:       id,
		Date:     date,
		Name:     name,
		Cost:     core.Money{Cents: cents},
		Quantity: quantity,
		Category: category,
		Owner:    "chat-1",
	}
}

func TestSummarizeTotals(t *testing.T) {
	day := core.NewDate(2025, 7, 10)
	records := []core.Transaction{
		tx(1, day, "Chicken Rice", 500, 2, core.CategoryFood),
		tx(2, day, "Kopi", 180, 1, core.CategoryDrink),
		tx(3, day, "Laksa", 650, 1, core.CategoryFood),
	}

	s := Summarize(records, 10)

	if got := s.Totals[core.CategoryFood].Cents; got != 1650 {
		t.Errorf("Food total = %d, want 1650", got)
	}
	if got := s.Totals[core.CategoryDrink].Cents; got != 180 {
		t.Errorf("Drink total = %d, want 180", got)
	}

	// Grand total must equal the sum of cost*quantity over all records
	// regardless of how they partition by category.
	var want int64
	for _, r := range records {
		want += r.Total().Cents
	}
	if s.Total.Cents != want {
		t.Errorf("Total = %d, want %d", s.Total.Cents, want)
	}
}

func TestSummarizeAverages(t *testing.T) {
	day := core.NewDate(2025, 7, 10)
	records := []core.Transaction{
		tx(1, day, "Chicken Rice", 500, 2, core.CategoryFood), // 10.00
	}

	s := Summarize(records, 4)
	if got := s.Averages[core.CategoryFood].StringFixed(2); got != "2.50" {
		t.Errorf("Food average = %s, want 2.50", got)
	}

	// No averages without a positive day count.
	s = Summarize(records, 0)
	if s.Averages != nil {
		t.Errorf("Averages with zero days = %v, want nil", s.Averages)
	}
}

func TestSummarizeMaxTieBreak(t *testing.T) {
	day := core.NewDate(2025, 7, 10)
	// Identical cost*quantity: 2x500 vs 1x1000. First seen wins.
	records := []core.Transaction{
		tx(1, day, "First", 500, 2, core.CategoryFood),
		tx(2, day, "Second", 1000, 1, core.CategoryDrink),
	}

	s := Summarize(records, 1)
	if s.Max == nil {
		t.Fatal("Max = nil")
	}
	if s.Max.Name != "First" {
		t.Errorf("Max.Name = %q, want \"First\" (first seen wins on tie)", s.Max.Name)
	}
	if s.Max.Value.Cents != 1000 {
		t.Errorf("Max.Value = %d, want 1000", s.Max.Value.Cents)
	}
}

func TestSummarizeMaxStrictlyGreaterWins(t *testing.T) {
	day := core.NewDate(2025, 7, 10)
	records := []core.Transaction{
		tx(1, day, "Small", 100, 1, core.CategoryFood),
		tx(2, day, "Big", 300, 3, core.CategoryItem),
		tx(3, day, "Medium", 400, 1, core.CategoryDrink),
	}

	s := Summarize(records, 1)
	if s.Max == nil || s.Max.Name != "Big" {
		t.Fatalf("Max = %+v, want Big", s.Max)
	}
	if s.Max.Quantity != 3 {
		t.Errorf("Max.Quantity = %d, want 3", s.Max.Quantity)
	}
}

func TestSummarizeSkipsUnknownCategory(t *testing.T) {
	day := core.NewDate(2025, 7, 10)
	records := []core.Transaction{
		tx(1, day, "Good", 500, 1, core.CategoryFood),
		tx(2, day, "Drifted", 9999, 1, "Snaks"),
		tx(3, day, "Also good", 200, 1, core.CategoryDrink),
	}

	s := Summarize(records, 1)
	if s.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", s.Skipped)
	}
	if s.Total.Cents != 700 {
		t.Errorf("Total = %d, want 700 (corrupt record excluded)", s.Total.Cents)
	}
	if s.Max == nil || s.Max.Name != "Good" {
		t.Errorf("Max = %+v, want Good", s.Max)
	}
}

func TestGroupByDay(t *testing.T) {
	d1 := core.NewDate(2025, 7, 8)
	d2 := core.NewDate(2025, 7, 9)
	// Storage order within a day must survive; days sort ascending.
	records := []core.Transaction{
		tx(4, d2, "B1", 100, 1, core.CategoryFood),
		tx(1, d1, "A1", 100, 1, core.CategoryFood),
		tx(5, d2, "B2", 100, 1, core.CategoryFood),
		tx(2, d1, "A2", 100, 1, core.CategoryFood),
	}

	groups := GroupByDay(records)
	if len(groups) != 2 {
		t.Fatalf("len(groups) = %d, want 2", len(groups))
	}
	if !groups[0].Date.Equal(d1) || !groups[1].Date.Equal(d2) {
		t.Errorf("group dates = %v, %v; want ascending %v, %v", groups[0].Date, groups[1].Date, d1, d2)
	}
	if groups[0].Records[0].Name != "A1" || groups[0].Records[1].Name != "A2" {
		t.Errorf("day one order = %q, %q; want A1, A2", groups[0].Records[0].Name, groups[0].Records[1].Name)
	}
	if groups[1].Records[0].Name != "B1" || groups[1].Records[1].Name != "B2" {
		t.Errorf("day two order = %q, %q; want B1, B2", groups[1].Records[0].Name, groups[1].Records[1].Name)
	}
}

func TestRenderList(t *testing.T) {
	if got := RenderList(nil); got != "No transactions found." {
		t.Errorf("RenderList(nil) = %q", got)
	}

	day := core.NewDate(2025, 7, 10)
	groups := GroupByDay([]core.Transaction{
		tx(1, day, "A very long transaction name indeed", 500, 1, core.CategoryFood),
	})
	got := RenderList(groups)
	if !strings.Contains(got, "Thu 10 Jul 2025") {
		t.Errorf("RenderList missing day header: %q", got)
	}
	if strings.Contains(got, "indeed") {
		t.Errorf("RenderList did not truncate long name: %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	day := core.NewDate(2025, 7, 10)
	s := Summarize([]core.Transaction{
		tx(1, day, "Chicken Rice", 500, 2, core.CategoryFood),
		tx(2, day, "Kopi", 180, 1, core.CategoryDrink),
	}, 5)

	got := RenderSummary(s, "Summary for July 2025")
	if !strings.Contains(got, "Summary for July 2025") {
		t.Errorf("missing title: %q", got)
	}
	if !strings.Contains(got, "$10.00") {
		t.Errorf("missing food total: %q", got)
	}
	if !strings.Contains(got, "$2.00/day") {
		t.Errorf("missing per-day average: %q", got)
	}
	if !strings.Contains(got, "Biggest: Chicken Rice x2 at $10.00") {
		t.Errorf("missing max transaction: %q", got)
	}
	// Food ($10.00) must render before Drink ($1.80).
	if strings.Index(got, "Food") > strings.Index(got, "Drink") {
		t.Errorf("categories not sorted by descending total: %q", got)
	}
}
