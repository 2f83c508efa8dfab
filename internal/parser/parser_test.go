package parser

import (
	"errors"
	"fmt"
	"testing"

	"spendbot/internal/core"
)

func TestParseAdd(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		text     string
		want     core.AddTransaction
		wantErr  bool
		errKind  core.Kind
	}{
		{
			name: "cost name quantity",
			line: "/food $6.90 Chicken Rice x2",
			text: "$6.90 Chicken Rice x2",
			want: core.AddTransaction{
				Category: core.CategoryFood,
				Cost:     core.Money{Cents: 690},
				Name:     "Chicken Rice",
				Quantity: 2,
			},
		},
		{
			name: "quantity defaults to one",
			line: "/drink $2 Kopi",
			text: "$2 Kopi",
			want: core.AddTransaction{
				Category: core.CategoryDrink,
				Cost:     core.Money{Cents: 200},
				Name:     "Kopi",
				Quantity: 1,
			},
		},
		{
			name: "name containing x token",
			line: "/item $30 xbox controller",
			text: "$30 xbox controller",
			want: core.AddTransaction{
				Category: core.CategoryItem,
				Cost:     core.Money{Cents: 3000},
				Name:     "xbox controller",
				Quantity: 1,
			},
		},
		{
			name:    "missing dollar sign",
			line:    "/food 6.90 Chicken Rice",
			text:    "6.90 Chicken Rice",
			wantErr: true,
			errKind: core.KindParse,
		},
		{
			name:    "one-digit cents",
			line:    "/food $6.9 Chicken Rice",
			text:    "$6.9 Chicken Rice",
			wantErr: true,
			errKind: core.KindParse,
		},
		{
			name:    "empty body",
			line:    "/food",
			text:    "",
			wantErr: true,
			errKind: core.KindParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAdd(tt.line, tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAdd(%q) = %+v, want error", tt.text, got)
				}
				if kind := core.KindOf(err); kind != tt.errKind {
					t.Errorf("ParseAdd(%q) error kind = %v, want %v", tt.text, kind, tt.errKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAdd(%q) error = %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("ParseAdd(%q) = %+v, want %+v", tt.text, got, tt.want)
			}
		})
	}
}

// Parsing then re-rendering a valid add command must round-trip the
// cost, name, and quantity.
func TestParseAddRoundTrip(t *testing.T) {
	inputs := []struct {
		cost     string
		name     string
		quantity int64
	}{
		{"5.00", "Chicken Rice", 1},
		{"12.34", "Nasi Lemak", 3},
		{"0.50", "Sweet", 1},
		{"100.00", "Groceries run", 2},
	}

	for _, in := range inputs {
		text := fmt.Sprintf("$%s %s x%d", in.cost, in.name, in.quantity)
		got, err := ParseAdd("/food "+text, text)
		if err != nil {
			t.Fatalf("ParseAdd(%q) error = %v", text, err)
		}
		rendered := fmt.Sprintf("$%s %s x%d", got.Cost, got.Name, got.Quantity)
		if rendered != text {
			t.Errorf("round trip of %q = %q", text, rendered)
		}
	}
}

func TestParseBackdate(t *testing.T) {
	got, err := ParseBackdate("/backdate 120425 food $5.00 Chicken Rice x2", "120425 food $5.00 Chicken Rice x2")
	if err != nil {
		t.Fatalf("ParseBackdate error = %v", err)
	}
	want := core.BackdatedAdd{
		Date:     core.NewDate(2025, 4, 12),
		Category: core.CategoryFood,
		Cost:     core.Money{Cents: 500},
		Name:     "Chicken Rice",
		Quantity: 2,
	}
	if got != want {
		t.Errorf("ParseBackdate = %+v, want %+v", got, want)
	}
}

func TestParseBackdateInvalidCalendarDate(t *testing.T) {
	_, err := ParseBackdate("/backdate 310225 food $5.00 Test", "310225 food $5.00 Test")
	if err == nil {
		t.Fatal("ParseBackdate accepted Feb 31")
	}
	if !errors.Is(err, core.ErrInvalidDate) {
		t.Errorf("error = %v, want ErrInvalidDate", err)
	}
	if kind := core.KindOf(err); kind != core.KindValidation {
		t.Errorf("error kind = %v, want %v", kind, core.KindValidation)
	}
}

func TestParseBackdateBadGrammar(t *testing.T) {
	for _, text := range []string{"food $5.00 Test", "1204 food $5.00 Test", ""} {
		if _, err := ParseBackdate("/backdate "+text, text); core.KindOf(err) != core.KindParse {
			t.Errorf("ParseBackdate(%q) error = %v, want parse failure", text, err)
		}
	}
}

func TestParseUpdate(t *testing.T) {
	got, err := ParseUpdate("3 Name Chicken Rice")
	if err != nil {
		t.Fatalf("ParseUpdate error = %v", err)
	}
	want := core.UpdateField{ID: 3, Field: "name", RawValue: "Chicken Rice"}
	if got != want {
		t.Errorf("ParseUpdate = %+v, want %+v", got, want)
	}

	for _, text := range []string{"", "3", "3 name", "x name y"} {
		if _, err := ParseUpdate(text); core.KindOf(err) != core.KindParse {
			t.Errorf("ParseUpdate(%q) error = %v, want parse failure", text, err)
		}
	}
}

func TestParseDelete(t *testing.T) {
	got, err := ParseDelete("42")
	if err != nil {
		t.Fatalf("ParseDelete error = %v", err)
	}
	if got.ID != 42 {
		t.Errorf("ParseDelete id = %d, want 42", got.ID)
	}

	for _, text := range []string{"", "abc", "42 extra", "-1"} {
		if _, err := ParseDelete(text); core.KindOf(err) != core.KindParse {
			t.Errorf("ParseDelete(%q) error = %v, want parse failure", text, err)
		}
	}
}

func TestParseSummary(t *testing.T) {
	got, err := ParseSummary("")
	if err != nil || got.Period != "" {
		t.Errorf("ParseSummary(\"\") = %+v, %v; want empty period", got, err)
	}

	got, err = ParseSummary(" 1225 ")
	if err != nil || got.Period != "1225" {
		t.Errorf("ParseSummary(\"1225\") = %+v, %v; want period 1225", got, err)
	}

	for _, text := range []string{"122", "12255", "12ab", "dec25"} {
		if _, err := ParseSummary(text); core.KindOf(err) != core.KindParse {
			t.Errorf("ParseSummary(%q) error = %v, want parse failure", text, err)
		}
	}
}

func TestParseRawSelect(t *testing.T) {
	got, err := ParseRawSelect("SELECT * FROM transactions")
	if err != nil {
		t.Fatalf("ParseRawSelect error = %v", err)
	}
	if got.Query != "SELECT * FROM transactions" {
		t.Errorf("query = %q", got.Query)
	}

	if _, err := ParseRawSelect("select name from transactions"); err != nil {
		t.Errorf("lowercase select rejected: %v", err)
	}

	for _, text := range []string{"DROP TABLE transactions", "DELETE FROM transactions", "", "sel"} {
		_, err := ParseRawSelect(text)
		if !errors.Is(err, core.ErrNotSelect) {
			t.Errorf("ParseRawSelect(%q) error = %v, want ErrNotSelect", text, err)
		}
		if core.KindOf(err) != core.KindSafety {
			t.Errorf("ParseRawSelect(%q) kind = %v, want safety rejection", text, core.KindOf(err))
		}
	}
}

func TestResolveCategory(t *testing.T) {
	tests := []struct {
		line string
		want core.Category
	}{
		{"/food $5.00 Chicken Rice", core.CategoryFood},
		{"/drink $2 Kopi", core.CategoryDrink},
		{"/grocery $20 Weekly run", core.CategoryGroceries},
		{"/item $30 Controller", core.CategoryItem},
		{"/dessert $4 Ice Kacang", core.CategoryDessert},
		{"/backdate 120425 zzz $5.00 Mystery", core.CategoryOthers},
		// Rule order over the whole line, name included: "food" in the
		// name wins over the /item keyword.
		{"/item $2 fooddrink", core.CategoryFood},
		{"/FOOD $5.00 Loud Lunch", core.CategoryFood},
	}

	for _, tt := range tests {
		if got := ResolveCategory(tt.line); got != tt.want {
			t.Errorf("ResolveCategory(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
