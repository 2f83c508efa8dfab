package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryFood      Category = "Food"
	CategoryDrink     Category = "Drink"
	CategoryGroceries Category = "Groceries"
	CategoryItem      Category = "Item"
	CategoryDessert   Category = "Dessert"
	CategoryOthers    Category = "Others"
)

const (
	WindowToday     WindowKind = "today"
	WindowYesterday WindowKind = "yesterday"
	WindowWeek      WindowKind = "week"
	WindowMonth     WindowKind = "month"
)

type (
	// Category is the fixed transaction classification.
	Category string

	// WindowKind selects one of the fixed query time windows.
	WindowKind string

	// Date is a calendar day with no time-of-day component.
	Date struct {
		time.Time
	}

	// Money is a fixed-point currency amount in cents.
	Money struct {
		Cents int64
	}

	// Transaction is a single stored purchase record.
	Transaction struct {
		ID       int64
		Date     Date
		Name     string
		Cost     Money
		Quantity int64
		Category Category
		Owner    string
	}
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryFood,
	CategoryDrink,
	CategoryGroceries,
	CategoryItem,
	CategoryDessert,
	CategoryOthers,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today truncates now to its calendar day.
func Today(now time.Time) Date {
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDDMMYY parses a 6-digit day-month-year token. Impossible
// calendar dates (e.g. 310225) are rejected, not wrapped.
func ParseDDMMYY(token string) (Date, error) {
	if len(token) != 6 {
		return Date{}, fmt.Errorf("%w: want DDMMYY, got %q", ErrInvalidDate, token)
	}
	t, err := time.ParseInLocation("020106", token, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not a valid calendar date", ErrInvalidDate, token)
	}
	return Date{Time: t}, nil
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Time.Year(), int(d.Time.Month()), 1)
}

// Before reports whether d is an earlier calendar day than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

// String renders the date in ISO form, which is also the stored form.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// ParseStoredDate parses the ISO form produced by String.
func ParseStoredDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

// ParseMoney parses a decimal amount like "5" or "5.00" into cents.
// Negative amounts are rejected.
func ParseMoney(s string) (Money, error) {
	dec, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	if dec.IsNegative() {
		return Money{}, fmt.Errorf("%w: amount must not be negative", ErrInvalidNumber)
	}
	cents := dec.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return Money{}, fmt.Errorf("%w: %q has more than two decimal places", ErrInvalidNumber, s)
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Mul scales the amount by a quantity.
func (m Money) Mul(quantity int64) Money {
	return Money{Cents: m.Cents * quantity}
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

// Decimal returns the amount as a two-decimal-place value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two decimal places.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidNumber)
	}
	return nil
}

// Total is the transaction's value: cost times quantity.
func (t Transaction) Total() Money {
	return t.Cost.Mul(t.Quantity)
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if err := t.Cost.Validate(); err != nil {
		return err
	}
	if t.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidNumber)
	}
	if !t.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidCategory, t.Category)
	}
	return nil
}
