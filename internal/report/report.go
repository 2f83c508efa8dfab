// Package report computes aggregates over transaction records and
// renders the list and summary views sent back to chat.
package report

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"spendbot/internal/core"
	"spendbot/internal/log"
)

// MaxTransaction is the single most expensive transaction in a
// summary, valued at cost times quantity.
type MaxTransaction struct {
	Name     string
	Quantity int64
	Value    core.Money
}

// Summary is the aggregation result for one summary request. It is
// computed per request and never persisted.
type Summary struct {
	Totals   map[core.Category]core.Money
	Averages map[core.Category]decimal.Decimal
	Total    core.Money
	Days     int
	Max      *MaxTransaction
	Skipped  int
}

// Summarize aggregates records against a day-count divisor: per-
// category totals of cost x quantity, per-day averages (only when days
// is positive), and the single most expensive transaction.
//
// Ties on the max go to the first record seen: the comparison is
// strictly greater, never greater-or-equal. Records carrying a
// category outside the enumeration are skipped and logged rather than
// aborting the whole aggregation; the store may have drifted but a
// summary must still come back.
func Summarize(records []core.Transaction, days int) Summary {
	s := Summary{
		Totals: make(map[core.Category]core.Money),
		Days:   days,
	}

	for _, record := range records {
		if !record.Category.Valid() {
			slog.Warn("Skipping record with unknown category",
				log.FieldComponent, log.ComponentReport,
				log.FieldTransaction, record.ID,
				log.FieldCategory, string(record.Category))
			s.Skipped++
			continue
		}

		value := record.Total()
		s.Totals[record.Category] = s.Totals[record.Category].Add(value)
		s.Total = s.Total.Add(value)

		if s.Max == nil || value.Cents > s.Max.Value.Cents {
			s.Max = &MaxTransaction{
				Name:     record.Name,
				Quantity: record.Quantity,
				Value:    value,
			}
		}
	}

	if days > 0 {
		divisor := decimal.NewFromInt(int64(days))
		s.Averages = make(map[core.Category]decimal.Decimal, len(s.Totals))
		for category, total := range s.Totals {
			s.Averages[category] = total.Decimal().Div(divisor).Round(2)
		}
	}

	return s
}

// DayGroup holds one calendar day's records in storage order.
type DayGroup struct {
	Date    core.Date
	Records []core.Transaction
}

// GroupByDay splits records into per-day groups, days ascending,
// preserving the storage-returned order within each day.
func GroupByDay(records []core.Transaction) []DayGroup {
	var groups []DayGroup
	index := make(map[string]int)

	for _, record := range records {
		key := record.Date.String()
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, DayGroup{Date: record.Date})
		}
		groups[i].Records = append(groups[i].Records, record)
	}

	// Insertion order already matches storage order; sort days only.
	for i := 1; i < len(groups); i++ {
		for j := i; j > 0 && groups[j].Date.Before(groups[j-1].Date); j-- {
			groups[j], groups[j-1] = groups[j-1], groups[j]
		}
	}

	return groups
}
