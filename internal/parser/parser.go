// Package parser turns raw command text into structured intents.
//
// Each grammar mirrors the commands users type in chat, e.g.
//
//	/food $6.90 Chicken Rice x2
//	/backdate 120425 food $5.00 Kopi
//	/update 3 name Chicken Rice
//
// A failed match returns a parse error carrying the expected grammar so
// the dispatcher can echo it back verbatim.
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"spendbot/internal/core"
)

var (
	addRe      = regexp.MustCompile(`^\$(\d+(?:\.\d{2})?)\s+(.+?)(?:\s+x(\d+))?$`)
	backdateRe = regexp.MustCompile(`^(\d{6})\s+(\w+)\s+\$(\d+(?:\.\d{2})?)\s+(.+?)(?:\s+x(\d+))?$`)
	updateRe   = regexp.MustCompile(`^(\d+)\s+(\w+)\s+(.+)$`)
	deleteRe   = regexp.MustCompile(`^(\d+)$`)
	summaryRe  = regexp.MustCompile(`^\d{4}$`)
)

// Grammar hints echoed to the user on a parse failure.
const (
	GrammarAdd      = "$<cost> <name> [x<quantity>]"
	GrammarBackdate = "<DDMMYY> <category> $<cost> <name> [x<quantity>]"
	GrammarUpdate   = "<id> <field> <value>"
	GrammarDelete   = "<id>"
	GrammarSummary  = "[MMYY]"
	GrammarSelect   = "select ..."
)

// ParseAdd parses a category-add command body. The command line (the
// full original text, keyword included) drives category resolution.
func ParseAdd(line, text string) (core.AddTransaction, error) {
	match := addRe.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return core.AddTransaction{}, core.NewError(core.KindParse, GrammarAdd)
	}

	cost, err := core.ParseMoney(match[1])
	if err != nil {
		return core.AddTransaction{}, err
	}
	name := strings.TrimSpace(match[2])
	if name == "" {
		return core.AddTransaction{}, core.ErrEmptyName
	}
	quantity, err := parseQuantity(match[3])
	if err != nil {
		return core.AddTransaction{}, err
	}

	return core.AddTransaction{
		Category: ResolveCategory(line),
		Cost:     cost,
		Name:     name,
		Quantity: quantity,
	}, nil
}

// ParseBackdate parses a backdated add. The date token must be a real
// calendar date; day 31 in a 30-day month is rejected, never wrapped.
func ParseBackdate(line, text string) (core.BackdatedAdd, error) {
	match := backdateRe.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return core.BackdatedAdd{}, core.NewError(core.KindParse, GrammarBackdate)
	}

	date, err := core.ParseDDMMYY(match[1])
	if err != nil {
		return core.BackdatedAdd{}, err
	}
	cost, err := core.ParseMoney(match[3])
	if err != nil {
		return core.BackdatedAdd{}, err
	}
	name := strings.TrimSpace(match[4])
	if name == "" {
		return core.BackdatedAdd{}, core.ErrEmptyName
	}
	quantity, err := parseQuantity(match[5])
	if err != nil {
		return core.BackdatedAdd{}, err
	}

	return core.BackdatedAdd{
		Date:     date,
		Category: ResolveCategory(line),
		Cost:     cost,
		Name:     name,
		Quantity: quantity,
	}, nil
}

// ParseUpdate parses "<id> <field> <value>". The field token is
// lower-cased; the value is the trimmed remainder and is coerced later
// by the normalizer, not here.
func ParseUpdate(text string) (core.UpdateField, error) {
	match := updateRe.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return core.UpdateField{}, core.NewError(core.KindParse, GrammarUpdate)
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id < 1 {
		return core.UpdateField{}, core.NewError(core.KindParse, GrammarUpdate)
	}
	return core.UpdateField{
		ID:       id,
		Field:    strings.ToLower(match[2]),
		RawValue: strings.TrimSpace(match[3]),
	}, nil
}

// ParseDelete parses "<id>" and nothing else.
func ParseDelete(text string) (core.DeleteByID, error) {
	match := deleteRe.FindStringSubmatch(strings.TrimSpace(text))
	if match == nil {
		return core.DeleteByID{}, core.NewError(core.KindParse, GrammarDelete)
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || id < 1 {
		return core.DeleteByID{}, core.NewError(core.KindParse, GrammarDelete)
	}
	return core.DeleteByID{ID: id}, nil
}

// ParseSummary parses an optional MMYY token. Empty means current
// month to date; anything present but not exactly four digits is a
// parse failure.
func ParseSummary(text string) (core.SummaryQuery, error) {
	token := strings.TrimSpace(text)
	if token == "" {
		return core.SummaryQuery{}, nil
	}
	if !summaryRe.MatchString(token) {
		return core.SummaryQuery{}, core.NewError(core.KindParse, GrammarSummary)
	}
	return core.SummaryQuery{Period: token}, nil
}

// ParseRawSelect accepts only text that starts with the SELECT keyword,
// case-insensitively. This is a safety boundary, not a SQL grammar:
// anything else never reaches the store.
func ParseRawSelect(text string) (core.RawSelect, error) {
	query := strings.TrimSpace(text)
	if len(query) < len("select") || !strings.EqualFold(query[:len("select")], "select") {
		return core.RawSelect{}, core.ErrNotSelect
	}
	return core.RawSelect{Query: query}, nil
}

func parseQuantity(token string) (int64, error) {
	if token == "" {
		return 1, nil
	}
	quantity, err := strconv.ParseInt(token, 10, 64)
	if err != nil || quantity < 1 {
		return 0, core.Errorf(core.KindValidation, "quantity must be a positive integer: %w", core.ErrInvalidNumber)
	}
	return quantity, nil
}
