package core

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceField validates and converts a raw update value by field name.
// Three fields have typed coercions; any other field passes through as
// opaque text, since the set of columns is owned by the store, not the
// code. A coercion failure here is what keeps bad values from ever
// reaching a write.
func CoerceField(field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(field) {
	case "date":
		date, err := ParseDDMMYY(raw)
		if err != nil {
			return nil, err
		}
		return date, nil
	case "cost":
		cost, err := ParseMoney(raw)
		if err != nil {
			return nil, err
		}
		return cost, nil
	case "quantity":
		quantity, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
		}
		if quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidNumber)
		}
		return quantity, nil
	default:
		return raw, nil
	}
}
