package postgres

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// NUMERIC columns travel as text so decimal precision survives both ways.

func numericArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNumeric(s *string) (*decimal.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return &d, nil
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
