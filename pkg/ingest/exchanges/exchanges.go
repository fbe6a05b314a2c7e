// Package exchanges normalizes CSV and XLSX exports of supported exchanges.
package exchanges

import (
	"regexp"
	"strconv"
	"strings"
)

// Transaction is a normalized exchange export row
type Transaction struct {
	Date   string   `json:"date"`
	Type   string   `json:"type"`
	Asset  string   `json:"asset"`
	Amount float64  `json:"amount"`
	Price  *float64 `json:"price,omitempty"`
	Fee    *float64 `json:"fee,omitempty"`
}

// Exchange describes a supported export format
type Exchange struct {
	Value           string   `json:"value"`
	Label           string   `json:"label"`
	LogoURL         string   `json:"logoUrl"`
	RequiredColumns []string `json:"requiredColumns"`

	mapRows func(rows [][]string) []Transaction
}

// Map normalizes a sheet whose rows are still raw cells
func (e *Exchange) Map(rows [][]string) []Transaction {
	out := e.mapRows(rows)
	if out == nil {
		return []Transaction{}
	}
	return out
}

var registry = []*Exchange{binance, coinbase, xtb}

// All returns the supported exchanges
func All() []*Exchange {
	return registry
}

// Find returns the exchange named value, or nil
func Find(value string) *Exchange {
	for _, e := range registry {
		if e.Value == value {
			return e
		}
	}
	return nil
}

// MapTransactions normalizes rows of the named exchange; unknown exchanges yield nothing
func MapTransactions(value string, rows [][]string) []Transaction {
	e := Find(value)
	if e == nil {
		return []Transaction{}
	}
	return e.Map(rows)
}

// record is a data row keyed by header
type record map[string]string

// records keys every row after header by the header cells
func records(header []string, rows [][]string) []record {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = strings.TrimSpace(h)
	}

	out := make([]record, 0, len(rows))
	for _, row := range rows {
		rec := make(record, len(keys))
		empty := true
		for i, key := range keys {
			if i >= len(row) || key == "" {
				continue
			}
			rec[key] = row[i]
			if strings.TrimSpace(row[i]) != "" {
				empty = false
			}
		}
		if !empty {
			out = append(out, rec)
		}
	}
	return out
}

// get looks a column up by exact name, then case-insensitively
func (r record) get(column string) string {
	if v, ok := r[column]; ok && v != "" {
		return strings.TrimSpace(v)
	}
	for k, v := range r {
		if strings.EqualFold(k, column) && v != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func (r record) number(column string) float64 {
	return leadingFloat(r.get(column))
}

func (r record) numberPtr(column string) *float64 {
	v := r.number(column)
	return &v
}

var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// leadingFloat parses the numeric prefix of s; anything else is zero
func leadingFloat(s string) float64 {
	m := numberPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return f
}
