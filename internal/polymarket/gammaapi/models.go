package gammaapi

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Event represents a Gamma API event
type Event struct {
	ID         string   `json:"id"`
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Volume     Number   `json:"volume"`
	Volume24hr Number   `json:"volume24hr"`
	Markets    []Market `json:"markets"`
}

// Market represents one outcome set within an event
type Market struct {
	ID            string         `json:"id"`
	Question      string         `json:"question"`
	Group         []OutcomeGroup `json:"group,omitempty"`
	OutcomePrices StringList     `json:"outcomePrices,omitempty"` // market-level prices, e.g. ["0.02","0.98"]
}

// OutcomeGroup carries the prices of a market's outcomes; index 0 is the primary outcome
type OutcomeGroup struct {
	OutcomePrices StringList `json:"outcomePrices,omitempty"`
}

// Number is a numeric field the API sends either as a JSON number or as a
// numeric string. Decoding never fails; Decimal reports whether the value parses.
type Number struct {
	raw string
	set bool
}

// NewNumber wraps a raw numeric text
func NewNumber(raw string) Number {
	return Number{raw: raw, set: true}
}

// IsSet reports whether the field was present and non-null
func (n Number) IsSet() bool {
	return n.set
}

// String returns the raw text as received
func (n Number) String() string {
	return n.raw
}

// Decimal parses the value
func (n Number) Decimal() (decimal.Decimal, bool) {
	if !n.set {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimSpace(n.raw))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			raw = s
		}
	}

	*n = Number{raw: raw, set: true}
	return nil
}

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}

// StringList is a list of numeric strings. The live API encodes it as a string
// holding a JSON array ("[\"0.73\", \"0.27\"]"); a plain JSON array is accepted
// too. Anything else decodes to an empty list.
type StringList []string

// UnmarshalJSON implements json.Unmarshaler
func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = parseStringList(data, true)
	return nil
}

func parseStringList(data []byte, allowEncoded bool) StringList {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		if !allowEncoded {
			return nil
		}
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil
		}
		return parseStringList([]byte(inner), false)

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil
		}
		list := make(StringList, 0, len(items))
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				list = append(list, s)
				continue
			}
			list = append(list, string(bytes.TrimSpace(item)))
		}
		return list
	}

	return nil
}
