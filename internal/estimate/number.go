package estimate

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a lenient numeric form value. It decodes JSON numbers, numeric
// strings, "" and null; anything it cannot parse decodes to 0.
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		raw = s
	}

	*n = Number(ParseNumber(raw))
	return nil
}

// Float64 returns the value as a finite float64
func (n Number) Float64() float64 {
	return Finite(float64(n))
}

// ParseNumber parses s as a decimal number, returning 0 for blank or
// unparseable input. Thousands separators are ignored.
func ParseNumber(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return Finite(d.InexactFloat64())
}

// Round rounds v half away from zero to the given number of decimal places
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(Finite(v)).Round(places).InexactFloat64()
}
