// Package core provides money parsing and handling utilities.
//
// Amounts are kept in cents so sums stay exact; the persisted form is a
// plain decimal number.
package core

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

type Money struct {
	Cents int64
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv >= maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// maxCents bounds amounts read as floats; larger values do not fit in int64.
const maxCents = float64(1 << 63)

// CoerceAmount parses user input leniently. Decimals with dot or comma are
// read exactly; otherwise the longest numeric prefix is used, so "1e3" is
// 1000 and "1500abc" is 1500. Anything else, and anything that is not
// positive, becomes zero. It never fails.
func CoerceAmount(raw string) Money {
	if cents, err := ParseDecimalToCents(raw); err == nil {
		return Money{Cents: cents}
	}
	f, ok := leadingFloat(strings.TrimSpace(raw))
	if !ok || f <= 0 {
		return Money{}
	}
	return MoneyFromFloat(f)
}

// leadingFloat parses the longest prefix of s that is a plain decimal or
// exponent number.
func leadingFloat(s string) (float64, bool) {
	for end := len(s); end > 0; end-- {
		prefix := s[:end]
		if strings.ContainsAny(prefix, "xXpP_") || strings.ContainsAny(prefix[len(prefix)-1:], "eE") {
			continue
		}
		f, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			continue
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// MoneyFromFloat rounds a decimal amount to cents. NaN, infinities and
// amounts beyond the int64 cent range become zero.
func MoneyFromFloat(f float64) Money {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f*100) >= maxCents {
		return Money{}
	}
	return Money{Cents: int64(math.Round(f * 100))}
}

// Float64 returns the amount in currency units, for display and JSON only.
// Use cents for calculations.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) String() string {
	return strconv.FormatFloat(m.Float64(), 'f', -1, 64)
}

func (m Money) IsZero() bool {
	return m.Cents == 0
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null (zero).
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(strings.TrimSpace(s))
		if len(data) == 0 {
			*m = Money{}
			return nil
		}
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.Abs(f*100) >= maxCents {
		return ErrInvalidAmount
	}
	*m = MoneyFromFloat(f)
	return nil
}
