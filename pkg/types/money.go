package types

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary value or quantity.
//
// Stored documents and client payloads are loosely typed: a cost may arrive
// as a number, a numeric string, an empty string or be missing entirely.
// Anything that does not parse as a finite number decodes to zero.
type Amount float64

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*a = 0
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = 0
			return nil
		}
		*a = ParseAmount(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			*a = 0
			return nil
		}
		*a = Amount(f)
	default:
		// null, booleans, objects and arrays
		*a = 0
	}
	return nil
}

// ParseAmount parses s the way a form field would be read: leading numeric
// prefix, zero when nothing parses.
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Amount(f)
	}

	end := 0
	for i, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || (i == 0 && (r == '-' || r == '+')) {
			end = i + 1
			continue
		}
		break
	}
	for end > 0 {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return Amount(f)
		}
		end--
	}
	return 0
}

// Float64 returns the amount as a float64.
func (a Amount) Float64() float64 { return float64(a) }

// Ptr returns a pointer to a. Handy when building patches.
func (a Amount) Ptr() *Amount { return &a }
