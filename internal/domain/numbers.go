package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a float64 that decodes leniently: JSON numbers, numeric strings,
// null and anything unparseable (which becomes 0).
type Number float64

// Float returns the value, mapping NaN and infinities to 0.
func (n Number) Float() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number(lenientFloat(data))
	return nil
}

// Count is an int with the same lenient decoding as Number. Negative and
// fractional inputs are truncated toward zero and clamped at 0.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	f := lenientFloat(data)
	if f < 0 {
		f = 0
	}
	*c = Count(int(f))
	return nil
}

// Int returns the count as an int.
func (c Count) Int() int { return int(c) }

func lenientFloat(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return 0
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		return sanitize(f)
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return sanitize(parsed)
		}
	}
	return 0
}

func sanitize(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
