package cart

import "encoding/json"

// ParseQuantity converts free-form quantity input into an int, truncating
// fractional values. The second result is false when the input is empty or
// not numeric; callers decide the fallback (add defaults to one, update
// rejects).
func ParseQuantity(raw json.Number) (int, bool) {
	s := raw.String()
	if s == "" {
		return 0, false
	}
	if n, err := raw.Int64(); err == nil {
		return int(n), true
	}
	if f, err := raw.Float64(); err == nil {
		return int(f), true
	}
	return 0, false
}

// QuantityOrDefault is ParseQuantity with a fallback for unparseable input.
func QuantityOrDefault(raw json.Number, fallback int) int {
	n, ok := ParseQuantity(raw)
	if !ok {
		return fallback
	}
	return n
}

// atLeastOne floors quantities so a line item never holds less than one.
func atLeastOne(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
