// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import (
	"math"
	"strconv"
)

// ToInt64 converts a uint64 to int64, returning overflowErr if it doesn't fit.
func ToInt64(size uint64, overflowErr error) (int64, error) {
	if size > uint64(math.MaxInt64) {
		return 0, overflowErr
	}
	return int64(size), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// FormatOffset renders an offset as the decimal string stored in indexes.
func FormatOffset(offset uint64) string {
	return strconv.FormatUint(offset, 10)
}

// ParseOffset parses a decimal offset string. Signs, spaces and empty
// strings are rejected.
func ParseOffset(s string, formatErr error) (uint64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, formatErr
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, formatErr
	}
	return v, nil
}
