// Package safe provides helpers for safe numeric conversions with overflow checks.
package safe

import (
	"fmt"
	"math"
)

// Int16 converts signed integers to int16 with range validation.
func Int16[T ~int | ~int32 | ~int64](v T) (int16, error) {
	if int64(v) < math.MinInt16 || int64(v) > math.MaxInt16 {
		return 0, fmt.Errorf("value %d out of int16 range", v)
	}
	return int16(v), nil
}

// Uint16 converts signed integers to uint16 with range validation.
func Uint16[T ~int | ~int32 | ~int64](v T) (uint16, error) {
	if v < 0 || int64(v) > math.MaxUint16 {
		return 0, fmt.Errorf("value %d out of uint16 range", v)
	}
	return uint16(v), nil
}
