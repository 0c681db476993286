package utils

import "math"

// MaxSimTime is the largest simulated time the host accepts as a time limit
const MaxSimTime int64 = math.MaxInt32

// ClampInt64 clamps a value between min and max
func ClampInt64(value, min, max int64) int64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SaturatingAdd adds two non-negative int64 values, saturating at math.MaxInt64
func SaturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// ClampSimTime clamps t to the representable simulated-time range and reports
// whether clamping happened.
func ClampSimTime(t int64) (int64, bool) {
	if t > MaxSimTime {
		return MaxSimTime, true
	}
	return t, false
}

// MinInt64 returns the minimum of two int64 values
func MinInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
