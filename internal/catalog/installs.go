package catalog

import (
	"math"
	"strconv"
	"strings"
)

var magnitudes = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// ParseInstalls converts a human-readable install count such as
// "1,000,000+", "10M+" or "5K" to an integer. Anything unparseable is 0.
func ParseInstalls(raw string) int64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	multiplier := 1.0
	if m, ok := magnitudes[strings.ToUpper(s[len(s)-1:])[0]]; ok {
		multiplier = m
		s = strings.TrimSpace(s[:len(s)-1])
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	total := value * multiplier
	if total >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(total)
}
