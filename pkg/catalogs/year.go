package catalogs

import (
	"math"
	"strconv"
	"strings"
)

// Plausible publication years. Values outside are treated as absent.
const (
	MinYear = 1000
	MaxYear = 9999
)

// ParseYear converts a loosely typed year into an integer. Numbers and
// numeric strings are accepted; everything else reports false.
func ParseYear(v any) (int, bool) {
	switch y := v.(type) {
	case nil:
		return 0, false
	case int:
		return checkYear(int64(y))
	case int64:
		return checkYear(y)
	case int32:
		return checkYear(int64(y))
	case uint64:
		if y > math.MaxInt32 {
			return 0, false
		}
		return checkYear(int64(y))
	case uint:
		if y > math.MaxInt32 {
			return 0, false
		}
		return checkYear(int64(y))
	case float64:
		if y != math.Trunc(y) {
			return 0, false
		}
		return checkYear(int64(y))
	case string:
		return ParseYearString(y)
	default:
		return 0, false
	}
}

// ParseYearString parses a year written as text, such as "2021" or " 2021 ".
// "2021.0" is accepted; "2021a", "n.d." and "" are not.
func ParseYearString(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return checkYear(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
		return checkYear(int64(f))
	}
	return 0, false
}

func checkYear(y int64) (int, bool) {
	if y < MinYear || y > MaxYear {
		return 0, false
	}
	return int(y), true
}
