package aggregation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var timestampPrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?)?`)

// ToNumber coerces a raw cell to a number. Numbers and numeric strings are
// valid; nil, booleans, non-numeric strings and NaN/Inf are not.
func ToNumber(v any) (float64, bool) {
	switch val := v.(type) {
	case nil, bool:
		return 0, false
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		v = s
	}

	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Number is ToNumber for summation contexts: invalid values count as 0.
func Number(v any) float64 {
	f, _ := ToNumber(v)
	return f
}

// IsTimestamp reports whether v is a string starting with an ISO-8601 date.
func IsTimestamp(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	return timestampPrefix.MatchString(s)
}

// ToTime parses ISO-8601 strings (UTC unless an offset is given) and passes
// time.Time values through.
func ToTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, true
	case string:
		if !IsTimestamp(val) {
			return time.Time{}, false
		}
		t, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(val), time.UTC)
		if err != nil {
			// Prefix-only match such as "2024-03-01 extra": fall back to the date part.
			t, err = time.ParseInLocation("2006-01-02", val[:10], time.UTC)
			if err != nil {
				return time.Time{}, false
			}
		}
		return t, true
	}
	return time.Time{}, false
}

// KeyString returns the exact stringified value of row[field] used as a
// grouping key. An absent field yields "undefined" and an explicit nil "null".
func KeyString(row Row, field string) string {
	v, ok := row[field]
	if !ok {
		return "undefined"
	}
	return FormatValue(v)
}

// FormatValue stringifies a single cell.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
