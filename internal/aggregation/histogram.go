package aggregation

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Calendar intervals accepted by date_histogram buckets. Any other interval
// is tried as a fixed duration ("15m", "6h").
const (
	IntervalMinute  = "minute"
	IntervalHour    = "hour"
	IntervalDay     = "day"
	IntervalWeek    = "week"
	IntervalMonth   = "month"
	IntervalQuarter = "quarter"
	IntervalYear    = "year"
)

const (
	dayLayout    = "2006-01-02"
	maxEmptyBins = 10000
)

// binKey returns the bin a value falls into, or false when the interval or
// the value cannot be interpreted; callers fall back to the distinct key.
func binKey(spec BucketSpec, v any) (string, bool) {
	switch spec.Type {
	case BucketHistogram:
		step, ok := numericInterval(spec.Interval)
		if !ok {
			return "", false
		}
		n, ok := ToNumber(v)
		if !ok {
			return "", false
		}
		return formatNumericBin(binIndex(n, step), step), true
	case BucketDateHistogram:
		t, ok := ToTime(v)
		if !ok {
			return "", false
		}
		start, ok := truncateTime(t, spec.Interval)
		if !ok {
			return "", false
		}
		return formatDateBin(start, spec.Interval), true
	}
	return "", false
}

func numericInterval(s string) (float64, bool) {
	f, err := cast.ToFloat64E(s)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// binIndex is floor(n/step), tolerant of the rounding error decimal steps
// introduce (0.3/0.1 == 2.9999999999999996).
func binIndex(n, step float64) float64 {
	q := n / step
	return math.Floor(q + 1e-9*math.Max(1, math.Abs(q)))
}

// formatNumericBin renders the bin start rounded to the step's precision.
func formatNumericBin(index, step float64) string {
	scale := math.Pow10(stepDecimals(step))
	v := math.Round(index*step*scale) / scale
	if v == 0 {
		v = 0 // no "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stepDecimals(step float64) int {
	s := strconv.FormatFloat(step, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return min(len(s)-i-1, 15)
}

func truncateTime(t time.Time, interval string) (time.Time, bool) {
	t = t.UTC()
	switch interval {
	case IntervalMinute:
		return t.Truncate(time.Minute), true
	case IntervalHour:
		return t.Truncate(time.Hour), true
	case IntervalDay:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	case IntervalWeek:
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7 // ISO: Sunday = 7
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -(weekday - 1)), true
	case IntervalMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
	case IntervalQuarter:
		qStart := ((int(t.Month())-1)/3)*3 + 1
		return time.Date(t.Year(), time.Month(qStart), 1, 0, 0, 0, 0, time.UTC), true
	case IntervalYear:
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC), true
	}
	d, err := time.ParseDuration(interval)
	if err != nil || d <= 0 {
		return time.Time{}, false
	}
	return t.Truncate(d), true
}

func nextBin(t time.Time, interval string) time.Time {
	switch interval {
	case IntervalMinute:
		return t.Add(time.Minute)
	case IntervalHour:
		return t.Add(time.Hour)
	case IntervalDay:
		return t.AddDate(0, 0, 1)
	case IntervalWeek:
		return t.AddDate(0, 0, 7)
	case IntervalMonth:
		return t.AddDate(0, 1, 0)
	case IntervalQuarter:
		return t.AddDate(0, 3, 0)
	case IntervalYear:
		return t.AddDate(1, 0, 0)
	}
	d, _ := time.ParseDuration(interval)
	return t.Add(d)
}

func formatDateBin(t time.Time, interval string) string {
	switch interval {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalQuarter, IntervalYear:
		return t.Format(dayLayout)
	}
	return t.Format(time.RFC3339)
}

// fillEmptyBins adds zero-row groups for every bin between the lowest and
// highest populated bin. Non-binned keys are left alone.
func fillEmptyBins(groups []BucketGroup, spec BucketSpec) []BucketGroup {
	if spec.Interval == "" {
		return groups
	}
	present := make(map[string]bool, len(groups))
	for _, g := range groups {
		present[g.Key] = true
	}

	var keys []string
	switch spec.Type {
	case BucketHistogram:
		keys = numericBinRange(groups, spec.Interval)
	case BucketDateHistogram:
		keys = dateBinRange(groups, spec.Interval)
	}
	for _, k := range keys {
		if !present[k] {
			groups = append(groups, BucketGroup{Key: k, Rows: []Row{}})
		}
	}
	return groups
}

func numericBinRange(groups []BucketGroup, interval string) []string {
	step, ok := numericInterval(interval)
	if !ok {
		return nil
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, g := range groups {
		n, ok := ToNumber(g.Key)
		if !ok {
			continue
		}
		idx := math.Round(n / step)
		lo = math.Min(lo, idx)
		hi = math.Max(hi, idx)
	}
	if lo > hi || hi-lo >= maxEmptyBins {
		return nil
	}
	keys := make([]string, 0, int(hi-lo)+1)
	for idx := lo; idx <= hi; idx++ {
		keys = append(keys, formatNumericBin(idx, step))
	}
	return keys
}

func dateBinRange(groups []BucketGroup, interval string) []string {
	if _, ok := truncateTime(time.Time{}, interval); !ok {
		return nil
	}
	var lo, hi time.Time
	found := false
	for _, g := range groups {
		t, ok := ToTime(g.Key)
		if !ok {
			continue
		}
		if !found || t.Before(lo) {
			lo = t
		}
		if !found || t.After(hi) {
			hi = t
		}
		found = true
	}
	if !found {
		return nil
	}
	var keys []string
	for t := lo; !t.After(hi); t = nextBin(t, interval) {
		if len(keys) >= maxEmptyBins {
			return nil
		}
		keys = append(keys, formatDateBin(t, interval))
	}
	return keys
}
