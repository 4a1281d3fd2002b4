// Package resolve extracts canonical values from raw upstream records whose
// schemas drift across producers. A caller names the candidate keys a field
// may hide under; the resolver walks them in order and returns the first
// non-empty hit. This is the only field-access mechanism the dashboard core
// uses against a types.RawRecord.
package resolve

import (
	"fmt"
	"strings"
	"time"

	"github.com/clinicpro/dashboard-service/pkg/types"
)

// Resolve walks candidatePaths in order and returns the first value that is
// non-empty (not nil, not an empty or whitespace-only string). A path is a
// top-level key or a two-level "parent.child" dotted access. Missing
// intermediate segments are treated as not-found, never as an error. When no
// candidate yields a value, fallback is returned.
func Resolve(record types.RawRecord, candidatePaths []string, fallback interface{}) interface{} {
	if record == nil {
		return fallback
	}
	for _, path := range candidatePaths {
		if v, ok := lookup(record, path); ok && !isEmpty(v) {
			return v
		}
	}
	return fallback
}

// ResolveString resolves a path list to a trimmed string, coercing scalar
// values through fmt. Non-scalar hits (maps, slices) are skipped.
func ResolveString(record types.RawRecord, candidatePaths []string, fallback string) string {
	if record == nil {
		return fallback
	}
	for _, path := range candidatePaths {
		v, ok := lookup(record, path)
		if !ok || isEmpty(v) {
			continue
		}
		if s, ok := coerceString(v); ok {
			return s
		}
	}
	return fallback
}

// ResolveTime resolves a path list to a timestamp. Accepted representations:
// time.Time, RFC3339 strings, bare dates ("2006-01-02"), the common
// space-separated datetime form, and unix seconds or milliseconds as JSON
// numbers. The boolean reports whether any candidate parsed.
func ResolveTime(record types.RawRecord, candidatePaths []string) (time.Time, bool) {
	if record == nil {
		return time.Time{}, false
	}
	for _, path := range candidatePaths {
		v, ok := lookup(record, path)
		if !ok || isEmpty(v) {
			continue
		}
		if t, ok := coerceTime(v); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// lookup fetches the value at path, descending one level for dotted paths
func lookup(record types.RawRecord, path string) (interface{}, bool) {
	parent, child, nested := strings.Cut(path, ".")
	v, ok := record[parent]
	if !ok {
		return nil, false
	}
	if !nested {
		return v, true
	}
	switch sub := v.(type) {
	case map[string]interface{}:
		cv, ok := sub[child]
		return cv, ok
	case types.RawRecord:
		cv, ok := sub[child]
		return cv, ok
	default:
		return nil, false
	}
}

// isEmpty reports whether a resolved value counts as absent
func isEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func coerceString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case fmt.Stringer:
		return strings.TrimSpace(s.String()), true
	case float64, float32, int, int32, int64, uint, uint32, uint64, bool:
		return fmt.Sprintf("%v", s), true
	default:
		return "", false
	}
}

func coerceTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case string:
		return parseTimeString(strings.TrimSpace(t))
	case float64:
		return fromUnix(int64(t)), true
	case int64:
		return fromUnix(t), true
	case int:
		return fromUnix(int64(t)), true
	default:
		return time.Time{}, false
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimeString(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fromUnix treats values past the year ~33658 in seconds as milliseconds
func fromUnix(n int64) time.Time {
	if n > 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}
