// Package docvalue reads loosely typed fields out of decoded documents.
//
// Documents arrive from Firestore, SQLite JSON and YAML fixtures, so a
// numeric field may be an int, int64 or float64 and a timestamp may be a
// time.Time, a string or an epoch value. The coercions here accept all of
// them and report whether the field was usable.
package docvalue

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/ohler55/ojg/jp"
)

var (
	exprMu    sync.RWMutex
	exprCache = map[string]jp.Expr{}
)

// expr returns the compiled lookup expression of a dotted field path.
func expr(path string) jp.Expr {
	exprMu.RLock()
	x, ok := exprCache[path]
	exprMu.RUnlock()
	if ok {
		return x
	}

	x = jp.R()
	for _, seg := range strings.Split(path, ".") {
		x = x.C(seg)
	}

	exprMu.Lock()
	exprCache[path] = x
	exprMu.Unlock()
	return x
}

// Lookup returns the value at a dotted path, or nil when absent.
func Lookup(data map[string]any, path string) any {
	if data == nil || path == "" {
		return nil
	}
	return expr(path).First(data)
}

// String returns the string at path, or "" when absent or not a string.
func String(data map[string]any, path string) string {
	s, _ := Lookup(data, path).(string)
	return s
}

// Float returns the number at path.
func Float(data map[string]any, path string) (float64, bool) {
	return toFloat(Lookup(data, path))
}

// Confidence returns the score at path when it lies in [0,1].
func Confidence(data map[string]any, path string) (float64, bool) {
	c, ok := toFloat(Lookup(data, path))
	if !ok || !(c >= 0 && c <= 1) {
		return 0, false
	}
	return c, true
}

// Int returns the number at path truncated to an int.
func Int(data map[string]any, path string) (int, bool) {
	f, ok := toFloat(Lookup(data, path))
	if !ok {
		return 0, false
	}
	return int(f), true
}

// Bool returns the boolean at path. Absent or non-boolean values are false.
func Bool(data map[string]any, path string) bool {
	b, _ := Lookup(data, path).(bool)
	return b
}

// Time returns the instant at path. Accepted forms are time.Time, RFC 3339
// strings, epoch milliseconds and {seconds, nanoseconds} maps.
func Time(data map[string]any, path string) (time.Time, bool) {
	return toTime(Lookup(data, path))
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateTime, time.DateOnly} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case map[string]any:
		secs, ok := toFloat(firstOf(t, "seconds", "_seconds"))
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := toFloat(firstOf(t, "nanoseconds", "_nanoseconds", "nanos"))
		return time.Unix(int64(secs), int64(nanos)).UTC(), true
	default:
		ms, ok := toFloat(v)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}
