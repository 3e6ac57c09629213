package fitimport

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/lucasjlepore/fitconvert/diag"
	"github.com/lucasjlepore/fitconvert/model"
)

// fields reads one message's field map and remembers what was consumed so
// the rest can be reported as unsupported.
type fields struct {
	path string
	m    map[string]any
	used map[string]struct{}
}

func newFields(kind string, idx int, m map[string]any) *fields {
	return &fields{
		path: fmt.Sprintf("%s[%d]", kind, idx),
		m:    m,
		used: make(map[string]struct{}, len(m)),
	}
}

func (f *fields) at(name string) string {
	return f.path + "." + name
}

func (f *fields) raw(name string) (any, bool) {
	v, ok := f.m[name]
	if ok {
		f.used[name] = struct{}{}
	}
	return v, ok && v != nil
}

// skip marks fields as consumed without reading them.
func (f *fields) skip(names ...string) {
	for _, n := range names {
		f.used[n] = struct{}{}
	}
}

func (f *fields) float(name string) (float64, bool) {
	v, ok := f.raw(name)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func (f *fields) floatPtr(name string) *float64 {
	v, ok := f.float(name)
	if !ok {
		return nil
	}
	return model.Float(v)
}

// firstFloat returns the first present field, marking every candidate used.
func (f *fields) firstFloat(names ...string) *float64 {
	var out *float64
	for _, n := range names {
		if v := f.floatPtr(n); v != nil && out == nil {
			out = v
		}
	}
	return out
}

func (f *fields) int(name string) (int64, bool) {
	v, ok := f.float(name)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}

func (f *fields) intPtr(name string) *int {
	v, ok := f.int(name)
	if !ok {
		return nil
	}
	return model.Int(int(v))
}

func (f *fields) str(name string) (string, bool) {
	v, ok := f.raw(name)
	if !ok {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, x != ""
	case fmt.Stringer:
		return x.String(), true
	default:
		if n, ok := toFloat(v); ok {
			return strconv.FormatFloat(n, 'f', -1, 64), true
		}
		return fmt.Sprint(v), true
	}
}

func (f *fields) time(name string) time.Time {
	v, ok := f.raw(name)
	if !ok {
		return time.Time{}
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}
	}
	return t.UTC()
}

// finish reports every field nothing consumed.
func (f *fields) finish(c *diag.Collector) {
	if len(f.used) >= len(f.m) {
		return
	}
	var rest []string
	for k := range f.m {
		if _, ok := f.used[k]; !ok {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		c.Unsupported(f.at(k), "field %q has no destination in the workout model", k)
	}
}

func toFloat(v any) (float64, bool) {
	var out float64
	switch x := v.(type) {
	case float64:
		out = x
	case float32:
		out = float64(x)
	case int64:
		out = float64(x)
	case int:
		out = float64(x)
	case int32:
		out = float64(x)
	case int16:
		out = float64(x)
	case int8:
		out = float64(x)
	case uint64:
		out = float64(x)
	case uint32:
		out = float64(x)
	case uint16:
		out = float64(x)
	case uint8:
		out = float64(x)
	case uint:
		out = float64(x)
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0, false
	}
	return out, true
}
