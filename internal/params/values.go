// internal/params/values.go
//
// Ordered, multi-valued request parameters.
//
// Context
//   Browsers submit form fields in document order, and that order carries
//   meaning for sequence/mapping markers (see markers.go).  url.Values is a
//   map, so it loses the order.  Values keeps every (key, value) pair exactly
//   as submitted and offers the familiar Get/GetAll helpers on top.
//
// Notes
//   •  Get returns the LAST value for a key, matching how most frameworks
//      expose a single-value view of a multi-valued field.
//   •  Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package params

import (
	"net/url"
	"sort"
	"strings"
)

// Pair is one submitted key/value.
type Pair struct {
	Key   string
	Value string
}

// Values is an ordered multi-dict.  The zero value is empty and ready to use.
type Values struct {
	pairs []Pair
}

// New builds Values from alternating key, value arguments.  A trailing key
// without a value is ignored.
func New(kv ...string) Values {
	var v Values
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return v
}

// FromURLValues converts url.Values.  Keys are sorted because the source map
// has no order; values per key keep their slice order.
func FromURLValues(in url.Values) Values {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var v Values
	for _, k := range keys {
		for _, val := range in[k] {
			v.Add(k, val)
		}
	}
	return v
}

// ParseQuery parses a URL-encoded query string, keeping pair order.  Both
// "&" and ";" separate pairs.  Malformed escapes are kept verbatim rather
// than dropping the pair, so user input is never silently lost.
func ParseQuery(raw string) Values {
	var v Values
	for raw != "" {
		var part string
		if i := strings.IndexAny(raw, "&;"); i >= 0 {
			part, raw = raw[:i], raw[i+1:]
		} else {
			part, raw = raw, ""
		}
		if part == "" {
			continue
		}
		key, val, _ := strings.Cut(part, "=")
		v.Add(unescape(key), unescape(val))
	}
	return v
}

func unescape(s string) string {
	if out, err := url.QueryUnescape(s); err == nil {
		return out
	}
	return strings.ReplaceAll(s, "+", " ")
}

// Add appends a pair.
func (v *Values) Add(key, value string) {
	v.pairs = append(v.pairs, Pair{Key: key, Value: value})
}

// Extend appends every pair of other, in order.
func (v *Values) Extend(other Values) {
	v.pairs = append(v.pairs, other.pairs...)
}

// Get returns the last value for key, or "" when absent.
func (v Values) Get(key string) string {
	for i := len(v.pairs) - 1; i >= 0; i-- {
		if v.pairs[i].Key == key {
			return v.pairs[i].Value
		}
	}
	return ""
}

// GetAll returns every value for key in submission order.
func (v Values) GetAll(key string) []string {
	var out []string
	for _, p := range v.pairs {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// Has reports whether key was submitted at least once.
func (v Values) Has(key string) bool {
	for _, p := range v.pairs {
		if p.Key == key {
			return true
		}
	}
	return false
}

// Keys returns the distinct keys in first-seen order.
func (v Values) Keys() []string {
	seen := make(map[string]struct{}, len(v.pairs))
	var out []string
	for _, p := range v.pairs {
		if _, dup := seen[p.Key]; dup {
			continue
		}
		seen[p.Key] = struct{}{}
		out = append(out, p.Key)
	}
	return out
}

// Len returns the number of pairs, not the number of distinct keys.
func (v Values) Len() int { return len(v.pairs) }

// Pairs returns a copy of the underlying pairs.
func (v Values) Pairs() []Pair {
	out := make([]Pair, len(v.pairs))
	copy(out, v.pairs)
	return out
}

// Flatten collapses the multi-dict into a plain map.  Keys submitted once map
// to a string; keys submitted several times map to a []string in submission
// order.
func (v Values) Flatten() map[string]any {
	out := make(map[string]any, len(v.pairs))
	for _, key := range v.Keys() {
		all := v.GetAll(key)
		if len(all) == 1 {
			out[key] = all[0]
			continue
		}
		out[key] = all
	}
	return out
}

// Encode renders the pairs as a query string, in order.
func (v Values) Encode() string {
	var b strings.Builder
	for i, p := range v.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}
