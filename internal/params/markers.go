// internal/params/markers.go
//
// Sequence and mapping markers.
//
// Context
//   The renderer can bracket a group of fields with hidden sentinels:
//
//      __start__=names:sequence
//      names=a
//      names=b
//      __end__=names:sequence
//
//   Decoding the submitted pairs in order rebuilds the structure the
//   markers describe.  Three group types exist:
//
//      sequence – the values (or nested groups) in order, keys ignored.
//      mapping  – key → value; repeated keys group into []string.
//      rename   – the first value inside the group, stored under the
//                 group name (radio buttons with per-row names).
//
//   Unbalanced markers never panic: a missing __end__ closes at the end of
//   input and a stray __end__ closes the current group.
//
//------------------------------------------------------------------------------

package params

import "strings"

// Marker keys and group types.
const (
	StartMarker = "__start__"
	EndMarker   = "__end__"

	TypeSequence = "sequence"
	TypeMapping  = "mapping"
	TypeRename   = "rename"
)

// HasMarkers reports whether v contains at least one start marker.
func HasMarkers(v Values) bool {
	return v.Has(StartMarker)
}

// MarkerValue builds the value carried by a start or end sentinel.
func MarkerValue(name, typ string) string {
	return name + ":" + typ
}

type entry struct {
	key   string
	value any
}

// DecodeMarkers rebuilds nested data from marker-bracketed pairs.  The top
// level is always a mapping.
func DecodeMarkers(v Values) map[string]any {
	pos := 0
	entries := collect(v.pairs, &pos)
	return asMapping(entries)
}

// collect gathers entries until the matching end marker or end of input.
func collect(pairs []Pair, pos *int) []entry {
	var out []entry
	for *pos < len(pairs) {
		p := pairs[*pos]
		*pos++
		switch p.Key {
		case StartMarker:
			name, typ, ok := strings.Cut(p.Value, ":")
			if !ok {
				typ = TypeMapping
			}
			children := collect(pairs, pos)
			out = append(out, entry{key: name, value: build(typ, children)})
		case EndMarker:
			return out
		default:
			out = append(out, entry{key: p.Key, value: p.Value})
		}
	}
	return out
}

func build(typ string, children []entry) any {
	switch typ {
	case TypeSequence:
		seq := make([]any, 0, len(children))
		for _, c := range children {
			seq = append(seq, c.value)
		}
		return seq
	case TypeRename:
		if len(children) == 0 {
			return ""
		}
		return children[0].value
	default:
		return asMapping(children)
	}
}

func asMapping(entries []entry) map[string]any {
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		s, isString := e.value.(string)
		existing, present := out[e.key]
		if !present || !isString {
			out[e.key] = e.value
			continue
		}
		switch prev := existing.(type) {
		case string:
			out[e.key] = []string{prev, s}
		case []string:
			out[e.key] = append(prev, s)
		default:
			out[e.key] = e.value
		}
	}
	return out
}
