// internal/params/decode.go
//
// Variable decoding: flat keys → nested mappings and sequences.
//
// Context
//   HTML forms can only submit flat key/value pairs.  Nested data is encoded
//   into the key itself using two separator characters:
//
//      addr.city=Oslo          → {"addr": {"city": "Oslo"}}
//      names-1=a&names-2=b     → {"names": ["a", "b"]}
//      rows-0.qty=3            → {"rows": [{"qty": "3"}]}
//
//   The dict separator defaults to "." and the list separator to "-".  List
//   indexes only order the items; gaps are closed.  A key ending in
//   "--repetitions" declares the minimum length of a list and is never
//   copied into the result.  The padding it asks for is capped at
//   MaxRepetitions per Decode call, shared across all lists.
//
// Workflow
//   •  Decode walks the pairs in order, building maps and index buckets.
//   •  finish converts index buckets into []any sorted by index.
//   •  Encode is the inverse used to map nested results back onto flat keys.
//
//------------------------------------------------------------------------------

package params

import (
	"sort"
	"strconv"
	"strings"
)

// Default separators.
const (
	DefaultDictChar = "."
	DefaultListChar = "-"

	repetitionsSuffix = "--repetitions"
)

// MaxRepetitions bounds the total list padding one Decode may add from
// "--repetitions" keys.  Larger requests are clamped.
const MaxRepetitions = 1000

// segment is one step of a decoded key path.  Either name or index is set.
type segment struct {
	name    string
	index   int
	isIndex bool
}

// indexed collects list items by their submitted index until finish runs.
type indexed struct {
	items map[int]any
	min   int // from "--repetitions"
}

// Decode unflattens v using dictChar and listChar.  Empty separators fall
// back to the defaults.
func Decode(v Values, dictChar, listChar string) map[string]any {
	if dictChar == "" {
		dictChar = DefaultDictChar
	}
	if listChar == "" {
		listChar = DefaultListChar
	}

	root := make(map[string]any)
	lengths := make(map[string]int)

	for _, p := range v.pairs {
		if strings.HasSuffix(p.Key, repetitionsSuffix) {
			if n, err := strconv.Atoi(p.Value); err == nil && n > 0 {
				lengths[strings.TrimSuffix(p.Key, repetitionsSuffix)] = n
			}
			continue
		}
		insert(root, splitKey(p.Key, dictChar, listChar), p.Value)
	}

	paths := make([]string, 0, len(lengths))
	for path := range lengths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	budget := MaxRepetitions
	for _, path := range paths {
		n := min(lengths[path], budget)
		if n == 0 {
			break
		}
		budget -= n
		applyLength(root, splitKey(path, dictChar, listChar), n)
	}

	return finish(root).(map[string]any)
}

// splitKey turns "rows-0.qty" into [rows, #0, qty].
func splitKey(key, dictChar, listChar string) []segment {
	var out []segment
	for _, part := range strings.Split(key, dictChar) {
		name, idx, found := strings.Cut(part, listChar)
		if found {
			if n, err := strconv.Atoi(idx); err == nil && n >= 0 && isDigits(idx) {
				out = append(out, segment{name: name}, segment{index: n, isIndex: true})
				continue
			}
		}
		out = append(out, segment{name: part})
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// insert places value at path below root, creating containers on the way.
// A scalar standing where a container is needed is replaced.
func insert(root map[string]any, path []segment, value string) {
	var cur any = root
	for i, seg := range path {
		last := i == len(path)-1
		if last {
			setLeaf(cur, seg, value)
			return
		}
		next := path[i+1]
		child := getChild(cur, seg)
		if !fits(child, next) {
			child = newContainer(next)
			setChild(cur, seg, child)
		}
		cur = child
	}
}

func fits(child any, next segment) bool {
	switch child.(type) {
	case map[string]any:
		return !next.isIndex
	case *indexed:
		return next.isIndex
	}
	return false
}

func newContainer(next segment) any {
	if next.isIndex {
		return &indexed{items: make(map[int]any)}
	}
	return make(map[string]any)
}

func getChild(container any, seg segment) any {
	switch c := container.(type) {
	case map[string]any:
		return c[seg.name]
	case *indexed:
		return c.items[seg.index]
	}
	return nil
}

func setChild(container any, seg segment, child any) {
	switch c := container.(type) {
	case map[string]any:
		c[seg.name] = child
	case *indexed:
		c.items[seg.index] = child
	}
}

// setLeaf stores value, grouping repeated keys into a []string.
func setLeaf(container any, seg segment, value string) {
	switch existing := getChild(container, seg).(type) {
	case nil:
		setChild(container, seg, value)
	case string:
		setChild(container, seg, []string{existing, value})
	case []string:
		setChild(container, seg, append(existing, value))
	default:
		// A container already lives here; the scalar loses.
	}
}

func applyLength(root map[string]any, path []segment, n int) {
	var cur any = root
	for i, seg := range path {
		child := getChild(cur, seg)
		if i == len(path)-1 {
			ix, ok := child.(*indexed)
			if !ok {
				ix = &indexed{items: make(map[int]any)}
				setChild(cur, seg, ix)
			}
			ix.min = n
			return
		}
		if child == nil {
			return
		}
		cur = child
	}
}

// finish converts index buckets into slices, recursively.
func finish(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			n[k] = finish(v)
		}
		return n
	case *indexed:
		idx := make([]int, 0, len(n.items))
		for i := range n.items {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		out := make([]any, 0, len(idx))
		for _, i := range idx {
			out = append(out, finish(n.items[i]))
		}
		for len(out) < n.min {
			out = append(out, "")
		}
		return out
	}
	return node
}

// Encode flattens nested data back into separator keys.  Lists are encoded
// with zero-based indexes, matching what Decode produces from them.
func Encode(data map[string]any, dictChar, listChar string) map[string]any {
	if dictChar == "" {
		dictChar = DefaultDictChar
	}
	if listChar == "" {
		listChar = DefaultListChar
	}
	out := make(map[string]any)
	for k, v := range data {
		encodeInto(out, k, v, dictChar, listChar)
	}
	return out
}

func encodeInto(out map[string]any, prefix string, v any, dictChar, listChar string) {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			encodeInto(out, JoinKey(prefix, k, dictChar), child, dictChar, listChar)
		}
	case []any:
		for i, child := range t {
			encodeInto(out, IndexKey(prefix, i, listChar), child, dictChar, listChar)
		}
	default:
		out[prefix] = v
	}
}

// Root returns the top-level name of a flat key: "rows" for "rows-0.qty".
func Root(key, dictChar, listChar string) string {
	if dictChar == "" {
		dictChar = DefaultDictChar
	}
	if listChar == "" {
		listChar = DefaultListChar
	}
	return splitKey(key, dictChar, listChar)[0].name
}

// JoinKey appends a mapping key to prefix.
func JoinKey(prefix, name, dictChar string) string {
	if prefix == "" {
		return name
	}
	return prefix + dictChar + name
}

// IndexKey appends a list index to prefix.
func IndexKey(prefix string, i int, listChar string) string {
	return prefix + listChar + strconv.Itoa(i)
}
