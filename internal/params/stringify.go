// internal/params/stringify.go
//
// Value formatting for HTML output.
//
// Context
//   Decoded and normalized data holds values of many Go types, including
//   times and pointers.  The renderer and the fill pass both need the same
//   text for a value, so the conversion lives here next to the decoder.
//
// Notes
//   •  String takes the first element of a slice; Strings keeps them all for
//      multi-selects and checkbox groups.
//   •  Truthy decides whether a checkbox is checked.  A bool true only
//      matches the usual on-values ("1", "true", "on", "yes").
//
//------------------------------------------------------------------------------

package params

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// String formats a single form value for HTML output.  nil becomes "", and
// slices yield their first element.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		if len(t) == 0 {
			return ""
		}
		return t[0]
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return ""
		}
		return String(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return ""
		}
		return String(rv.Index(0).Interface())
	}
	return fmt.Sprint(v)
}

// Strings formats a value that may hold several selections (multi-select,
// checkbox groups).  Scalars become a one-element slice; nil becomes nil.
func Strings(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return t
	case string:
		return []string{t}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return Strings(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return []string{string(rv.Bytes())}
		}
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, String(rv.Index(i).Interface()))
		}
		return out
	}
	return []string{String(v)}
}

// Truthy reports whether a stored value means "on" for a checkbox whose
// value attribute is value.  A bool true matches the conventional on-values.
func Truthy(stored any, value string) bool {
	if b, ok := stored.(bool); ok {
		if !b {
			return false
		}
		switch value {
		case "1", "true", "on", "yes":
			return true
		}
		return false
	}
	for _, s := range Strings(stored) {
		if s == value {
			return true
		}
	}
	return false
}
