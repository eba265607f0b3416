// internal/validators/validators.go
//
// simpleform – per-field validators.
//
// Context
//   Each validator converts one submitted value and either returns the
//   clean value or a *form.Invalid.  Messages use formencode's wording and
//   are routed through State.Translate, so a request translator can
//   localise them by key.
//
// Workflow
//   •  A nil value means the key was not submitted ("Missing value").  An
//      empty or whitespace-only string means the user left the field blank
//      ("Please enter a value").  Both are errors only when Required is set;
//      otherwise the validator returns nil.
//   •  Validators are plain structs.  The zero value is a usable optional
//      validator.
//
// Notes
//   •  Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package validators

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/params"
)

// Message keys passed to State.Translate.
const (
	KeyMissing   = "missing"
	KeyEmpty     = "empty"
	KeyTooShort  = "tooShort"
	KeyTooLong   = "tooLong"
	KeyInteger   = "badInteger"
	KeyNumber    = "badNumber"
	KeyTooLow    = "tooLow"
	KeyTooHigh   = "tooHigh"
	KeyBool      = "bool"
	KeyEmail     = "badEmail"
	KeyURL       = "badURL"
	KeyUUID      = "badUUID"
	KeyDate      = "badDate"
	KeyPattern   = "invalid"
	KeyNotIn     = "notIn"
	KeyNoMatch   = "invalidNoMatch"
	KeyNotList   = "notList"
	KeyTagFailed = "tagFailed"
)

var fallback = map[string]string{
	KeyMissing:   "Missing value",
	KeyEmpty:     "Please enter a value",
	KeyTooShort:  "Enter a value at least %v characters long",
	KeyTooLong:   "Enter a value not more than %v characters long",
	KeyInteger:   "Please enter an integer value",
	KeyNumber:    "Please enter a number",
	KeyTooLow:    "Please enter a number that is %v or greater",
	KeyTooHigh:   "Please enter a number that is %v or smaller",
	KeyBool:      "Value should be true or false",
	KeyEmail:     "Please enter a valid email address",
	KeyURL:       "That is not a valid URL",
	KeyUUID:      "Please enter a valid UUID",
	KeyDate:      "Please enter the date in the form %v",
	KeyPattern:   "The input is not valid",
	KeyNotIn:     "Value must be one of: %v",
	KeyNoMatch:   "Fields do not match",
	KeyNotList:   "Please provide a list of values",
	KeyTagFailed: "Invalid value",
}

// Fallback returns the English message for key.
func Fallback(key string) string { return fallback[key] }

// fail builds a leaf failure for key.
func fail(st *form.State, key string, args ...any) error {
	return form.NewInvalid(st.Translate(key, fallback[key], args...))
}

// isEmpty reports whether v counts as "not filled in".
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		return rv.IsNil()
	case reflect.Slice, reflect.Map:
		return rv.Len() == 0
	}
	return false
}

// checkEmpty handles the shared empty-value rule.  done is true when the
// caller should return (nil, err) without further checks.
func checkEmpty(v any, required bool, st *form.State) (done bool, err error) {
	if !isEmpty(v) {
		return false, nil
	}
	if !required {
		return true, nil
	}
	if v == nil {
		return true, fail(st, KeyMissing)
	}
	return true, fail(st, KeyEmpty)
}

// scalar returns the single string behind v.  Multi-valued input keeps its
// last value, the same view a plain Get gives.
func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []string:
		if len(t) == 0 {
			return "", true
		}
		return t[len(t)-1], true
	case json.Number:
		return t.String(), true
	case fmt.Stringer:
		return t.String(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Bool:
		return params.String(v), true
	}
	return "", false
}

/*──────────────────────────── NotEmpty ────────────────────────────*/

// NotEmpty rejects missing and blank values and passes anything else
// through unchanged.
type NotEmpty struct{}

func (NotEmpty) Validate(v any, st *form.State) (any, error) {
	if done, err := checkEmpty(v, true, st); done {
		return nil, err
	}
	return v, nil
}

/*──────────────────────────── String ────────────────────────────*/

// String accepts text with optional length bounds (in runes).
type String struct {
	Required bool
	Strip    bool // trim surrounding whitespace
	Min      int
	Max      int
}

func (s String) Validate(v any, st *form.State) (any, error) {
	if done, err := checkEmpty(v, s.Required, st); done {
		return nil, err
	}
	str, ok := scalar(v)
	if !ok {
		return nil, fail(st, KeyPattern)
	}
	if s.Strip {
		str = strings.TrimSpace(str)
	}
	n := len([]rune(str))
	if s.Min > 0 && n < s.Min {
		return nil, fail(st, KeyTooShort, s.Min)
	}
	if s.Max > 0 && n > s.Max {
		return nil, fail(st, KeyTooLong, s.Max)
	}
	return str, nil
}

/*──────────────────────────── Int ────────────────────────────*/

// Int converts to int with optional bounds.
type Int struct {
	Required bool
	Min      *int
	Max      *int
}

func (i Int) Validate(v any, st *form.State) (any, error) {
	if done, err := checkEmpty(v, i.Required, st); done {
		return nil, err
	}
	var n int
	switch t := v.(type) {
	case int:
		n = t
	case int64:
		n = int(t)
	case float64:
		if t != float64(int(t)) {
			return nil, fail(st, KeyInteger)
		}
		n = int(t)
	default:
		s, ok := scalar(v)
		if !ok {
			return nil, fail(st, KeyInteger)
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fail(st, KeyInteger)
		}
		n = parsed
	}
	if i.Min != nil && n < *i.Min {
		return nil, fail(st, KeyTooLow, *i.Min)
	}
	if i.Max != nil && n > *i.Max {
		return nil, fail(st, KeyTooHigh, *i.Max)
	}
	return n, nil
}

/*──────────────────────────── Number ────────────────────────────*/

// Number converts to float64 with optional bounds.
type Number struct {
	Required bool
	Min      *float64
	Max      *float64
}

func (nv Number) Validate(v any, st *form.State) (any, error) {
	if done, err := checkEmpty(v, nv.Required, st); done {
		return nil, err
	}
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	default:
		s, ok := scalar(v)
		if !ok {
			return nil, fail(st, KeyNumber)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fail(st, KeyNumber)
		}
		f = parsed
	}
	if nv.Min != nil && f < *nv.Min {
		return nil, fail(st, KeyTooLow, *nv.Min)
	}
	if nv.Max != nil && f > *nv.Max {
		return nil, fail(st, KeyTooHigh, *nv.Max)
	}
	return f, nil
}

/*──────────────────────────── Bool ────────────────────────────*/

// Bool reads checkbox-style input.  A missing or empty value is false.
type Bool struct{}

func (Bool) Validate(v any, st *form.State) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if isEmpty(v) {
		return false, nil
	}
	s, ok := scalar(v)
	if !ok {
		return nil, fail(st, KeyBool)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on", "y", "t":
		return true, nil
	case "0", "false", "no", "off", "n", "f":
		return false, nil
	}
	return nil, fail(st, KeyBool)
}

// IntPtr returns a pointer to n, for Int bounds.
func IntPtr(n int) *int { return &n }

// FloatPtr returns a pointer to f, for Number bounds.
func FloatPtr(f float64) *float64 { return &f }
