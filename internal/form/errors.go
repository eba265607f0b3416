// internal/form/errors.go
//
// simpleform – error taxonomy and the per-field error map.
//
// Context
//   Only programmer misuse is returned as an error value: a Form without a
//   schema or validators, Bind before Validate, Bind with errors present, or
//   a bind target that cannot hold the data.  Invalid user input is NEVER an
//   error value at the API surface; it is collected into Errors and handed
//   back for re-display.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"sort"
)

var (
	// ErrConfiguration is returned when a Form cannot work as configured.
	ErrConfiguration = errors.New("form: configuration error")

	// ErrLifecycle is the parent of every ordering error.
	ErrLifecycle = errors.New("form: lifecycle error")

	// ErrNotValidated is returned by Bind before Validate ran.
	ErrNotValidated = wrapLifecycle("form has not been validated; call Validate first")

	// ErrHasErrors is returned by Bind when validation failed.
	ErrHasErrors = wrapLifecycle("cannot bind to object if form has errors")

	// ErrBindTarget is returned when the bind target is not a struct
	// pointer, a map[string]any, or a FieldSetter.
	ErrBindTarget = errors.New("form: unsupported bind target")

	// ErrBindType is returned when a value cannot be converted to the type
	// of the target field.
	ErrBindType = errors.New("form: bind type mismatch")
)

type lifecycleError struct{ msg string }

func (e lifecycleError) Error() string        { return "form: " + e.msg }
func (e lifecycleError) Is(target error) bool { return target == ErrLifecycle }

func wrapLifecycle(msg string) error { return lifecycleError{msg: msg} }

// FormKey holds messages that belong to the form as a whole rather than to
// a single field.
const FormKey = ""

// Errors maps a field name to its ordered messages.
type Errors map[string][]string

// Add appends messages for field.  Empty messages are dropped.
func (e Errors) Add(field string, msgs ...string) {
	for _, m := range msgs {
		if m == "" {
			continue
		}
		e[field] = append(e[field], m)
	}
}

// Has reports whether field has at least one message.
func (e Errors) Has(field string) bool { return len(e[field]) > 0 }

// For returns a copy of the messages for field.  The result is never nil,
// so a missing field and a field without messages look the same.
func (e Errors) For(field string) []string {
	out := make([]string, len(e[field]))
	copy(out, e[field])
	return out
}

// Merge appends every message of other.
func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		e.Add(field, msgs...)
	}
}

// Fields returns the names of fields with messages, sorted.  The form-level
// key is not included.
func (e Errors) Fields() []string {
	out := make([]string, 0, len(e))
	for k, v := range e {
		if k == FormKey || len(v) == 0 {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Flatten lists every message: form-level messages first, then fields in
// the given order, then any remaining fields sorted by name.
func (e Errors) Flatten(order []string) []string {
	var out []string
	out = append(out, e[FormKey]...)

	done := map[string]struct{}{FormKey: {}}
	for _, f := range order {
		if _, dup := done[f]; dup {
			continue
		}
		done[f] = struct{}{}
		out = append(out, e[f]...)
	}
	for _, f := range e.Fields() {
		if _, dup := done[f]; dup {
			continue
		}
		out = append(out, e[f]...)
	}
	return out
}

// clone returns a deep copy.
func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = append([]string(nil), v...)
	}
	return out
}
