// internal/form/result.go
//
// simpleform – three-state validation result.
//
// Context
//   A Form is in exactly one of three states: Unvalidated, Valid, or
//   Invalid.  Result snapshots that state.  Only a Valid result hands out a
//   *Validated, and only a *Validated can bind, so code that holds one can
//   never trip over the bind-before-validate or bind-with-errors rules.
//   Form.Bind is the runtime-checked shortcut for callers that prefer it.
//
//------------------------------------------------------------------------------

package form

// Status is the lifecycle state of a Form.
type Status int

const (
	StatusUnvalidated Status = iota
	StatusValid
	StatusInvalid
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	default:
		return "unvalidated"
	}
}

// Result is a snapshot of a Form's lifecycle.
type Result struct {
	status Status
	data   map[string]any
	errs   Errors
	form   *Form
}

// Status returns the lifecycle state.
func (r Result) Status() Status { return r.status }

// Data returns the validated data; nil unless Valid.
func (r Result) Data() map[string]any {
	if r.status != StatusValid {
		return nil
	}
	return r.data
}

// Errors returns a copy of the errors; nil unless Invalid.
func (r Result) Errors() Errors {
	if r.status != StatusInvalid {
		return nil
	}
	return r.errs.clone()
}

// Validated returns the bindable view of a Valid result.
func (r Result) Validated() (*Validated, bool) {
	if r.status != StatusValid {
		return nil, false
	}
	return &Validated{data: r.data, form: r.form}, true
}

// Validated is proof that validation succeeded.
type Validated struct {
	data map[string]any
	form *Form
}

// Data returns the validated data.
func (v *Validated) Data() map[string]any { return v.data }

// Bind copies the validated data onto obj and returns obj.  Only an
// unusable target or a type mismatch can fail.
func (v *Validated) Bind(obj any, opts ...BindOption) (any, error) {
	return bind(v.form, v.data, obj, opts...)
}
