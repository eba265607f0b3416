// internal/form/form.go
//
// simpleform – Form: decode, validate, freeze, and bind request input.
//
// Context
//   A Form lives for one request.  The handler builds it with a Schema
//   and/or per-field Validators, calls Validate, and then either re-renders
//   the page with the collected Errors or binds the validated data onto a
//   domain object.  Nothing here is safe for concurrent use; every request
//   gets its own Form.
//
// Workflow
//   •  New checks the configuration and seeds data from Defaults and then
//      from Obj, so edit pages render existing values.
//   •  Validate resolves the input source, decodes it, runs the Schema and
//      the field Validators, and latches.  Later calls return the cached
//      answer without touching the request again.
//   •  A request whose method differs from the configured one is “not
//      applicable”: Validate returns false and does NOT latch, so the
//      handler can tell a first GET apart from a failed POST.
//   •  Bind copies data onto a target once the Form is valid.
//
// Notes
//   •  Validate never checks CSRF.  Use middleware.CSRF or session.Verify.
//   •  Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/yanizio/simpleform/internal/metrics"
	"github.com/yanizio/simpleform/internal/params"
)

// AnyMethod disables the request-method check.
const AnyMethod = "*"

// Options configure New.  Schema and/or Validators are required.
type Options struct {
	Schema     Schema
	Validators map[string]Validator

	Defaults map[string]any // initial data
	Obj      any            // struct pointer or map whose fields seed data
	State    *State         // nil creates a fresh State

	Method         string // "" means POST; AnyMethod skips the check
	VariableDecode bool   // unflatten addr.city / names-1 style keys
	DictChar       string // "" means "."
	ListChar       string // "" means "-"
	Multipart      bool   // rendering only

	Logger    *zap.SugaredLogger
	Templates TemplateRenderer
	Filler    Filler
}

// Form tracks one submission through its lifecycle.
type Form struct {
	req        Request
	schema     Schema
	validators map[string]Validator
	state      *State

	method         string
	variableDecode bool
	dictChar       string
	listChar       string
	multipart      bool

	data      map[string]any
	submitted map[string]any // flat input of a variable-decoded submission
	errors    Errors
	validated bool

	log       *zap.SugaredLogger
	templates TemplateRenderer
	filler    Filler
}

// New returns a Form for req.  It fails with ErrConfiguration when neither
// a Schema nor Validators are given.
func New(req Request, opts Options) (*Form, error) {
	if opts.Schema == nil && len(opts.Validators) == 0 {
		return nil, fmt.Errorf("%w: schema or validators required", ErrConfiguration)
	}

	f := &Form{
		req:            req,
		schema:         opts.Schema,
		validators:     opts.Validators,
		state:          opts.State,
		method:         opts.Method,
		variableDecode: opts.VariableDecode,
		dictChar:       opts.DictChar,
		listChar:       opts.ListChar,
		multipart:      opts.Multipart,
		data:           map[string]any{},
		errors:         Errors{},
		log:            opts.Logger,
		templates:      opts.Templates,
		filler:         opts.Filler,
	}
	if f.method == "" {
		f.method = http.MethodPost
	}
	if f.dictChar == "" {
		f.dictChar = params.DefaultDictChar
	}
	if f.listChar == "" {
		f.listChar = params.DefaultListChar
	}
	if f.log == nil {
		f.log = zap.S()
	}
	if f.state == nil {
		f.state = NewState()
		if loc, ok := req.(Localizer); ok {
			if tr := loc.Translator(); tr != nil {
				f.state.Set(TranslatorKey, tr)
			}
		}
	}

	for k, v := range opts.Defaults {
		f.data[k] = v
	}
	if opts.Obj != nil {
		seeded, err := seedFrom(opts.Obj, f.declared())
		if err != nil {
			return nil, err
		}
		for k, v := range seeded {
			f.data[k] = v
		}
	}
	return f, nil
}

/*──────────────────────────── validate ────────────────────────────*/

type validateConfig struct {
	force  bool
	params *params.Values
	data   map[string]any
}

// ValidateOption tunes one Validate call.
type ValidateOption func(*validateConfig)

// Force validates even when the request method does not match.
func Force() ValidateOption {
	return func(c *validateConfig) { c.force = true }
}

// WithParams validates v instead of the request parameters.
func WithParams(v params.Values) ValidateOption {
	return func(c *validateConfig) { c.params = &v }
}

// WithData validates an already structured mapping instead of the request.
func WithData(m map[string]any) ValidateOption {
	return func(c *validateConfig) { c.data = m }
}

// Validate runs validation once and reports whether the Form is valid.
func (f *Form) Validate(opts ...ValidateOption) bool {
	if f.validated {
		return !f.hasErrors()
	}

	var cfg validateConfig
	for _, o := range opts {
		o(&cfg)
	}

	if !cfg.force && f.method != AnyMethod && f.req.Method() != f.method {
		metrics.ValidationsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		f.log.Debugw("form validation skipped", "want", f.method, "got", f.req.Method())
		return false
	}

	decoded, source := f.source(cfg)
	for k, v := range decoded {
		f.data[k] = v
	}

	if f.schema != nil {
		out, err := f.schema.Normalize(copyMap(decoded), f.state)
		if err != nil {
			f.errors.Merge(AsInvalid(err).Unpack(f.variableDecode, f.dictChar, f.listChar))
		} else if out != nil {
			f.data = out
		}
	}

	for _, field := range sortedKeys(f.validators) {
		out, err := f.validators[field].Validate(decoded[field], f.state)
		if err != nil {
			wrapped := &Invalid{Fields: map[string]*Invalid{field: AsInvalid(err)}}
			f.errors.Merge(wrapped.Unpack(f.variableDecode, f.dictChar, f.listChar))
			continue
		}
		f.data[field] = out
	}

	f.validated = true
	ok := !f.hasErrors()

	outcome := metrics.OutcomeValid
	if !ok {
		outcome = metrics.OutcomeInvalid
		metrics.FieldErrorsTotal.Add(float64(len(f.errors.Fields())))
	}
	metrics.ValidationsTotal.WithLabelValues(outcome).Inc()
	f.log.Debugw("form validated", "source", source, "valid", ok, "fields", f.errors.Fields())
	return ok
}

// source resolves and decodes the input: explicit argument, then a JSON
// body on POST-like requests, then POST values when the Form expects POST,
// then all request parameters.
func (f *Form) source(cfg validateConfig) (map[string]any, string) {
	switch {
	case cfg.data != nil:
		return copyMap(cfg.data), "data"
	case cfg.params != nil:
		return f.decode(*cfg.params), "params"
	}
	if postLike(f.req.Method()) {
		if body, ok := f.req.JSONBody(); ok {
			return copyMap(body), "json"
		}
	}
	if f.method == http.MethodPost {
		return f.decode(f.req.POST()), "post"
	}
	return f.decode(f.req.Params()), "params"
}

// decode turns flat values into data.  Marker-encoded input wins; then
// variable decoding when enabled; otherwise one value per key, repeated
// keys grouped.
func (f *Form) decode(v params.Values) map[string]any {
	switch {
	case params.HasMarkers(v):
		return params.DecodeMarkers(v)
	case f.variableDecode:
		f.submitted = v.Flatten()
		return params.Decode(v, f.dictChar, f.listChar)
	default:
		return v.Flatten()
	}
}

func postLike(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

/*──────────────────────────── bind ────────────────────────────*/

// Bind copies validated data onto obj and returns obj.  It fails with
// ErrNotValidated before Validate and with ErrHasErrors when invalid.
func (f *Form) Bind(obj any, opts ...BindOption) (any, error) {
	if !f.validated {
		metrics.BindErrorsTotal.WithLabelValues("not_validated").Inc()
		return nil, ErrNotValidated
	}
	if f.hasErrors() {
		metrics.BindErrorsTotal.WithLabelValues("has_errors").Inc()
		return nil, ErrHasErrors
	}
	return bind(f, f.data, obj, opts...)
}

/*──────────────────────────── queries ────────────────────────────*/

// IsError reports whether field has errors.
func (f *Form) IsError(field string) bool { return f.errors.Has(field) }

// ErrorsFor returns the messages for field; never nil.
func (f *Form) ErrorsFor(field string) []string { return f.errors.For(field) }

// AllErrors returns every message: form-level first, then declared fields
// in order, then anything else sorted by name.
func (f *Form) AllErrors() []string { return f.errors.Flatten(f.declared()) }

// Data returns the current data.  Callers must treat it as read-only.
func (f *Form) Data() map[string]any { return f.data }

// Errors returns the collected errors.  Callers must treat them as
// read-only.
func (f *Form) Errors() Errors { return f.errors }

// IsValidated reports whether validation ran.
func (f *Form) IsValidated() bool { return f.validated }

// Result snapshots the lifecycle state.
func (f *Form) Result() Result {
	switch {
	case !f.validated:
		return Result{status: StatusUnvalidated, form: f}
	case f.hasErrors():
		return Result{status: StatusInvalid, errs: f.errors, form: f}
	default:
		return Result{status: StatusValid, data: f.data, form: f}
	}
}

func (f *Form) State() *State { return f.state }
func (f *Form) Request() Request { return f.req }
func (f *Form) Multipart() bool { return f.multipart }
func (f *Form) Method() string { return f.method }
func (f *Form) ListChar() string { return f.listChar }
func (f *Form) DictChar() string { return f.dictChar }
func (f *Form) VariableDecode() bool { return f.variableDecode }

// Fields returns the declared field names: schema order first, then
// validator keys sorted.
func (f *Form) Fields() []string { return f.declared() }

func (f *Form) declared() []string {
	var out []string
	seen := map[string]struct{}{}
	if fl, ok := f.schema.(FieldLister); ok {
		for _, n := range fl.FieldNames() {
			if _, dup := seen[n]; !dup {
				seen[n] = struct{}{}
				out = append(out, n)
			}
		}
	}
	for _, n := range sortedKeys(f.validators) {
		if _, dup := seen[n]; !dup {
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	return out
}

func (f *Form) hasErrors() bool {
	for _, msgs := range f.errors {
		if len(msgs) > 0 {
			return true
		}
	}
	return false
}

/*──────────────────────────── helpers ────────────────────────────*/

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
