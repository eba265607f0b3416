// internal/form/contracts.go
//
// simpleform – collaborator contracts.
//
// Context
//   The Form never talks to net/http, a template engine, or a session store
//   directly.  It calls through the narrow interfaces below, so handlers can
//   plug in any framework.  NewHTTPRequest (http.go) adapts *http.Request;
//   internal/schema and internal/validators supply Schemas and Validators;
//   internal/view and internal/htmlfill supply the renderer and filler.
//
//------------------------------------------------------------------------------

package form

import (
	ut "github.com/go-playground/universal-translator"

	"github.com/yanizio/simpleform/internal/params"
)

// Request is the incoming request as seen by a Form.
type Request interface {
	Method() string
	POST() params.Values
	GET() params.Values
	// Params returns GET followed by POST values.
	Params() params.Values
	// JSONBody returns the decoded body when the request carried JSON.
	JSONBody() (map[string]any, bool)
	Session() Session
	Path() string
}

// Session exposes the CSRF token of the current session.
type Session interface {
	CSRFToken() string
	NewCSRFToken() (string, error)
}

// Localizer is implemented by requests that carry a translator.  The
// default State of a Form picks it up automatically.
type Localizer interface {
	Translator() ut.Translator
}

// Schema normalizes a whole submission.  A failure should be an *Invalid;
// any other error is treated as a form-level message.
type Schema interface {
	Normalize(data map[string]any, st *State) (map[string]any, error)
}

// SchemaFunc adapts a function to Schema.
type SchemaFunc func(data map[string]any, st *State) (map[string]any, error)

func (fn SchemaFunc) Normalize(data map[string]any, st *State) (map[string]any, error) {
	return fn(data, st)
}

// Validator converts and checks one field value.
type Validator interface {
	Validate(value any, st *State) (any, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(value any, st *State) (any, error)

func (fn ValidatorFunc) Validate(value any, st *State) (any, error) { return fn(value, st) }

// FieldLister is implemented by schemas that know their field names in
// declaration order.
type FieldLister interface {
	FieldNames() []string
}

// FieldSetter is a bind target that takes values one field at a time.
type FieldSetter interface {
	SetField(name string, value any) error
}

// TemplateRenderer renders a named template with ctx.
type TemplateRenderer interface {
	Render(name string, ctx map[string]any, req Request) (string, error)
}

// Filler post-processes rendered HTML with values and errors.
type Filler interface {
	Fill(html string, defaults map[string]any, errs Errors) (string, error)
}
