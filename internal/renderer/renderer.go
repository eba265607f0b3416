// internal/renderer/renderer.go
//
// simpleform – HTML renderer for Form controls.
//
// Context
//   Templates need to print inputs that already carry the submitted value
//   after a failed POST, the stored value on an edit page, or a default on
//   a fresh form.  Renderer is a read-only view over a *form.Form that does
//   exactly that, plus error lists, labels, CSRF fields, and the
//   sequence/mapping markers understood by the Form's decoder.
//
// Workflow
//   •  Every control is described by a Control value whose Kind is one of a
//      closed set.  Render switches on Kind; the named wrappers (Text,
//      Select, …) just fill in a Control.
//   •  Value resolution is explicit Value, then Form data, then Default.
//   •  HTML attributes come from the typed Attrs struct, written in a fixed
//      order so output is deterministic and easy to test.
//
// Style
//   Markup is deliberately plain: no framework classes beyond the
//   configurable error class.  Returned strings are template.HTML so
//   html/template does not double-escape them.
//
//------------------------------------------------------------------------------

package renderer

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/yanizio/simpleform/internal/form"
)

// DefaultCSRFField is the hidden field name used for the CSRF token.
const DefaultCSRFField = "_csrf"

// ErrUnknownKind is returned by Render for a Kind outside the closed set.
var ErrUnknownKind = errors.New("renderer: unknown control kind")

// ErrNoSession is returned by CSRF when the request has no session.
var ErrNoSession = errors.New("renderer: request has no session")

// Kind is the closed set of controls the renderer knows.
type Kind int

const (
	KindText Kind = iota
	KindHidden
	KindPassword
	KindFile
	KindTextarea
	KindCheckbox
	KindRadio
	KindSelect
	KindSubmit
)

var kindNames = [...]string{"text", "hidden", "password", "file", "textarea", "checkbox", "radio", "select", "submit"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// ParseKind maps an HTML input type onto a Kind.  Types without a control
// of their own (email, number, date, …) render as text inputs.
func ParseKind(s string) Kind {
	for i, n := range kindNames {
		if n == s {
			return Kind(i)
		}
	}
	return KindText
}

// Attrs are the HTML attributes a control may carry.
type Attrs struct {
	Class        string
	Style        string
	Placeholder  string
	Title        string
	Autocomplete string
	Accept       string
	Type         string // overrides the input type of text-like controls (email, date, …)
	Pattern      string

	Size      int
	MinLength int
	MaxLength int
	Rows      int
	Cols      int

	Disabled  bool
	ReadOnly  bool
	Required  bool
	Multiple  bool
	Autofocus bool

	Data map[string]string // rendered as data-<key>
}

// Control describes one control.
//
// For checkboxes and radios Value is the control's own value ("1" when
// empty) and the stored Form value decides whether it is checked.  For all
// other kinds a non-nil Value overrides the stored value.
type Control struct {
	Kind    Kind
	Name    string
	ID      string
	Value   any
	Default any
	Checked bool
	Label   string // submit caption
	Options []Item
	Attrs   Attrs
}

// Config tunes a Renderer.
type Config struct {
	IDPrefix   string
	CSRFField  string             // "" means DefaultCSRFField
	ErrorClass string             // "" means "error"
	Policy     *bluemonday.Policy // LabelHTML sanitiser; nil means a small inline policy
}

// Renderer renders controls for one Form.
type Renderer struct {
	form *form.Form
	cfg  Config
}

// New wraps f.
func New(f *form.Form, cfg Config) *Renderer {
	if cfg.CSRFField == "" {
		cfg.CSRFField = DefaultCSRFField
	}
	if cfg.ErrorClass == "" {
		cfg.ErrorClass = "error"
	}
	if cfg.Policy == nil {
		cfg.Policy = labelPolicy()
	}
	return &Renderer{form: f, cfg: cfg}
}

// Form returns the wrapped Form.
func (r *Renderer) Form() *form.Form { return r.form }

func labelPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "small", "abbr", "span", "sup", "sub", "br")
	p.AllowAttrs("title").OnElements("abbr", "span")
	p.AllowAttrs("class").OnElements("span")
	return p
}

/*──────────────────────────── value resolution ────────────────────────────*/

// stored returns the Form value for name, or def when the Form has none.
func (r *Renderer) stored(name string, def any) any {
	if v, ok := r.form.Data()[name]; ok {
		return v
	}
	return def
}

// value resolves explicit > stored > default.
func (r *Renderer) value(name string, explicit, def any) any {
	if explicit != nil {
		return explicit
	}
	return r.stored(name, def)
}

func (r *Renderer) id(explicit, name string) string {
	if explicit == "" {
		explicit = name
	}
	return r.cfg.IDPrefix + explicit
}

/*──────────────────────────── errors ────────────────────────────*/

// IsError reports whether field has errors.
func (r *Renderer) IsError(field string) bool { return r.form.IsError(field) }

// ErrorsFor returns the messages for field.
func (r *Renderer) ErrorsFor(field string) []string { return r.form.ErrorsFor(field) }

// AllErrors returns every message of the Form.
func (r *Renderer) AllErrors() []string { return r.form.AllErrors() }

// ErrorList renders the messages of the given fields as a list, or every
// message when no field is named.  It returns "" when there are none.
func (r *Renderer) ErrorList(fields ...string) template.HTML {
	var msgs []string
	if len(fields) == 0 {
		msgs = r.form.AllErrors()
	} else {
		for _, f := range fields {
			msgs = append(msgs, r.form.ErrorsFor(f)...)
		}
	}
	if len(msgs) == 0 {
		return ""
	}

	var buf bytes.Buffer
	buf.WriteString(`<ul class="` + html.EscapeString(r.cfg.ErrorClass) + `">`)
	for _, m := range msgs {
		buf.WriteString(`<li>` + html.EscapeString(m) + `</li>`)
	}
	buf.WriteString(`</ul>`)
	return template.HTML(buf.String())
}

/*──────────────────────────── attribute writer ────────────────────────────*/

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteString(` ` + name + `="` + html.EscapeString(value) + `"`)
}

func writeAttrs(buf *bytes.Buffer, a Attrs, errClass string) {
	class := a.Class
	if errClass != "" {
		class = strings.TrimSpace(class + " " + errClass)
	}
	for _, kv := range [...][2]string{
		{"class", class},
		{"style", a.Style},
		{"placeholder", a.Placeholder},
		{"title", a.Title},
		{"autocomplete", a.Autocomplete},
		{"accept", a.Accept},
		{"pattern", a.Pattern},
	} {
		if kv[1] != "" {
			writeAttr(buf, kv[0], kv[1])
		}
	}
	for _, kv := range [...]struct {
		name string
		n    int
	}{
		{"size", a.Size}, {"minlength", a.MinLength}, {"maxlength", a.MaxLength}, {"rows", a.Rows}, {"cols", a.Cols},
	} {
		if kv.n > 0 {
			writeAttr(buf, kv.name, strconv.Itoa(kv.n))
		}
	}
	for _, kv := range [...]struct {
		name string
		on   bool
	}{
		{"disabled", a.Disabled}, {"readonly", a.ReadOnly}, {"required", a.Required},
		{"multiple", a.Multiple}, {"autofocus", a.Autofocus},
	} {
		if kv.on {
			buf.WriteString(` ` + kv.name)
		}
	}
	if len(a.Data) > 0 {
		keys := make([]string, 0, len(a.Data))
		for k := range a.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			writeAttr(buf, "data-"+k, a.Data[k])
		}
	}
}

// errClass returns the error class for name when it has errors.
func (r *Renderer) errClass(name string) string {
	if name != "" && r.form.IsError(name) {
		return r.cfg.ErrorClass
	}
	return ""
}

func mustKind(k Kind) error {
	if k < KindText || k > KindSubmit {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return nil
}
