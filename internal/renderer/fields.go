// internal/renderer/fields.go
//
// simpleform – CSRF fields, sequence/mapping markers, and form tags.
//
// Context
//   The CSRF helpers read the token from the request session and create
//   one when the session has none.  They only print it.  Checking the
//   submitted token is the job of middleware.CSRF or session.Verify.
//
//   Marker pairs bracket a group of inputs so the Form decoder can rebuild
//   a list or a nested mapping without index-suffixed names:
//
//       <input type="hidden" name="__start__" value="names:sequence">
//       <input name="names" value="a"> <input name="names" value="b">
//       <input type="hidden" name="__end__" value="names:sequence">
//
//------------------------------------------------------------------------------

package renderer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/params"
)

/*──────────────────────────── CSRF ────────────────────────────*/

// Token returns the session CSRF token, creating one if absent.
func (r *Renderer) Token() (string, error) {
	sess := r.form.Request().Session()
	if sess == nil {
		return "", ErrNoSession
	}
	if tok := sess.CSRFToken(); tok != "" {
		return tok, nil
	}
	tok, err := sess.NewCSRFToken()
	if err != nil {
		return "", fmt.Errorf("renderer: new csrf token: %w", err)
	}
	return tok, nil
}

// CSRF renders the token as a hidden input named name, or the configured
// field name when name is empty.
func (r *Renderer) CSRF(name string) (template.HTML, error) {
	if name == "" {
		name = r.cfg.CSRFField
	}
	tok, err := r.Token()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	buf.WriteString(`<input type="hidden"`)
	writeAttr(&buf, "name", name)
	writeAttr(&buf, "value", tok)
	buf.WriteString(`>`)
	return template.HTML(buf.String()), nil
}

// CSRFToken renders the CSRF input inside a hidden div.
func (r *Renderer) CSRFToken(name string) (template.HTML, error) {
	field, err := r.CSRF(name)
	if err != nil {
		return "", err
	}
	return `<div style="display:none;">` + field + `</div>`, nil
}

// HiddenTag renders hidden inputs for names plus the CSRF input, inside a
// hidden div.
func (r *Renderer) HiddenTag(names ...string) (template.HTML, error) {
	var buf strings.Builder
	for _, n := range names {
		buf.WriteString(string(r.Hidden(n, nil)))
	}
	field, err := r.CSRF("")
	if err != nil {
		return "", err
	}
	buf.WriteString(string(field))
	return template.HTML(`<div style="display:none;">` + buf.String() + `</div>`), nil
}

/*──────────────────────────── markers ────────────────────────────*/

func marker(key, name, typ string) template.HTML {
	var buf bytes.Buffer
	buf.WriteString(`<input type="hidden"`)
	writeAttr(&buf, "name", key)
	writeAttr(&buf, "value", params.MarkerValue(name, typ))
	buf.WriteString(`>`)
	return template.HTML(buf.String())
}

// BeginSequence opens a list named name.
func (r *Renderer) BeginSequence(name string) template.HTML {
	return marker(params.StartMarker, name, params.TypeSequence)
}

// EndSequence closes the list opened by BeginSequence.
func (r *Renderer) EndSequence(name string) template.HTML {
	return marker(params.EndMarker, name, params.TypeSequence)
}

// BeginMapping opens a nested mapping named name.
func (r *Renderer) BeginMapping(name string) template.HTML {
	return marker(params.StartMarker, name, params.TypeMapping)
}

// EndMapping closes the mapping opened by BeginMapping.
func (r *Renderer) EndMapping(name string) template.HTML {
	return marker(params.EndMarker, name, params.TypeMapping)
}

/*──────────────────────────── form tags ────────────────────────────*/

// Begin opens the form.  An empty url posts back to the request path.
// Multipart forms get the multipart enctype.
func (r *Renderer) Begin(url string, a Attrs) template.HTML {
	if url == "" {
		url = r.form.Request().Path()
	}
	method := strings.ToLower(r.form.Method())
	if method == form.AnyMethod || method == "" {
		method = strings.ToLower(http.MethodPost)
	}

	var buf bytes.Buffer
	buf.WriteString(`<form`)
	writeAttr(&buf, "action", url)
	writeAttr(&buf, "method", method)
	if r.form.Multipart() {
		writeAttr(&buf, "enctype", "multipart/form-data")
	}
	writeAttrs(&buf, a, "")
	buf.WriteString(`>`)
	return template.HTML(buf.String())
}

// End closes the form.
func (r *Renderer) End() template.HTML { return "</form>" }
