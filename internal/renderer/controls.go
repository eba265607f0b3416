// internal/renderer/controls.go
//
// simpleform – per-kind control markup.

package renderer

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/yanizio/simpleform/internal/params"
)

// Render emits the markup for c.
func (r *Renderer) Render(c Control) (template.HTML, error) {
	if err := mustKind(c.Kind); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	switch c.Kind {
	case KindText, KindHidden, KindPassword:
		typ := c.Kind.String()
		if c.Kind == KindText && c.Attrs.Type != "" {
			typ = c.Attrs.Type
		}
		r.input(&buf, typ, c.Name, r.id(c.ID, c.Name), params.String(r.value(c.Name, c.Value, c.Default)), true, c.Attrs)

	case KindFile:
		// Browsers never accept a preset file value; only an explicit one is written.
		r.input(&buf, "file", c.Name, r.id(c.ID, c.Name), params.String(c.Value), c.Value != nil, c.Attrs)

	case KindTextarea:
		buf.WriteString(`<textarea`)
		writeAttr(&buf, "name", c.Name)
		writeAttr(&buf, "id", r.id(c.ID, c.Name))
		writeAttrs(&buf, c.Attrs, r.errClass(c.Name))
		buf.WriteString(`>` + html.EscapeString(params.String(r.value(c.Name, c.Value, c.Default))) + `</textarea>`)

	case KindCheckbox, KindRadio:
		own := params.String(c.Value)
		if own == "" && c.Kind == KindCheckbox {
			own = "1"
		}
		id := c.ID
		if id == "" && c.Kind == KindRadio {
			id = c.Name + "_" + idSafe(own)
		}
		buf.WriteString(`<input type="` + c.Kind.String() + `"`)
		writeAttr(&buf, "name", c.Name)
		writeAttr(&buf, "id", r.id(id, c.Name))
		writeAttr(&buf, "value", own)
		if c.Checked || params.Truthy(r.stored(c.Name, c.Default), own) {
			buf.WriteString(` checked`)
		}
		writeAttrs(&buf, c.Attrs, r.errClass(c.Name))
		buf.WriteString(`>`)

	case KindSelect:
		r.selectTag(&buf, c)

	case KindSubmit:
		caption := params.String(c.Value)
		if caption == "" {
			caption = c.Label
		}
		if caption == "" {
			caption = "Submit"
		}
		buf.WriteString(`<input type="submit"`)
		if c.Name != "" {
			writeAttr(&buf, "name", c.Name)
			writeAttr(&buf, "id", r.id(c.ID, c.Name))
		}
		writeAttr(&buf, "value", caption)
		writeAttrs(&buf, c.Attrs, "")
		buf.WriteString(`>`)
	}
	return template.HTML(buf.String()), nil
}

func (r *Renderer) input(buf *bytes.Buffer, typ, name, id, value string, withValue bool, a Attrs) {
	buf.WriteString(`<input type="` + html.EscapeString(typ) + `"`)
	writeAttr(buf, "name", name)
	writeAttr(buf, "id", id)
	if withValue {
		writeAttr(buf, "value", value)
	}
	writeAttrs(buf, a, r.errClass(name))
	buf.WriteString(`>`)
}

// idSafe turns a value into something usable inside an id attribute.
func idSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// must drops the error of Render for kinds that cannot fail.
func must(h template.HTML, _ error) template.HTML { return h }

/*──────────────────────────── wrappers ────────────────────────────*/

// Text renders a text input.  Attrs.Type may select email, date, and
// other text-like input types.
func (r *Renderer) Text(name string, value any, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindText, Name: name, Value: value, Attrs: a}))
}

// Hidden renders a hidden input.
func (r *Renderer) Hidden(name string, value any) template.HTML {
	return must(r.Render(Control{Kind: KindHidden, Name: name, Value: value}))
}

// Password renders a password input.
func (r *Renderer) Password(name string, value any, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindPassword, Name: name, Value: value, Attrs: a}))
}

// File renders a file input.
func (r *Renderer) File(name string, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindFile, Name: name, Attrs: a}))
}

// Textarea renders a textarea.
func (r *Renderer) Textarea(name string, content any, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindTextarea, Name: name, Value: content, Attrs: a}))
}

// Checkbox renders a checkbox with the given value ("1" when empty).
func (r *Renderer) Checkbox(name, value string, checked bool, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindCheckbox, Name: name, Value: value, Checked: checked, Attrs: a}))
}

// Radio renders one radio button of a group.
func (r *Renderer) Radio(name, value string, checked bool, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindRadio, Name: name, Value: value, Checked: checked, Attrs: a}))
}

// Select renders a select; selected overrides the stored selection when
// non-nil and may be a scalar or a slice.
func (r *Renderer) Select(name string, items []Item, selected any, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindSelect, Name: name, Options: items, Value: selected, Attrs: a}))
}

// Submit renders a submit button.
func (r *Renderer) Submit(name, caption string, a Attrs) template.HTML {
	return must(r.Render(Control{Kind: KindSubmit, Name: name, Label: caption, Attrs: a}))
}

/*──────────────────────────── labels ────────────────────────────*/

// Label renders a label for name.  Empty text becomes the capitalised field
// name (first_name → First Name).
func (r *Renderer) Label(name, text string, a Attrs) template.HTML {
	if text == "" {
		text = DefaultLabel(name)
	}
	return r.label(name, html.EscapeString(text), a)
}

// LabelHTML renders a label whose markup is sanitised with the configured
// bluemonday policy.
func (r *Renderer) LabelHTML(name, markup string, a Attrs) template.HTML {
	return r.label(name, r.cfg.Policy.Sanitize(markup), a)
}

func (r *Renderer) label(name, inner string, a Attrs) template.HTML {
	var buf bytes.Buffer
	buf.WriteString(`<label`)
	writeAttr(&buf, "for", r.id("", name))
	writeAttrs(&buf, a, "")
	buf.WriteString(`>` + inner + `</label>`)
	return template.HTML(buf.String())
}

// DefaultLabel turns a field name into a caption.
func DefaultLabel(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' || r == '.' })
	// Casers keep state, so each call gets its own.
	return cases.Title(language.English).String(strings.Join(words, " "))
}
