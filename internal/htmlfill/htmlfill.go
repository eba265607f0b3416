// internal/htmlfill/htmlfill.go
//
// simpleform – fill rendered HTML with values and errors.
//
// Context
//   Templates often print bare controls.  Render walks the markup with the
//   x/net/html tokenizer and, matching elements by name, writes the current
//   values into them and annotates fields that failed validation.  Markup
//   it does not touch is copied byte for byte.
//
// Workflow
//   •  A first pass collects the control names, the <form:error> placeholders,
//      and whether a <form> tag exists.
//   •  The second pass rewrites tags:
//        – text-like inputs get value=, repeated names take successive list
//          values;
//        – checkbox and radio inputs are checked when their value matches;
//        – textarea content and select/option selection are replaced;
//        – controls with errors get the error class, and their messages go
//          in front of the first control unless a placeholder exists.
//   •  <form:error name="x"> prints x's messages.  <form:iferror name="x">
//      (or name="not x") keeps or drops its content.
//   •  Form-level messages, and messages for fields with no control and no
//      placeholder, go right after the opening <form> tag.
//
//------------------------------------------------------------------------------

package htmlfill

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/params"
)

// ErrMarkup is returned when the tokenizer fails for a reason other than
// the end of input.
var ErrMarkup = errors.New("htmlfill: malformed markup")

const (
	tagError   = "form:error"
	tagIfError = "form:iferror"
)

// Options tune one Render call.
type Options struct {
	ErrorClass    string // "" means "error"
	SkipPasswords bool   // leave password inputs empty
	ForceDefaults bool   // clear controls whose name is not in defaults

	// Formatter renders the messages of one field.  nil means
	// DefaultFormatter.
	Formatter func(msgs []string) string
}

// DefaultFormatter prints one span per message.
func DefaultFormatter(msgs []string) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(`<span class="error-message">`)
		b.WriteString(html.EscapeString(m))
		b.WriteString("</span><br />\n")
	}
	return b.String()
}

// Filler implements form.Filler with fixed options.
type Filler struct {
	Options Options
}

// New returns a Filler.
func New(opts Options) *Filler { return &Filler{Options: opts} }

// Fill implements form.Filler.
func (f *Filler) Fill(src string, defaults map[string]any, errs form.Errors) (string, error) {
	return Render(src, defaults, errs, f.Options)
}

// Render fills src.  defaults are keyed by element name.
func Render(src string, defaults map[string]any, errs form.Errors, opts Options) (string, error) {
	if opts.ErrorClass == "" {
		opts.ErrorClass = "error"
	}
	if opts.Formatter == nil {
		opts.Formatter = DefaultFormatter
	}

	sc, err := scan(src)
	if err != nil {
		return "", err
	}

	f := &filler{
		opts:     opts,
		defaults: defaults,
		errs:     errs,
		scan:     sc,
		used:     map[string]int{},
		printed:  map[string]bool{},
	}
	return f.run(src)
}

/*──────────────────────────── first pass ────────────────────────────*/

type scanResult struct {
	controls     map[string]bool
	placeholders map[string]bool
	hasForm      bool
}

func scan(src string) (*scanResult, error) {
	sc := &scanResult{controls: map[string]bool{}, placeholders: map[string]bool{}}
	z := nethtml.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			if z.Err() == io.EOF {
				return sc, nil
			}
			return nil, fmt.Errorf("%w: %v", ErrMarkup, z.Err())
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			t := z.Token()
			name, _ := attr(t, "name")
			switch t.Data {
			case "form":
				sc.hasForm = true
			case "input":
				if typ, _ := attr(t, "type"); strings.ToLower(typ) != "hidden" {
					sc.controls[name] = true
				}
			case "select", "textarea":
				sc.controls[name] = true
			case tagError:
				sc.placeholders[name] = true
			}
		}
	}
}

/*──────────────────────────── second pass ────────────────────────────*/

type filler struct {
	opts     Options
	defaults map[string]any
	errs     form.Errors
	scan     *scanResult

	buf      bytes.Buffer
	used     map[string]int  // text inputs seen per name
	printed  map[string]bool // fields whose messages were written
	formDone bool

	inTextarea bool // replacing textarea content
	skip       int  // depth inside a false form:iferror

	selName   string
	selActive bool
	selValues map[string]struct{}
	pending   *nethtml.Token // option without a value attribute
}

func (f *filler) run(src string) (string, error) {
	if !f.scan.hasForm {
		f.writeTopErrors()
	}

	z := nethtml.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			if z.Err() != io.EOF {
				return "", fmt.Errorf("%w: %v", ErrMarkup, z.Err())
			}
			f.flushOption("")
			return f.buf.String(), nil
		}
		// Token unescapes in place, so Raw has to be copied first.
		raw := append([]byte(nil), z.Raw()...)
		t := z.Token()

		if f.pending != nil {
			if tt == nethtml.TextToken {
				f.flushOption(strings.TrimSpace(t.Data))
				f.buf.Write(raw)
				continue
			}
			f.flushOption("")
		}

		if f.skip > 0 {
			switch {
			case tt == nethtml.StartTagToken && t.Data == tagIfError:
				f.skip++
			case tt == nethtml.EndTagToken && t.Data == tagIfError:
				f.skip--
			}
			continue
		}

		switch tt {
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			f.startTag(t, raw)
		case nethtml.EndTagToken:
			f.endTag(t, raw)
		case nethtml.TextToken:
			if !f.inTextarea {
				f.buf.Write(raw)
			}
		default:
			f.buf.Write(raw)
		}
	}
}

func (f *filler) startTag(t nethtml.Token, raw []byte) {
	switch t.Data {
	case "form":
		f.buf.Write(raw)
		if !f.formDone {
			f.formDone = true
			f.writeTopErrors()
		}
	case "input":
		f.input(t)
	case "textarea":
		f.textarea(t)
	case "select":
		f.selectTag(t)
	case "option":
		f.option(t, raw)
	case tagError:
		name, _ := attr(t, "name")
		f.printErrors(name)
	case tagIfError:
		if !f.ifError(t) && t.Type == nethtml.StartTagToken {
			f.skip = 1
		}
	default:
		f.buf.Write(raw)
	}
}

func (f *filler) endTag(t nethtml.Token, raw []byte) {
	switch t.Data {
	case tagError, tagIfError:
		return
	case "textarea":
		f.inTextarea = false
	case "select":
		f.selName, f.selActive, f.selValues = "", false, nil
	}
	f.buf.Write(raw)
}

/*──────────────────────────── controls ────────────────────────────*/

func (f *filler) input(t nethtml.Token) {
	name, _ := attr(t, "name")
	typ, _ := attr(t, "type")
	typ = strings.ToLower(typ)
	if typ == "" {
		typ = "text"
	}
	v, has := f.defaults[name]

	switch typ {
	case "file":
	case "image", "submit", "reset", "button":
		if has {
			setAttr(&t, "value", params.String(v))
		}
	case "checkbox", "radio":
		own, ok := attr(t, "value")
		if !ok {
			own = "on"
		}
		switch {
		case has && params.Truthy(v, own):
			setAttr(&t, "checked", "checked")
		case has || f.opts.ForceDefaults:
			delAttr(&t, "checked")
		}
	case "password":
		if f.opts.SkipPasswords {
			break
		}
		fallthrough
	default:
		switch {
		case has:
			setAttr(&t, "value", f.nth(name, v))
		case f.opts.ForceDefaults:
			setAttr(&t, "value", "")
		}
	}

	if typ != "hidden" {
		f.annotate(name, &t)
	}
	writeTag(&f.buf, t)
}

// nth returns the value for the next text input called name.  Repeated
// inputs walk through a list value in order.
func (f *filler) nth(name string, v any) string {
	list := params.Strings(v)
	i := f.used[name]
	f.used[name] = i + 1
	if len(list) <= 1 {
		return params.String(v)
	}
	if i < len(list) {
		return list[i]
	}
	return ""
}

func (f *filler) textarea(t nethtml.Token) {
	name, _ := attr(t, "name")
	f.annotate(name, &t)
	writeTag(&f.buf, t)

	v, has := f.defaults[name]
	if !has && !f.opts.ForceDefaults {
		return
	}
	f.buf.WriteString(html.EscapeString(params.String(v)))
	f.inTextarea = true
}

func (f *filler) selectTag(t nethtml.Token) {
	name, _ := attr(t, "name")
	f.annotate(name, &t)
	writeTag(&f.buf, t)

	v, has := f.defaults[name]
	f.selName = name
	f.selActive = has || f.opts.ForceDefaults
	f.selValues = map[string]struct{}{}
	for _, s := range params.Strings(v) {
		f.selValues[s] = struct{}{}
	}
}

func (f *filler) option(t nethtml.Token, raw []byte) {
	if !f.selActive {
		f.buf.Write(raw)
		return
	}
	if val, ok := attr(t, "value"); ok {
		f.markOption(&t, val)
		writeTag(&f.buf, t)
		return
	}
	f.pending = &t
}

// flushOption writes a pending option whose value is its text.
func (f *filler) flushOption(text string) {
	if f.pending == nil {
		return
	}
	t := *f.pending
	f.pending = nil
	f.markOption(&t, text)
	writeTag(&f.buf, t)
}

func (f *filler) markOption(t *nethtml.Token, val string) {
	if _, ok := f.selValues[val]; ok {
		setAttr(t, "selected", "selected")
		return
	}
	delAttr(t, "selected")
}

/*──────────────────────────── errors ────────────────────────────*/

// annotate adds the error class to a control with errors and, the first
// time, prints its messages in front of it.
func (f *filler) annotate(name string, t *nethtml.Token) {
	if name == "" || !f.errs.Has(name) {
		return
	}
	addClass(t, f.opts.ErrorClass)
	if !f.scan.placeholders[name] {
		f.printErrors(name)
	}
}

func (f *filler) printErrors(name string) {
	if f.printed[name] || !f.errs.Has(name) {
		return
	}
	f.printed[name] = true
	f.buf.WriteString(f.opts.Formatter(f.errs.For(name)))
}

// writeTopErrors prints form-level messages and those of fields that have
// nowhere else to go.
func (f *filler) writeTopErrors() {
	f.printErrors(form.FormKey)
	for _, name := range f.errs.Fields() {
		if !f.scan.controls[name] && !f.scan.placeholders[name] {
			f.printErrors(name)
		}
	}
}

func (f *filler) ifError(t nethtml.Token) bool {
	name, _ := attr(t, "name")
	name = strings.TrimSpace(name)
	if rest, ok := strings.CutPrefix(name, "not "); ok {
		return !f.errs.Has(strings.TrimSpace(rest))
	}
	return f.errs.Has(name)
}

/*──────────────────────────── tag helpers ────────────────────────────*/

func attr(t nethtml.Token, key string) (string, bool) {
	for _, a := range t.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(t *nethtml.Token, key, val string) {
	for i := range t.Attr {
		if t.Attr[i].Key == key {
			t.Attr[i].Val = val
			return
		}
	}
	t.Attr = append(t.Attr, nethtml.Attribute{Key: key, Val: val})
}

func delAttr(t *nethtml.Token, key string) {
	out := t.Attr[:0]
	for _, a := range t.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	t.Attr = out
}

func addClass(t *nethtml.Token, class string) {
	cur, _ := attr(*t, "class")
	for _, c := range strings.Fields(cur) {
		if c == class {
			return
		}
	}
	setAttr(t, "class", strings.TrimSpace(cur+" "+class))
}

// writeTag serialises a start or self-closing tag.  Attribute order is
// kept; new attributes come last.
func writeTag(buf *bytes.Buffer, t nethtml.Token) {
	buf.WriteByte('<')
	buf.WriteString(t.Data)
	for _, a := range t.Attr {
		buf.WriteByte(' ')
		buf.WriteString(a.Key)
		buf.WriteString(`="`)
		buf.WriteString(html.EscapeString(a.Val))
		buf.WriteByte('"')
	}
	if t.Type == nethtml.SelfClosingTagToken {
		buf.WriteString(" /")
	}
	buf.WriteByte('>')
}
