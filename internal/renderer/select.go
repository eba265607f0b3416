// internal/renderer/select.go
//
// simpleform – select options and groups.

package renderer

import (
	"bytes"
	"html"

	"github.com/yanizio/simpleform/internal/params"
)

// Item is an Option or an OptGroup.
type Item interface{ isItem() }

// Option is one selectable value.
type Option struct {
	Value string
	Label string
}

// OptGroup groups options under a label.
type OptGroup struct {
	Label   string
	Options []Option
}

func (Option) isItem()   {}
func (OptGroup) isItem() {}

// Opts builds options whose value is their label.
func Opts(labels ...string) []Item {
	out := make([]Item, len(labels))
	for i, l := range labels {
		out[i] = Option{Value: l, Label: l}
	}
	return out
}

// Pairs builds options from alternating value, label arguments.
func Pairs(kv ...string) []Item {
	out := make([]Item, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, Option{Value: kv[i], Label: kv[i+1]})
	}
	return out
}

// Group builds an OptGroup from alternating value, label arguments.
func Group(label string, kv ...string) OptGroup {
	g := OptGroup{Label: label}
	for _, it := range Pairs(kv...) {
		g.Options = append(g.Options, it.(Option))
	}
	return g
}

func (r *Renderer) selectTag(buf *bytes.Buffer, c Control) {
	chosen := map[string]struct{}{}
	for _, s := range params.Strings(r.value(c.Name, c.Value, c.Default)) {
		chosen[s] = struct{}{}
	}

	buf.WriteString(`<select`)
	writeAttr(buf, "name", c.Name)
	writeAttr(buf, "id", r.id(c.ID, c.Name))
	writeAttrs(buf, c.Attrs, r.errClass(c.Name))
	buf.WriteString(`>`)

	for _, it := range c.Options {
		switch t := it.(type) {
		case Option:
			writeOption(buf, t, chosen)
		case OptGroup:
			buf.WriteString(`<optgroup`)
			writeAttr(buf, "label", t.Label)
			buf.WriteString(`>`)
			for _, o := range t.Options {
				writeOption(buf, o, chosen)
			}
			buf.WriteString(`</optgroup>`)
		}
	}
	buf.WriteString(`</select>`)
}

func writeOption(buf *bytes.Buffer, o Option, chosen map[string]struct{}) {
	buf.WriteString(`<option`)
	writeAttr(buf, "value", o.Value)
	if _, ok := chosen[o.Value]; ok {
		buf.WriteString(` selected`)
	}
	buf.WriteString(`>` + html.EscapeString(o.Label) + `</option>`)
}
