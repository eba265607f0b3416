// internal/form/render.go
//
// simpleform – template rendering with value fill.
//
// Context
//   Render hands the template engine the Form itself under "form", so
//   templates can call a renderer or ask for errors directly.  With fill
//   set, the output then runs through the Filler, which writes current
//   values and error annotations into the markup by element name.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"

	"github.com/yanizio/simpleform/internal/params"
)

// Render renders the named template with extra plus "form".
func (f *Form) Render(name string, extra map[string]any, fill bool) (string, error) {
	if f.templates == nil {
		return "", fmt.Errorf("%w: no template renderer", ErrConfiguration)
	}
	ctx := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		ctx[k] = v
	}
	ctx["form"] = f

	out, err := f.templates.Render(name, ctx, f.req)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	if !fill {
		return out, nil
	}
	return f.HTMLFill(out)
}

// HTMLFill fills content with the current data and errors.  With variable
// decoding on, nested data is encoded back to the flat names the markup
// uses (addr.city, names-0).  An invalid submission is refilled under the
// keys it was posted with, since decoding closes index gaps.
func (f *Form) HTMLFill(content string) (string, error) {
	if f.filler == nil {
		return "", fmt.Errorf("%w: no html filler", ErrConfiguration)
	}
	data := f.data
	if f.variableDecode {
		data = params.Encode(f.data, f.dictChar, f.listChar)
		if f.submitted != nil && f.hasErrors() {
			data = f.overlaySubmitted(data)
		}
	}
	return f.filler.Fill(content, data, f.errors)
}

// overlaySubmitted replaces every encoded field that was part of the
// submission with its submitted flat keys.
func (f *Form) overlaySubmitted(encoded map[string]any) map[string]any {
	roots := make(map[string]bool, len(f.submitted))
	for k := range f.submitted {
		roots[params.Root(k, f.dictChar, f.listChar)] = true
	}
	out := make(map[string]any, len(encoded)+len(f.submitted))
	for k, v := range encoded {
		if !roots[params.Root(k, f.dictChar, f.listChar)] {
			out[k] = v
		}
	}
	for k, v := range f.submitted {
		out[k] = v
	}
	return out
}
