// internal/schema/map.go
//
// simpleform – MapSchema: ordered field → validator schema.
//
// Context
//   MapSchema is the everyday Schema: a list of fields, each with one
//   Validator, plus optional schema-level checks (Chained) that run once
//   every field passed, such as validators.FieldsMatch.  Field order is
//   kept so AllErrors and rendered error lists follow the page layout.
//
// Notes
//   •  Missing fields are validated with a nil value.  Whether that is an
//      error is the field validator's decision (Required).
//   •  Extra fields, ones the schema does not declare, are kept by default
//      and dropped with FilterExtra.  With AllowExtra off they are errors.
//
//------------------------------------------------------------------------------

package schema

import (
	"sort"

	"github.com/yanizio/simpleform/internal/form"
)

const keyNotExpected = "notExpected"

// Field pairs a name with its validator.
type Field struct {
	Name      string
	Validator form.Validator
}

// MapSchema validates a mapping field by field.
type MapSchema struct {
	fields []Field

	AllowExtra  bool
	FilterExtra bool
	Chained     []form.Schema
}

// NewMap returns a schema over fields.  Extra fields are allowed and
// filtered, which suits HTML forms that carry buttons and CSRF tokens.
func NewMap(fields ...Field) *MapSchema {
	return &MapSchema{fields: fields, AllowExtra: true, FilterExtra: true}
}

// Add appends a field and returns m for chaining.
func (m *MapSchema) Add(name string, v form.Validator) *MapSchema {
	m.fields = append(m.fields, Field{Name: name, Validator: v})
	return m
}

// Chain appends schema-level checks.
func (m *MapSchema) Chain(s ...form.Schema) *MapSchema {
	m.Chained = append(m.Chained, s...)
	return m
}

// FieldNames implements form.FieldLister.
func (m *MapSchema) FieldNames() []string {
	out := make([]string, len(m.fields))
	for i, f := range m.fields {
		out[i] = f.Name
	}
	return out
}

// Normalize implements form.Schema.
func (m *MapSchema) Normalize(data map[string]any, st *form.State) (map[string]any, error) {
	out := make(map[string]any, len(data))
	failures := map[string]*form.Invalid{}

	declared := make(map[string]struct{}, len(m.fields))
	for _, f := range m.fields {
		declared[f.Name] = struct{}{}
	}

	extras := make([]string, 0)
	for k := range data {
		if _, ok := declared[k]; !ok {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	for _, k := range extras {
		switch {
		case !m.AllowExtra:
			failures[k] = form.NewInvalid(st.Translate(keyNotExpected, "The input field %v was not expected.", k))
		case !m.FilterExtra:
			out[k] = data[k]
		}
	}

	for _, f := range m.fields {
		if f.Validator == nil {
			out[f.Name] = data[f.Name]
			continue
		}
		clean, err := f.Validator.Validate(data[f.Name], st)
		if err != nil {
			failures[f.Name] = form.AsInvalid(err)
			continue
		}
		out[f.Name] = clean
	}

	if len(failures) > 0 {
		return nil, &form.Invalid{Fields: failures}
	}

	for _, c := range m.Chained {
		next, err := c.Normalize(out, st)
		if err != nil {
			return nil, err
		}
		if next != nil {
			out = next
		}
	}
	return out, nil
}
