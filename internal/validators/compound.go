// internal/validators/compound.go
//
// simpleform – validators built from other validators, and schema-level
// checks that look at several fields.

package validators

import (
	"reflect"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/params"
)

// ForEach applies Item to every element of a list.  A scalar is treated as
// a one-element list.  Failures are reported per index.
type ForEach struct {
	Required bool
	Item     form.Validator
}

func (fe ForEach) Validate(v any, st *form.State) (any, error) {
	if done, err := checkEmpty(v, fe.Required, st); done {
		if err == nil {
			return []any{}, nil
		}
		return nil, err
	}

	items, ok := toList(v)
	if !ok {
		return nil, fail(st, KeyNotList)
	}

	out := make([]any, len(items))
	failures := make([]*form.Invalid, len(items))
	failed := false
	for i, it := range items {
		clean, err := fe.Item.Validate(it, st)
		if err != nil {
			failures[i] = form.AsInvalid(err)
			failed = true
			continue
		}
		out[i] = clean
	}
	if failed {
		return nil, &form.Invalid{Items: failures}
	}
	return out, nil
}

func toList(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case string:
		return []any{t}, true
	case map[string]any:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return []any{v}, true
}

// all chains validators.
type all []form.Validator

// All runs validators in order, feeding each the previous output.  The
// first failure stops the chain.
func All(vs ...form.Validator) form.Validator { return all(vs) }

func (a all) Validate(v any, st *form.State) (any, error) {
	cur := v
	for _, val := range a {
		out, err := val.Validate(cur, st)
		if err != nil {
			return nil, err
		}
		cur = out
	}
	return cur, nil
}

type optional struct{ inner form.Validator }

// Optional skips inner for missing or blank input and returns nil.
func Optional(inner form.Validator) form.Validator { return optional{inner: inner} }

func (o optional) Validate(v any, st *form.State) (any, error) {
	if isEmpty(v) {
		return nil, nil
	}
	return o.inner.Validate(v, st)
}

// FieldsMatch returns a schema-level check that every named field equals
// the first one, e.g. password and password_confirm.  Mismatches are
// reported on the later fields.
func FieldsMatch(fields ...string) form.Schema {
	return form.SchemaFunc(func(data map[string]any, st *form.State) (map[string]any, error) {
		if len(fields) < 2 {
			return data, nil
		}
		want := params.String(data[fields[0]])
		var iv *form.Invalid
		for _, f := range fields[1:] {
			if params.String(data[f]) == want {
				continue
			}
			if iv == nil {
				iv = &form.Invalid{Fields: map[string]*form.Invalid{}}
			}
			iv.Fields[f] = form.NewInvalid(st.Translate(KeyNoMatch, fallback[KeyNoMatch]))
		}
		if iv != nil {
			return nil, iv
		}
		return data, nil
	})
}
