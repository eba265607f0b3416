// internal/schema/struct.go
//
// simpleform – StructSchema: a Schema declared by a Go struct.
//
// Context
//   Handlers that already own a typed input struct should not repeat it as
//   a MapSchema.  StructSchema[T] decodes submitted data into a fresh T one
//   field at a time, then runs go-playground/validator over the result
//   using the `validate` tags on T.
//
// Workflow
//   •  Keys come from the `form` tag, falling back to the snake_case field
//      name, the same mapping Form.Bind uses.
//   •  A value that cannot be converted to its field type is a field error.
//      Struct validation runs only when every field decoded.
//   •  Validator messages are translated with the State translator when it
//      knows the failing tag, and with the built-in English set otherwise.
//
//------------------------------------------------------------------------------

package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
	"github.com/jmoiron/sqlx/reflectx"

	"github.com/yanizio/simpleform/internal/form"
)

const keyBadValue = "badValue"

// ErrNotStruct is returned by NewStruct when T is not a struct type.
var ErrNotStruct = errors.New("schema: type parameter must be a struct")

var mapper = reflectx.NewMapperFunc(form.FieldTag, form.SnakeCase)

// StructSchema validates data against the fields and tags of T.
type StructSchema[T any] struct {
	validate *validator.Validate
	english  ut.Translator
	fields   []*reflectx.FieldInfo
}

// NewStruct prepares a schema for T.
func NewStruct[T any]() (*StructSchema[T], error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrNotStruct, zero)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(formName)

	uni := ut.New(en.New(), en.New())
	english, _ := uni.GetTranslator("en")
	if err := entrans.RegisterDefaultTranslations(v, english); err != nil {
		return nil, fmt.Errorf("schema: register translations: %w", err)
	}

	s := &StructSchema[T]{validate: v, english: english}
	for _, fi := range mapper.TypeMap(t).Index {
		if fi == nil || fi.Embedded || strings.Contains(fi.Path, ".") || fi.Field.PkgPath != "" {
			continue
		}
		s.fields = append(s.fields, fi)
	}
	return s, nil
}

// MustStruct is NewStruct for package-level declarations.
func MustStruct[T any]() *StructSchema[T] {
	s, err := NewStruct[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// formName reports a field's form key to the validator, so FieldError.Field
// matches the submitted name.
func formName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get(form.FieldTag), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return form.SnakeCase(f.Name)
	}
	return name
}

// FieldNames implements form.FieldLister in struct declaration order.
func (s *StructSchema[T]) FieldNames() []string {
	out := make([]string, len(s.fields))
	for i, fi := range s.fields {
		out[i] = fi.Path
	}
	return out
}

// Decode converts data into a T and validates it.
func (s *StructSchema[T]) Decode(data map[string]any, st *form.State) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()

	failures := map[string]*form.Invalid{}
	for _, fi := range s.fields {
		raw, ok := data[fi.Path]
		if !ok || raw == nil {
			continue
		}
		fv := reflectx.FieldByIndexes(rv, fi.Index)
		if err := form.Assign(fv, raw); err != nil {
			failures[fi.Path] = form.NewInvalid(st.Translate(keyBadValue, "Please enter a valid value"))
		}
	}
	if len(failures) > 0 {
		return out, &form.Invalid{Fields: failures}
	}

	err := s.validate.Struct(&out)
	if err == nil {
		return out, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out, err
	}
	for _, fe := range verrs {
		key := topKey(fe.Namespace())
		msg := s.message(fe, st)
		if prev, ok := failures[key]; ok {
			prev.Message += "; " + msg
			continue
		}
		failures[key] = form.NewInvalid(msg)
	}
	return out, &form.Invalid{Fields: failures}
}

// Normalize implements form.Schema.  The output holds every declared
// field, keyed by form name, with its converted value.
func (s *StructSchema[T]) Normalize(data map[string]any, st *form.State) (map[string]any, error) {
	obj, err := s.Decode(data, st)
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(&obj).Elem()
	out := make(map[string]any, len(s.fields))
	for _, fi := range s.fields {
		out[fi.Path] = reflectx.FieldByIndexesReadOnly(rv, fi.Index).Interface()
	}
	return out, nil
}

func (s *StructSchema[T]) message(fe validator.FieldError, st *form.State) string {
	if tr, ok := st.Translator(); ok {
		if msg, err := tr.T(fe.Tag(), fe.Field(), fe.Param()); err == nil && msg != "" {
			return msg
		}
	}
	return fe.Translate(s.english)
}

// topKey drops the struct name from a validator namespace and keeps the
// first path element: "Signup.addr.city" → "addr", "Signup.tags[1]" → "tags".
func topKey(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexAny(ns, ".["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}
