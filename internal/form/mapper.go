// internal/form/mapper.go
//
// simpleform – struct field mapping shared by Bind and object seeding.
//
// Context
//   Form keys map onto struct fields through the `form` tag, falling back
//   to the snake_case field name (FirstName → first_name).  sqlx's reflectx
//   does the walking and caches the type map, so repeated binds of the same
//   struct type are cheap.  Values are converted with mapstructure in weak
//   mode, because submitted values are mostly strings.
//
//------------------------------------------------------------------------------

package form

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/jmoiron/sqlx/reflectx"
)

// FieldTag is the struct tag read by Bind and object seeding.
const FieldTag = "form"

var mapper = reflectx.NewMapperFunc(FieldTag, SnakeCase)

var timeType = reflect.TypeOf(time.Time{})

// SnakeCase converts a Go field name: FirstName → first_name, UserID →
// user_id, HTMLBody → html_body.
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// structValue dereferences obj down to an addressable struct.
func structValue(obj any) (reflect.Value, bool) {
	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return reflect.Value{}, false
	}
	rv = reflect.Indirect(rv)
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return rv, true
}

// topLevel lists the exported, non-embedded fields addressable by one key.
func topLevel(t reflect.Type) []*reflectx.FieldInfo {
	var out []*reflectx.FieldInfo
	for _, fi := range mapper.TypeMap(t).Index {
		if fi == nil || fi.Embedded || strings.Contains(fi.Path, ".") || fi.Field.PkgPath != "" {
			continue
		}
		out = append(out, fi)
	}
	return out
}

// seedFrom reads initial data from obj.  Only names are read when given;
// otherwise every exported top-level field.  Maps are copied the same way.
func seedFrom(obj any, names []string) (map[string]any, error) {
	out := map[string]any{}

	if m, ok := obj.(map[string]any); ok {
		if len(names) == 0 {
			for k, v := range m {
				out[k] = v
			}
			return out, nil
		}
		for _, n := range names {
			if v, ok := m[n]; ok {
				out[n] = v
			}
		}
		return out, nil
	}

	rv, ok := structValue(obj)
	if !ok {
		return nil, fmt.Errorf("%w: seed object must be a struct pointer or map[string]any, got %T", ErrConfiguration, obj)
	}

	if len(names) == 0 {
		for _, fi := range topLevel(rv.Type()) {
			out[fi.Path] = reflectx.FieldByIndexesReadOnly(rv, fi.Index).Interface()
		}
		return out, nil
	}

	sm := mapper.TypeMap(rv.Type())
	for _, n := range names {
		fi := sm.GetByPath(n)
		if fi == nil || fi.Field.PkgPath != "" {
			continue
		}
		fv := reflectx.FieldByIndexesReadOnly(rv, fi.Index)
		if !fv.IsValid() {
			continue
		}
		out[n] = fv.Interface()
	}
	return out, nil
}

// Assign converts value into dst's type and stores it.
func Assign(dst reflect.Value, value any) error {
	if s, ok := value.(string); ok && s == "" && dst.Type() == timeType {
		dst.Set(reflect.Zero(timeType))
		return nil
	}

	target := reflect.New(dst.Type())
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          FieldTag,
		Result:           target.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonNumberHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(value); err != nil {
		return err
	}
	dst.Set(target.Elem())
	return nil
}

// jsonNumberHook lets JSON bodies decoded with UseNumber land in float and
// string fields as well as integers.
func jsonNumberHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok {
		return data, nil
	}
	switch to.Kind() {
	case reflect.String:
		return n.String(), nil
	case reflect.Float32, reflect.Float64:
		return n.Float64()
	}
	return data, nil
}
