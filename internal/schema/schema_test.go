// internal/schema/schema_test.go
//
// Tests for MapSchema, StructSchema, definitions, and the registry.
//
// Run: go test ./internal/schema -v

package schema

import (
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/renderer"
	"github.com/yanizio/simpleform/internal/validators"
)

func post(t *testing.T, body string) form.Request {
	t.Helper()
	r := httptest.NewRequest("POST", "/signup", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	hr, err := form.NewHTTPRequest(r, form.HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPRequest: %v", err)
	}
	return hr
}

/*──────────────────────────── MapSchema ────────────────────────────*/

func TestMapSchema_FieldsAndExtras(t *testing.T) {
	m := NewMap().
		Add("name", validators.String{Required: true, Strip: true}).
		Add("age", validators.Int{})
	st := form.NewState()

	got, err := m.Normalize(map[string]any{"name": " Ada ", "age": "36", "_csrf": "x"}, st)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"name": "Ada", "age": 36}, got); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	m.FilterExtra = false
	got, _ = m.Normalize(map[string]any{"name": "Ada", "_csrf": "x"}, st)
	if got["_csrf"] != "x" {
		t.Fatalf("extra field dropped with FilterExtra off: %v", got)
	}

	m.AllowExtra = false
	_, err = m.Normalize(map[string]any{"name": "Ada", "nick": "a"}, st)
	want := form.Errors{"nick": {"The input field nick was not expected."}}
	if diff := cmp.Diff(want, form.AsInvalid(err).Unpack(false, "", "")); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapSchema_ChainedRunsOnlyWhenFieldsPass(t *testing.T) {
	m := NewMap().
		Add("password", validators.String{Required: true}).
		Add("confirm", validators.String{Required: true}).
		Chain(validators.FieldsMatch("password", "confirm"))
	st := form.NewState()

	_, err := m.Normalize(map[string]any{"password": "a"}, st)
	got := form.AsInvalid(err).Unpack(false, "", "")
	if diff := cmp.Diff(form.Errors{"confirm": {"Missing value"}}, got); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}

	_, err = m.Normalize(map[string]any{"password": "a", "confirm": "b"}, st)
	got = form.AsInvalid(err).Unpack(false, "", "")
	if diff := cmp.Diff(form.Errors{"confirm": {"Fields do not match"}}, got); diff != "" {
		t.Fatalf("chained errors mismatch (-want +got):\n%s", diff)
	}
}

func TestMapSchema_WithForm(t *testing.T) {
	m := NewMap().Add("name", validators.NotEmpty{}).Add("email", validators.Email{Required: true})

	f, err := form.New(post(t, "name=&email=bad"), form.Options{Schema: m})
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	if f.Validate() {
		t.Fatal("Validate() = true for blank name and bad email")
	}
	want := []string{"Please enter a value", "Please enter a valid email address"}
	if diff := cmp.Diff(want, f.AllErrors()); diff != "" {
		t.Fatalf("AllErrors follows declared order (-want +got):\n%s", diff)
	}
}

/*──────────────────────────── StructSchema ────────────────────────────*/

type signup struct {
	Name      string `validate:"required,min=2"`
	Age       int    `validate:"gte=18"`
	Email     string `form:"mail" validate:"required,email"`
	FirstName string
	Ignored   string `form:"-"`
}

func TestStructSchema_FieldNames(t *testing.T) {
	s := MustStruct[signup]()
	want := []string{"name", "age", "mail", "first_name"}
	if diff := cmp.Diff(want, s.FieldNames()); diff != "" {
		t.Fatalf("FieldNames mismatch (-want +got):\n%s", diff)
	}
}

func TestStructSchema_Decode(t *testing.T) {
	s := MustStruct[signup]()
	st := form.NewState()

	got, err := s.Decode(map[string]any{"name": "Ada", "age": "36", "mail": "ada@example.com", "first_name": "A"}, st)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := signup{Name: "Ada", Age: 36, Email: "ada@example.com", FirstName: "A"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestStructSchema_Errors(t *testing.T) {
	s := MustStruct[signup]()
	st := form.NewState()

	_, err := s.Decode(map[string]any{"name": "A", "age": "x"}, st)
	got := form.AsInvalid(err).Unpack(false, "", "")
	if diff := cmp.Diff(form.Errors{"age": {"Please enter a valid value"}}, got); diff != "" {
		t.Fatalf("conversion errors mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Decode(map[string]any{"name": "A", "age": "12"}, st)
	got = form.AsInvalid(err).Unpack(false, "", "")
	if diff := cmp.Diff([]string{"name", "age", "mail"}, sortedFields(got)); diff != "" {
		t.Fatalf("failing fields mismatch (-want +got):\n%s", diff)
	}
	if msg := got["mail"][0]; msg != "mail is a required field" {
		t.Fatalf("mail message = %q", msg)
	}
}

func sortedFields(e form.Errors) []string {
	order := []string{"name", "age", "mail", "first_name"}
	var out []string
	for _, k := range order {
		if e.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

func TestStructSchema_NormalizeAndBind(t *testing.T) {
	f, err := form.New(post(t, "name=Ada&age=40&mail=ada@example.com&first_name=Ada"), form.Options{Schema: MustStruct[signup]()})
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	if !f.Validate() {
		t.Fatalf("Validate() = false: %v", f.Errors())
	}
	var out signup
	if _, err := f.Bind(&out); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if out.Age != 40 || out.Email != "ada@example.com" || out.FirstName != "Ada" {
		t.Fatalf("bound = %+v", out)
	}
}

func TestNewStruct_RejectsNonStruct(t *testing.T) {
	if _, err := NewStruct[int](); !errors.Is(err, ErrNotStruct) {
		t.Fatalf("err = %v, want ErrNotStruct", err)
	}
}

/*──────────────────────────── Definition ────────────────────────────*/

const signupYAML = `
id: account/signup
title: Sign up
fields:
  - name: name
    label: Name
    type: text
    required: true
    minlength: 2
  - name: email
    label: Email
    type: email
    required: true
  - name: age
    label: Age
    type: integer
    min: 18
  - name: size
    label: Size
    type: select
    options: [s, m, l]
    default: m
  - name: code
    label: Code
    type: text
    pattern: "[A-Z]{3}"
    error: Use three capital letters
  - name: go
    label: Sign up
    type: submit
`

func TestParse_Build(t *testing.T) {
	d, err := Parse([]byte(signupYAML), "signup.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	m := d.Build()
	if diff := cmp.Diff([]string{"name", "email", "age", "size", "code"}, m.FieldNames()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	st := form.NewState()
	got, err := m.Normalize(map[string]any{"name": "Ada", "email": "ada@example.com", "age": "21", "size": "l", "code": "ABC"}, st)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got["age"] != 21 || got["code"] != "ABC" {
		t.Fatalf("normalized = %v", got)
	}

	_, err = m.Normalize(map[string]any{"name": "A", "email": "ada@example.com", "age": "12", "size": "xl", "code": "abc"}, st)
	want := form.Errors{
		"name": {"Enter a value at least 2 characters long"},
		"age":  {"Please enter a number that is 18 or greater"},
		"size": {"Value must be one of: s, m, l"},
		"code": {"Use three capital letters"},
	}
	if diff := cmp.Diff(want, form.AsInvalid(err).Unpack(false, "", "")); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinition_DefaultsAndControls(t *testing.T) {
	d, err := Parse([]byte(signupYAML), "signup.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"size": "m"}, d.Defaults()); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	cs := d.Controls()
	var kinds []string
	for _, c := range cs {
		kinds = append(kinds, c.Kind.String()+":"+c.Attrs.Type)
	}
	want := []string{"text:", "text:email", "text:number", "select:", "text:", "submit:"}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("controls mismatch (-want +got):\n%s", diff)
	}
	if cs[5].Label != "Sign up" || cs[4].Attrs.Pattern != "[A-Z]{3}" {
		t.Fatalf("control details lost: %+v %+v", cs[5], cs[4])
	}
	if cs[3].Kind != renderer.KindSelect || len(cs[3].Options) != 3 {
		t.Fatalf("select options = %v", cs[3].Options)
	}
}

func TestParse_StructuralErrors(t *testing.T) {
	cases := map[string]string{
		"no id":         "fields: [{name: a, label: A, type: text}]",
		"no fields":     "id: x",
		"both":          "id: x\nfields: [{name: a, label: A, type: text}]\nsteps: [{fields: [{name: b, label: B, type: text}]}]",
		"no label":      "id: x\nfields: [{name: a, type: text}]",
		"bad type":      "id: x\nfields: [{name: a, label: A, type: colour}]",
		"duplicate":     "id: x\nsteps: [{fields: [{name: a, label: A, type: text}]}, {fields: [{name: a, label: A, type: text}]}]",
		"bad pattern":   "id: x\nfields: [{name: a, label: A, type: text, pattern: '('}]",
		"length order":  "id: x\nfields: [{name: a, label: A, type: text, minlength: 5, maxlength: 2}]",
		"select no opt": "id: x\nfields: [{name: a, label: A, type: select}]",
		"unknown rule":  "id: x\nfields: [{name: a, label: A, type: text, rules: bogus}]",
		"bad rule arg":  "id: x\nfields: [{name: a, label: A, type: text, rules: 'min=abc'}]",
		"bad yaml":      "id: [",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src), name); !errors.Is(err, ErrDefinition) {
				t.Fatalf("err = %v, want ErrDefinition", err)
			}
		})
	}
}

func TestParse_StepIDs(t *testing.T) {
	d, err := Parse([]byte("id: wiz\nsteps:\n  - fields: [{name: a, label: A, type: text}]\n  - id: last\n    fields: [{name: b, label: B, type: checkbox}]\n"), "wiz.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ok := d.Step("step1"); !ok {
		t.Fatal("first step did not get a derived id")
	}
	if len(d.AllFields()) != 2 {
		t.Fatalf("AllFields = %v", d.AllFields())
	}
}

/*──────────────────────────── Registry ────────────────────────────*/

func TestRegistry_LoadFSPrecedence(t *testing.T) {
	override := fstest.MapFS{
		"signup.yaml": {Data: []byte("id: signup\ntitle: Override\nfields: [{name: a, label: A, type: text}]\n")},
	}
	shared := fstest.MapFS{
		"forms/signup.yml": {Data: []byte("id: signup\ntitle: Shared\nfields: [{name: a, label: A, type: text}]\n")},
		"forms/contact.yaml": {Data: []byte("id: contact\nfields: [{name: msg, label: Message, type: textarea}]\n")},
		"forms/README.md":    {Data: []byte("not a form")},
	}

	reg := NewRegistry(nil)
	if err := reg.LoadFS(override, "."); err != nil {
		t.Fatalf("LoadFS override: %v", err)
	}
	if err := reg.LoadFS(shared, "."); err != nil {
		t.Fatalf("LoadFS shared: %v", err)
	}

	if diff := cmp.Diff([]string{"contact", "signup"}, reg.IDs()); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
	d, _ := reg.Get("signup")
	if d.Title != "Override" {
		t.Fatalf("title = %q, want the override", d.Title)
	}
}

func TestRegistry_LoadDirs(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("id: a\nfields: [{name: x, label: X, type: text}]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewRegistry(nil)
	if err := reg.LoadDirs(filepath.Join(dir, "missing"), dir); err != nil {
		t.Fatalf("LoadDirs: %v", err)
	}
	if _, ok := reg.Get("a"); !ok {
		t.Fatal("definition not registered")
	}
	if err := reg.LoadDirs(); !errors.Is(err, ErrNoDirs) {
		t.Fatalf("err = %v, want ErrNoDirs", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("id: b"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewRegistry(nil).LoadDirs(dir); !errors.Is(err, ErrDefinition) {
		t.Fatalf("err = %v, want ErrDefinition", err)
	}
}
