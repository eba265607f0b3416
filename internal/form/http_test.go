// internal/form/http_test.go
//
// Unit-tests for the net/http adapter, State, and Invalid.
//
// Run: go test ./internal/form -v

package form

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/google/go-cmp/cmp"

	"github.com/yanizio/simpleform/internal/params"
)

func TestNewHTTPRequest_URLEncodedKeepsOrder(t *testing.T) {
	r := httptest.NewRequest("POST", "/save?step=2", strings.NewReader("b=1&a=2&b=3"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	hr, err := NewHTTPRequest(r, HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPRequest: %v", err)
	}
	want := []params.Pair{{Key: "b", Value: "1"}, {Key: "a", Value: "2"}, {Key: "b", Value: "3"}}
	if diff := cmp.Diff(want, hr.POST().Pairs()); diff != "" {
		t.Fatalf("POST mismatch (-want +got):\n%s", diff)
	}
	if hr.GET().Get("step") != "2" || hr.Params().Len() != 4 {
		t.Fatalf("query not merged: %v", hr.Params().Pairs())
	}
	if hr.Path() != "/save" || hr.Method() != "POST" {
		t.Fatalf("path/method = %s %s", hr.Method(), hr.Path())
	}
	if _, ok := hr.JSONBody(); ok {
		t.Fatal("urlencoded request reported a JSON body")
	}
}

func TestNewHTTPRequest_JSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ok","n":12345678901234567890}`))
	r.Header.Set("Content-Type", "application/json; charset=utf-8")

	hr, err := NewHTTPRequest(r, HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPRequest: %v", err)
	}
	body, ok := hr.JSONBody()
	if !ok || body["name"] != "ok" {
		t.Fatalf("body = %#v", body)
	}
	if n, _ := body["n"].(json.Number); n.String() != "12345678901234567890" {
		t.Fatalf("number lost precision: %#v", body["n"])
	}

	f, _ := New(hr, Options{Schema: requireName})
	if !f.Validate() {
		t.Fatalf("Validate: %v", f.Errors())
	}
}

func TestNewHTTPRequest_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	r.Header.Set("Content-Type", "application/json")
	if _, err := NewHTTPRequest(r, HTTPOptions{}); !errors.Is(err, ErrBody) {
		t.Fatalf("err = %v, want ErrBody", err)
	}
}

func TestNewHTTPRequest_Multipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "hello")
	fw, _ := mw.CreateFormFile("upload", "cv.pdf")
	_, _ = fw.Write([]byte("%PDF"))
	_ = mw.WriteField("title", "again")
	_ = mw.Close()

	r := httptest.NewRequest("POST", "/", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	hr, err := NewHTTPRequest(r, HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPRequest: %v", err)
	}
	want := []params.Pair{{Key: "title", Value: "hello"}, {Key: "upload", Value: "cv.pdf"}, {Key: "title", Value: "again"}}
	if diff := cmp.Diff(want, hr.POST().Pairs()); diff != "" {
		t.Fatalf("POST mismatch (-want +got):\n%s", diff)
	}
	files := hr.Files()
	if len(files) != 1 || files[0].Filename != "cv.pdf" || string(files[0].Data) != "%PDF" {
		t.Fatalf("files = %+v", files)
	}
}

func TestNewHTTPRequest_BodyCap(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("a="+strings.Repeat("x", 64)))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if _, err := NewHTTPRequest(r, HTTPOptions{MaxMemory: 16}); !errors.Is(err, ErrBody) {
		t.Fatalf("err = %v, want ErrBody", err)
	}
}

/*──────────────────────────── state ────────────────────────────*/

func newTranslator(t *testing.T) ut.Translator {
	t.Helper()
	uni := ut.New(en.New(), en.New())
	tr, _ := uni.GetTranslator("en")
	if err := tr.Add("missing", "Required, {0}!", false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return tr
}

func TestState(t *testing.T) {
	st := NewState()
	st.Set("user", 7)
	if v, ok := st.Get("user"); !ok || v != 7 {
		t.Fatalf("Get = %v %v", v, ok)
	}
	if !st.Has("user") || st.Has("nope") {
		t.Fatal("Has gave the wrong answer")
	}
	st.Delete("user")
	if len(st.Keys()) != 0 {
		t.Fatalf("Keys = %v", st.Keys())
	}

	if got := st.Translate("missing", "Missing %s", "name"); got != "Missing name" {
		t.Fatalf("fallback = %q", got)
	}
	st.Set(TranslatorKey, newTranslator(t))
	if got := st.Translate("missing", "Missing %s", "name"); got != "Required, name!" {
		t.Fatalf("translated = %q", got)
	}
	if got := st.Translate("unknown", "Plain"); got != "Plain" {
		t.Fatalf("unknown key = %q", got)
	}
}

func TestNew_PicksUpRequestTranslator(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	hr, _ := NewHTTPRequest(r, HTTPOptions{Translator: newTranslator(t)})

	f, _ := New(hr, Options{Schema: SchemaFunc(identity)})
	if !f.State().Has(TranslatorKey) {
		t.Fatal("translator not placed in default State")
	}

	own := NewState()
	f, _ = New(hr, Options{Schema: SchemaFunc(identity), State: own})
	if f.State() != own || own.Has(TranslatorKey) {
		t.Fatal("caller State was replaced or modified")
	}
}

/*──────────────────────────── invalid ────────────────────────────*/

func TestInvalid_Unpack(t *testing.T) {
	iv := &Invalid{
		Message: "Form is incomplete",
		Fields: map[string]*Invalid{
			"addr": {Fields: map[string]*Invalid{"city": NewInvalid("Missing value")}},
			"tags": {Items: []*Invalid{nil, NewInvalid("Bad tag"), NewInvalid("Too long")}},
			"name": NewInvalid("Please enter a value"),
		},
	}

	encoded := iv.Unpack(true, "", "")
	want := Errors{
		FormKey:     {"Form is incomplete"},
		"addr.city": {"Missing value"},
		"tags-1":    {"Bad tag"},
		"tags-2":    {"Too long"},
		"name":      {"Please enter a value"},
	}
	if diff := cmp.Diff(want, encoded); diff != "" {
		t.Fatalf("encoded mismatch (-want +got):\n%s", diff)
	}

	flat := iv.Unpack(false, "", "")
	want = Errors{
		FormKey: {"Form is incomplete"},
		"addr":  {"Missing value"},
		"tags":  {"Bad tag", "Too long"},
		"name":  {"Please enter a value"},
	}
	if diff := cmp.Diff(want, flat); diff != "" {
		t.Fatalf("flat mismatch (-want +got):\n%s", diff)
	}
}

func TestAsInvalid(t *testing.T) {
	if AsInvalid(nil) != nil {
		t.Fatal("AsInvalid(nil) != nil")
	}
	if got := AsInvalid(errors.New("boom")); got.Message != "boom" {
		t.Fatalf("plain error = %+v", got)
	}
	iv := NewInvalid("x")
	if AsInvalid(iv) != iv {
		t.Fatal("AsInvalid rewrapped an *Invalid")
	}
	if iv.Error() != "x" {
		t.Fatalf("Error() = %q", iv.Error())
	}
}
