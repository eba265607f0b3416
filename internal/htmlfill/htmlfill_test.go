// internal/htmlfill/htmlfill_test.go
//
// Unit-tests for the HTML fill pass.
//
// Run: go test ./internal/htmlfill -v

package htmlfill

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/validators"
)

func fill(t *testing.T, src string, defaults map[string]any, errs form.Errors, opts Options) string {
	t.Helper()
	out, err := Render(src, defaults, errs, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func TestRender_TextInputs(t *testing.T) {
	src := `<p><input type="text" name="name" value="old"> <input name="nick"><input type="email" name="mail"></p>`
	got := fill(t, src, map[string]any{"name": "Ada & co", "mail": "a@b.c"}, nil, Options{})
	want := `<p><input type="text" name="name" value="Ada &amp; co"> <input name="nick"><input type="email" name="mail" value="a@b.c"></p>`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestRender_RepeatedNamesTakeListValues(t *testing.T) {
	src := `<input name="tag"><input name="tag"><input name="tag">`
	got := fill(t, src, map[string]any{"tag": []string{"a", "b"}}, nil, Options{})
	want := `<input name="tag" value="a"><input name="tag" value="b"><input name="tag" value="">`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestRender_PasswordsAndForceDefaults(t *testing.T) {
	src := `<input type="password" name="pw"><input name="gone" value="x"><input type="file" name="f">`
	defaults := map[string]any{"pw": "secret"}

	got := fill(t, src, defaults, nil, Options{SkipPasswords: true, ForceDefaults: true})
	want := `<input type="password" name="pw"><input name="gone" value=""><input type="file" name="f">`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}

	got = fill(t, src, defaults, nil, Options{})
	if !strings.Contains(got, `name="pw" value="secret"`) || !strings.Contains(got, `name="gone" value="x"`) {
		t.Fatalf("password not filled or other value changed: %s", got)
	}
}

func TestRender_CheckboxRadio(t *testing.T) {
	src := `<input type="checkbox" name="agree"><input type="checkbox" name="c" value="a" checked><input type="checkbox" name="c" value="b">` +
		`<input type="radio" name="size" value="s" checked><input type="radio" name="size" value="m">`
	got := fill(t, src, map[string]any{"agree": true, "c": []string{"b"}, "size": "m"}, nil, Options{})
	want := `<input type="checkbox" name="agree" checked="checked"><input type="checkbox" name="c" value="a"><input type="checkbox" name="c" value="b" checked="checked">` +
		`<input type="radio" name="size" value="s"><input type="radio" name="size" value="m" checked="checked">`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestRender_SubmitKeepsValue(t *testing.T) {
	src := `<input type="submit" name="go" value="Save">`
	if got := fill(t, src, map[string]any{}, nil, Options{ForceDefaults: true}); got != src {
		t.Fatalf("submit changed: %s", got)
	}
	got := fill(t, src, map[string]any{"go": "Again"}, nil, Options{})
	if got != `<input type="submit" name="go" value="Again">` {
		t.Fatalf("submit default ignored: %s", got)
	}
}

func TestRender_TextareaAndSelect(t *testing.T) {
	src := `<textarea name="bio">old &amp; stale</textarea>` +
		`<select name="size"><option value="s" selected>S</option><option value="m">M</option><option>l</option></select>` +
		`<select name="other"><option value="x" selected>X</option></select>`
	got := fill(t, src, map[string]any{"bio": "<b>new</b>", "size": []string{"m", "l"}}, nil, Options{})
	want := `<textarea name="bio">&lt;b&gt;new&lt;/b&gt;</textarea>` +
		`<select name="size"><option value="s">S</option><option value="m" selected="selected">M</option><option selected="selected">l</option></select>` +
		`<select name="other"><option value="x" selected>X</option></select>`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestRender_ErrorsBeforeControl(t *testing.T) {
	src := `<form action="/s"><input name="name" class="wide"><input name="name"></form>`
	errs := form.Errors{"name": {"Please enter a value"}}
	got := fill(t, src, nil, errs, Options{})
	want := `<form action="/s"><span class="error-message">Please enter a value</span><br />` + "\n" +
		`<input name="name" class="wide error"><input name="name" class="error"></form>`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestRender_Placeholders(t *testing.T) {
	src := `<form><input name="age"><form:error name="age"></form:error>` +
		`<form:iferror name="age"><p>check age</p></form:iferror>` +
		`<form:iferror name="not age"><p>all good</p></form:iferror></form>`
	errs := form.Errors{"age": {"Too low"}, form.FormKey: {"Try again"}, "ghost": {"Lost"}}
	got := fill(t, src, nil, errs, Options{ErrorClass: "bad", Formatter: func(m []string) string { return "[" + strings.Join(m, "|") + "]" }})
	want := `<form>[Try again][Lost]<input name="age" class="bad">[Too low]<p>check age</p></form>`
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestRender_NoFormTag(t *testing.T) {
	got := fill(t, `<input name="x">`, nil, form.Errors{form.FormKey: {"Oops"}}, Options{})
	if !strings.HasPrefix(got, `<span class="error-message">Oops</span>`) {
		t.Fatalf("form-level error not first: %s", got)
	}
}

func TestRender_KeepsOtherMarkup(t *testing.T) {
	src := "<!DOCTYPE html>\n<!-- note --><div data-x='1'>Fish &amp; chips</div><script>if (a < b) {}</script>"
	if got := fill(t, src, map[string]any{"x": "y"}, nil, Options{}); got != src {
		t.Fatalf("untouched markup changed:\n%s", got)
	}
}

/*──────────────────────────── with Form ────────────────────────────*/

type tpl struct{ html string }

func (t tpl) Render(string, map[string]any, form.Request) (string, error) { return t.html, nil }

func TestFiller_WithFormRender(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("name=&age=7&addr.city=Oslo"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, err := form.NewHTTPRequest(r, form.HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPRequest: %v", err)
	}

	f, err := form.New(req, form.Options{
		Validators:     map[string]form.Validator{"name": validators.NotEmpty{}},
		VariableDecode: true,
		Templates:      tpl{html: `<form><input name="name"><input name="age"><input name="addr.city"></form>`},
		Filler:         New(Options{}),
	})
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	f.Validate()

	got, err := f.Render("edit", nil, true)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{`name="age" value="7"`, `name="addr.city" value="Oslo"`, `class="error"`, "Please enter a value"} {
		if !strings.Contains(got, want) {
			t.Fatalf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestFiller_RefillsSubmittedListIndexes(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("names-1=a&names-2=b&email="))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, err := form.NewHTTPRequest(r, form.HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPRequest: %v", err)
	}

	f, err := form.New(req, form.Options{
		Validators:     map[string]form.Validator{"email": validators.NotEmpty{}},
		VariableDecode: true,
		Templates:      tpl{html: `<form><input name="names-1"><input name="names-2"><input name="email"></form>`},
		Filler:         New(Options{}),
	})
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	f.Validate()

	got, err := f.Render("edit", nil, true)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{`name="names-1" value="a"`, `name="names-2" value="b"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestFiller_NoFillerConfigured(t *testing.T) {
	req, _ := form.NewHTTPRequest(httptest.NewRequest("GET", "/", nil), form.HTTPOptions{})
	f, _ := form.New(req, form.Options{Validators: map[string]form.Validator{"x": validators.String{}}})
	if _, err := f.HTMLFill("<p></p>"); !errors.Is(err, form.ErrConfiguration) {
		t.Fatalf("err = %v, want ErrConfiguration", err)
	}
}
