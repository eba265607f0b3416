// internal/view/render_test.go
//
// Unit-tests for the template engine.
//
// Run: go test ./internal/view -v

package view

import (
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/validators"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"site/hello.html":   {Data: []byte(`site {{ .name }}`)},
		"shared/hello.html": {Data: []byte(`shared {{ .name }}`)},
		"shared/page.html":  {Data: []byte(`{{ template "row" dict "v" .name }}`)},
		"shared/row.html":   {Data: []byte(`{{ define "row" }}<b>{{ .v }}</b>{{ end }}`)},
		"shared/edit.html": {Data: []byte(`{{ .r.Begin "" (attrs) }}{{ .r.Text "name" nil (attrs "class" "wide" "maxlength" 20) }}` +
			`{{ .r.ErrorList "name" }}{{ .r.End }}`)},
		"shared/bad.html": {Data: []byte(`{{ attrs "colour" "red" }}`)},
	}
}

func TestEngine_Precedence(t *testing.T) {
	e := New(Options{FS: testFS(), Dirs: []string{"site", "shared"}})
	got, err := e.Render("hello", map[string]any{"name": "Ada"}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "site Ada" {
		t.Fatalf("got %q, want the site override", got)
	}
}

func TestEngine_SubTemplates(t *testing.T) {
	e := New(Options{FS: testFS(), Dirs: []string{"site", "shared"}})
	got, err := e.Render("page", map[string]any{"name": "<x>"}, nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "<b>&lt;x&gt;</b>" {
		t.Fatalf("got %q", got)
	}
}

func TestEngine_NotFound(t *testing.T) {
	e := New(Options{FS: testFS(), Dirs: []string{"site"}})
	if _, err := e.Render("page", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestEngine_BadAttrs(t *testing.T) {
	e := New(Options{FS: testFS(), Dirs: []string{"shared"}})
	if _, err := e.Render("bad", nil, nil); err == nil {
		t.Fatal("unknown attribute accepted")
	}
}

func TestEngine_CachesParsedSets(t *testing.T) {
	fsys := testFS()
	e := New(Options{FS: fsys, Dirs: []string{"shared"}})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.Render("hello", map[string]any{"name": "x"}, nil); err != nil {
				t.Errorf("Render: %v", err)
			}
		}()
	}
	wg.Wait()

	fsys["shared/hello.html"] = &fstest.MapFile{Data: []byte("changed")}
	if got, _ := e.Render("hello", map[string]any{"name": "x"}, nil); got != "shared x" {
		t.Fatalf("cached set not reused: %q", got)
	}

	dev := New(Options{FS: fsys, Dirs: []string{"shared"}, NoCache: true})
	if got, _ := dev.Render("hello", nil, nil); got != "changed" {
		t.Fatalf("NoCache served %q", got)
	}
}

func TestEngine_FormRender(t *testing.T) {
	r := httptest.NewRequest("POST", "/people", strings.NewReader("name="))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req, err := form.NewHTTPRequest(r, form.HTTPOptions{})
	if err != nil {
		t.Fatalf("NewHTTPRequest: %v", err)
	}

	e := New(Options{FS: testFS(), Dirs: []string{"shared"}})
	f, err := form.New(req, form.Options{
		Validators: map[string]form.Validator{"name": validators.NotEmpty{}},
		Templates:  e,
	})
	if err != nil {
		t.Fatalf("form.New: %v", err)
	}
	f.Validate()

	got, err := f.Render("edit", nil, false)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{`<form action="/people" method="post">`, `class="wide error"`, `maxlength="20"`, `<ul class="error"><li>Please enter a value</li></ul>`, `</form>`} {
		if !strings.Contains(got, want) {
			t.Fatalf("output lacks %q:\n%s", want, got)
		}
	}
}

func TestDict(t *testing.T) {
	m := dict("a", 1, "b", "two", "dangling")
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Fatalf("dict = %v", m)
	}
}
