// internal/view/render.go
//
// Template engine for forms: lookup, override chain, func-map injection, and
// an LRU of parsed *template.Template* sets.
//
// Public helpers
// --------------
//   - Engine.Render – satisfies form.TemplateRenderer, returns a string.
//   - Engine.Write  – streams rendered HTML to an http.ResponseWriter.
//
// Lookup precedence (first hit wins) follows Options.Dirs, e.g.
//   1. site/<name>.html
//   2. shared/<name>.html
//
// All templates in the same directory are parsed as one set so sub-templates
// ({{ template "row" . }}) work out-of-the-box.  Concurrent first loads of
// the same name are collapsed with singleflight.
//
// Template context
// ----------------
// When the context holds a *form.Form under "form", the engine adds a
// *renderer.Renderer under "r", so templates can write {{ .r.Text "name"
// nil (attrs "class" "wide") }}.
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/simpleform/internal/cache"
	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/renderer"
)

// ErrNotFound is returned when no directory holds the template.
var ErrNotFound = errors.New("view: template not found")

// Options tune an Engine.
type Options struct {
	FS        fs.FS
	Dirs      []string // lookup order; empty means ["."]
	Ext       string   // "" means ".html"
	CacheSize int      // parsed sets kept; 0 means 256
	NoCache   bool     // re-parse on every render (development)
	Renderer  renderer.Config
	Funcs     template.FuncMap
	Logger    *zap.SugaredLogger
}

// Engine renders named templates from an fs.FS.  Safe for concurrent use.
type Engine struct {
	opts  Options
	lru   *cache.LRU[string, *template.Template]
	group singleflight.Group
	log   *zap.SugaredLogger
}

var _ form.TemplateRenderer = (*Engine)(nil)

// New returns an Engine.
func New(opts Options) *Engine {
	if len(opts.Dirs) == 0 {
		opts.Dirs = []string{"."}
	}
	if opts.Ext == "" {
		opts.Ext = ".html"
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	return &Engine{opts: opts, lru: cache.New[string, *template.Template](opts.CacheSize), log: log}
}

// Render executes name with ctx and returns the HTML.
func (e *Engine) Render(name string, ctx map[string]any, req form.Request) (string, error) {
	var buf bytes.Buffer
	if err := e.execute(&buf, name, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write executes name with ctx and streams it to w.  Output is buffered so a
// template error still yields a clean 500.
func (e *Engine) Write(w http.ResponseWriter, name string, ctx map[string]any) error {
	var buf bytes.Buffer
	if err := e.execute(&buf, name, ctx); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

func (e *Engine) execute(buf *bytes.Buffer, name string, ctx map[string]any) error {
	t, err := e.load(name)
	if err != nil {
		return err
	}
	data := make(map[string]any, len(ctx)+1)
	for k, v := range ctx {
		data[k] = v
	}
	if f, ok := ctx["form"].(*form.Form); ok && f != nil {
		if _, taken := data["r"]; !taken {
			data["r"] = renderer.New(f, e.opts.Renderer)
		}
	}
	if err := t.ExecuteTemplate(buf, execName(t, name, e.opts.Ext), data); err != nil {
		return fmt.Errorf("view %s: %w", name, err)
	}
	return nil
}

//
// internal: load
//

// load finds and (if necessary) parses the template set for name.
func (e *Engine) load(name string) (*template.Template, error) {
	if !e.opts.NoCache {
		if t, ok := e.lru.Get(name); ok {
			return t, nil
		}
	}

	v, err, _ := e.group.Do(name, func() (any, error) {
		t, err := e.parse(name)
		if err != nil {
			return nil, err
		}
		if !e.opts.NoCache {
			e.lru.Add(name, t)
		}
		e.log.Debugw("template set parsed", "name", name)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Template), nil
}

func (e *Engine) parse(name string) (*template.Template, error) {
	var dir string
	for _, d := range e.opts.Dirs {
		if _, err := fs.Stat(e.opts.FS, path.Join(d, name+e.opts.Ext)); err == nil {
			dir = d
			break
		}
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	// Parse all templates in the same directory so sub-templates work.
	t, err := template.New(name).Funcs(e.funcMap()).ParseFS(e.opts.FS, path.Join(dir, "*"+e.opts.Ext))
	if err != nil {
		return nil, fmt.Errorf("view %s: %w", name, err)
	}
	return t, nil
}

//
// func-map builders
//

func (e *Engine) funcMap() template.FuncMap {
	fm := template.FuncMap{
		"dict":  dict,
		"attrs": attrs,
		"opts":  renderer.Opts,
		"pairs": renderer.Pairs,
	}
	for k, v := range e.opts.Funcs {
		fm[k] = v
	}
	return fm
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name><ext>" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name, ext string) string {
	if tmpl := t.Lookup(name + ext); tmpl != nil {
		return name + ext
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// attrs builds renderer.Attrs from key/value pairs: {{ attrs "class" "wide"
// "maxlength" 40 }}.  Keys match Attrs fields case-insensitively.
func attrs(kv ...any) (renderer.Attrs, error) {
	var a renderer.Attrs
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &a,
	})
	if err != nil {
		return a, err
	}
	if err := dec.Decode(dict(kv...)); err != nil {
		return a, fmt.Errorf("attrs: %w", err)
	}
	return a, nil
}
