// internal/preview/preview.go
//
// Preview routes for YAML form definitions.
//
// Context
// -------
// `formlint serve` mounts these routes so authors can click through every
// definition in a browser.  Each request builds a fresh Form from the
// definition, validates on POST, and re-renders with errors or shows the
// cleaned data.
//
// Workflow
// --------
//   GET  /                – list of definition IDs.
//   GET  /forms/{id…}     – blank form with defaults.
//   POST /forms/{id…}     – validate; 422 with errors, or 200 with data.
//
// A definition may ship its own hand-written markup: when the view engine
// holds a template named after the ID (slashes become underscores), that
// template is rendered and then filled with values and error annotations.
// Otherwise the generic "form" template draws every control.
//
// Notes
// -----
// • CSRF enforcement is left to middleware.CSRF in front of these routes.
// • Oxford commas, two spaces after periods.

package preview

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/renderer"
	"github.com/yanizio/simpleform/internal/schema"
	"github.com/yanizio/simpleform/internal/session"
	"github.com/yanizio/simpleform/internal/view"
)

//go:embed templates/*.html
var embedded embed.FS

// Templates returns the built-in page templates rooted at their directory.
func Templates() fs.FS {
	sub, _ := fs.Sub(embedded, "templates")
	return sub
}

// Options wire a Handler.
type Options struct {
	Registry *schema.Registry
	Views    *view.Engine
	Filler   form.Filler // used for custom per-definition templates
	MaxBody  int64
	Logger   *zap.SugaredLogger
}

// Handler serves the preview pages.
type Handler struct {
	opts Options
	log  *zap.SugaredLogger
}

// New returns a Handler.
func New(opts Options) *Handler {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}
	return &Handler{opts: opts, log: log}
}

// Routes returns the preview router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.index)
	r.Get("/forms/*", h.form)
	r.Post("/forms/*", h.form)
	return r
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	if err := h.opts.Views.Write(w, "index", map[string]any{"ids": h.opts.Registry.IDs()}); err != nil {
		h.fail(w, r, err)
	}
}

func (h *Handler) form(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(chi.URLParam(r, "*"), "/")
	def, ok := h.opts.Registry.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	req, err := form.NewHTTPRequest(r, form.HTTPOptions{
		Session:   session.FromContext(r.Context()),
		MaxMemory: h.opts.MaxBody,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := form.New(req, form.Options{
		Schema:    def.Build(),
		Defaults:  def.Defaults(),
		Multipart: hasFile(def),
		Logger:    h.log.With("form", def.ID),
		Templates: h.opts.Views,
		Filler:    h.opts.Filler,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		if f.Validate() {
			h.done(w, r, def, f)
			return
		}
		status = http.StatusUnprocessableEntity
	}

	out, err := h.renderForm(def, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out))
}

// renderForm prefers a template named after the definition and falls back
// to the generic one.
func (h *Handler) renderForm(def *schema.Definition, f *form.Form) (string, error) {
	extra := map[string]any{"def": def}
	if h.opts.Filler != nil {
		out, err := f.Render(TemplateName(def.ID), extra, true)
		if err == nil || !errors.Is(err, view.ErrNotFound) {
			return out, err
		}
	}
	rows, hasSubmit := layout(def)
	extra["rows"] = rows
	extra["hasSubmit"] = hasSubmit
	return f.Render("form", extra, false)
}

func (h *Handler) done(w http.ResponseWriter, r *http.Request, def *schema.Definition, f *form.Form) {
	dump, err := yaml.Marshal(f.Data())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Infow("preview submission valid", "form", def.ID, "fields", len(f.Data()))
	if err := h.opts.Views.Write(w, "done", map[string]any{"def": def, "dump": string(dump)}); err != nil {
		h.fail(w, r, err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Errorw("preview failed", "path", r.URL.Path, "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

/*──────────────────────────── layout ────────────────────────────*/

// Row is one control of the generic form page.
type Row struct {
	Control renderer.Control
	Legend  string // caption of an option group, on its first control
	Label   string
	Last    bool // last control of its field; carries the error list
}

// layout turns the definition into rows.  Option groups (radio and
// checkbox sets) label each control with its option value.
func layout(def *schema.Definition) ([]Row, bool) {
	labels := make(map[string]string)
	hasSubmit := false
	for _, fd := range def.AllFields() {
		labels[fd.Name] = fd.Label
		if fd.Type == "submit" {
			hasSubmit = true
		}
	}

	controls := def.Controls()
	rows := make([]Row, 0, len(controls))
	for i, c := range controls {
		first := i == 0 || controls[i-1].Name != c.Name
		row := Row{Control: c, Last: i == len(controls)-1 || controls[i+1].Name != c.Name}
		switch {
		case c.Kind == renderer.KindSubmit || c.Kind == renderer.KindHidden:
		case c.Kind == renderer.KindRadio || (c.Kind == renderer.KindCheckbox && c.Value != nil):
			row.Label = fmt.Sprint(c.Value)
			if first {
				row.Legend = labels[c.Name]
			}
		default:
			row.Label = labels[c.Name]
		}
		rows = append(rows, row)
	}
	return rows, hasSubmit
}

// TemplateName maps a definition ID onto a template name.
func TemplateName(id string) string {
	return strings.ReplaceAll(id, "/", "_")
}

func hasFile(def *schema.Definition) bool {
	for _, fd := range def.AllFields() {
		if fd.Type == "file" {
			return true
		}
	}
	return false
}
