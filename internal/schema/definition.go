// internal/schema/definition.go
//
// simpleform – YAML form definitions.
//
// Context
//   A form can be declared in a YAML file instead of Go code.  The file
//   names the form, lists its fields with their HTML type and constraints,
//   and optionally groups them into steps.  Build turns a Definition into a
//   *MapSchema, and Controls turns it into renderer Controls, so one file
//   drives both validation and markup.
//
// Workflow
//   •  Parse decodes one document and validates its structure.  Load reads a
//      file and calls Parse.
//   •  A Definition carries EITHER a flat fields list OR steps, never both.
//      Steps without an id get "step1", "step2", ….
//   •  Field names are unique across the whole form.
//
// Notes
//   •  Oxford commas, two spaces after periods.
//
//------------------------------------------------------------------------------

package schema

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/renderer"
	"github.com/yanizio/simpleform/internal/validators"
)

// ErrDefinition wraps every structural problem found in a definition.
var ErrDefinition = errors.New("schema: invalid form definition")

// Definition is one form loaded from YAML.
type Definition struct {
	ID     string     `yaml:"id"`     // Unique identifier, e.g. "account/signup".
	Title  string     `yaml:"title"`  // Display title, optional.
	Fields []FieldDef `yaml:"fields"` // Flat list of fields.
	Steps  []StepDef  `yaml:"steps"`  // Multi-step grouping.  Mutually exclusive with Fields.
}

// StepDef groups fields into one page of a multi-step form.
type StepDef struct {
	ID     string     `yaml:"id"`
	Title  string     `yaml:"title"`
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef describes one input.
type FieldDef struct {
	Name        string   `yaml:"name"`        // Submission key.  Required.
	Label       string   `yaml:"label"`       // Human-readable label.  Required.
	Type        string   `yaml:"type"`        // text, email, number, select, checkbox, etc.
	Placeholder string   `yaml:"placeholder"` // Optional placeholder text.
	Required    bool     `yaml:"required"`
	MinLength   int      `yaml:"minlength"` // 0 means unset.
	MaxLength   int      `yaml:"maxlength"` // 0 means unset.
	Min         *float64 `yaml:"min"`       // number and integer bounds
	Max         *float64 `yaml:"max"`
	Pattern     string   `yaml:"pattern"` // Anchored regular expression.
	Options     []string `yaml:"options"` // For select, radio, and checkbox groups.
	Multiple    bool     `yaml:"multiple"`
	Rules       string   `yaml:"rules"` // Extra go-playground/validator tags.
	ErrorMsg    string   `yaml:"error"` // Replaces every message for this field.
	Default     any      `yaml:"default"`
}

// fieldTypes lists the accepted type values.
var fieldTypes = map[string]bool{
	"text": true, "search": true, "tel": true, "password": true, "hidden": true,
	"textarea": true, "email": true, "url": true, "number": true, "integer": true,
	"date": true, "uuid": true, "checkbox": true, "radio": true, "select": true,
	"file": true, "submit": true,
}

// Load reads and parses one definition file.
func Load(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form file %s: %w", path, err)
	}
	return Parse(raw, path)
}

// Parse decodes one YAML document.  source names it in error messages.
func Parse(raw []byte, source string) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: parse YAML %s: %v", ErrDefinition, source, err)
	}
	if err := d.check(source); err != nil {
		return nil, err
	}
	return &d, nil
}

// AllFields returns the fields in declaration order, across steps.
func (d *Definition) AllFields() []FieldDef {
	if len(d.Steps) == 0 {
		return d.Fields
	}
	var out []FieldDef
	for _, s := range d.Steps {
		out = append(out, s.Fields...)
	}
	return out
}

// Step returns the step with id.
func (d *Definition) Step(id string) (StepDef, bool) {
	for _, s := range d.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return StepDef{}, false
}

/*──────────────────────────── structure ────────────────────────────*/

func (d *Definition) check(source string) error {
	if d.ID == "" {
		return fmt.Errorf("%w %s: missing required 'id'", ErrDefinition, source)
	}
	if len(d.Fields) > 0 && len(d.Steps) > 0 {
		return fmt.Errorf("%w %s: cannot have both 'fields' and 'steps'", ErrDefinition, source)
	}
	if len(d.Fields) == 0 && len(d.Steps) == 0 {
		return fmt.Errorf("%w %s: must have 'fields' or 'steps'", ErrDefinition, source)
	}

	seen := make(map[string]struct{})
	add := func(f *FieldDef) error {
		if err := checkField(f, source); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("%w %s: duplicate field name '%s'", ErrDefinition, source, f.Name)
		}
		seen[f.Name] = struct{}{}
		return nil
	}

	for i := range d.Fields {
		if err := add(&d.Fields[i]); err != nil {
			return err
		}
	}
	for si := range d.Steps {
		s := &d.Steps[si]
		if s.ID == "" {
			s.ID = fmt.Sprintf("step%d", si+1)
		}
		for fi := range s.Fields {
			if err := add(&s.Fields[fi]); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkField(f *FieldDef, source string) error {
	if f.Name == "" {
		return fmt.Errorf("%w %s: field missing 'name'", ErrDefinition, source)
	}
	if f.Label == "" {
		return fmt.Errorf("%w %s: field '%s' missing 'label'", ErrDefinition, source, f.Name)
	}
	if f.Type == "" {
		return fmt.Errorf("%w %s: field '%s' missing 'type'", ErrDefinition, source, f.Name)
	}
	if !fieldTypes[f.Type] {
		return fmt.Errorf("%w %s: field '%s' has unknown type '%s'", ErrDefinition, source, f.Name, f.Type)
	}
	if f.Pattern != "" {
		if _, err := regexp.Compile(f.Pattern); err != nil {
			return fmt.Errorf("%w %s: field '%s' invalid regex pattern: %v", ErrDefinition, source, f.Name, err)
		}
	}
	if f.Rules != "" {
		if err := validators.CheckRule(f.Rules); err != nil {
			return fmt.Errorf("%w %s: field '%s' invalid rules: %v", ErrDefinition, source, f.Name, err)
		}
	}
	if f.MinLength < 0 || f.MaxLength < 0 {
		return fmt.Errorf("%w %s: field '%s' minlength/maxlength cannot be negative", ErrDefinition, source, f.Name)
	}
	if f.MaxLength > 0 && f.MinLength > f.MaxLength {
		return fmt.Errorf("%w %s: field '%s' minlength greater than maxlength", ErrDefinition, source, f.Name)
	}
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		return fmt.Errorf("%w %s: field '%s' min greater than max", ErrDefinition, source, f.Name)
	}
	switch f.Type {
	case "select", "radio":
		if len(f.Options) == 0 {
			return fmt.Errorf("%w %s: field '%s' needs 'options'", ErrDefinition, source, f.Name)
		}
	}
	return nil
}

/*──────────────────────────── Build ────────────────────────────*/

// Build returns a MapSchema validating every field except submit buttons.
func (d *Definition) Build() *MapSchema {
	m := NewMap()
	for _, f := range d.AllFields() {
		if f.Type == "submit" {
			continue
		}
		m.Add(f.Name, f.validator())
	}
	return m
}

// validator picks the validators for f's type and constraints.  Only the
// first one in the chain sees Required; later ones receive its clean output.
func (f FieldDef) validator() form.Validator {
	var chain []form.Validator

	switch f.Type {
	case "email":
		chain = append(chain, validators.Email{Required: f.Required})
	case "url":
		chain = append(chain, validators.URL{Required: f.Required})
	case "number":
		chain = append(chain, validators.Number{Required: f.Required, Min: f.Min, Max: f.Max})
	case "integer":
		iv := validators.Int{Required: f.Required}
		if f.Min != nil {
			iv.Min = validators.IntPtr(int(*f.Min))
		}
		if f.Max != nil {
			iv.Max = validators.IntPtr(int(*f.Max))
		}
		chain = append(chain, iv)
	case "date":
		chain = append(chain, validators.Date{Required: f.Required})
	case "uuid":
		chain = append(chain, validators.UUID{Required: f.Required})
	case "checkbox":
		if len(f.Options) == 0 {
			if f.Required {
				chain = append(chain, validators.NotEmpty{})
			}
			chain = append(chain, validators.Bool{})
			break
		}
		chain = append(chain, validators.ForEach{Required: f.Required, Item: validators.OneOf{Values: f.Options}})
	case "select", "radio":
		one := validators.OneOf{Required: f.Required, Values: f.Options}
		if f.Multiple {
			chain = append(chain, validators.ForEach{Required: f.Required, Item: one})
			break
		}
		chain = append(chain, one)
	default:
		chain = append(chain, validators.String{
			Required: f.Required,
			Strip:    f.Type != "password",
			Min:      f.MinLength,
			Max:      f.MaxLength,
		})
	}

	if f.Pattern != "" {
		chain = append(chain, keep{validators.MustRegex(f.Pattern, false)})
	}
	if f.Rules != "" {
		chain = append(chain, keep{validators.Tag{Rule: f.Rules}})
	}

	var v form.Validator = chain[0]
	if len(chain) > 1 {
		v = validators.All(chain...)
	}
	if f.ErrorMsg != "" {
		v = withMessage{inner: v, msg: f.ErrorMsg}
	}
	return v
}

// keep runs a check and passes the already converted value through.
type keep struct{ check form.Validator }

func (k keep) Validate(v any, st *form.State) (any, error) {
	if _, err := k.check.Validate(v, st); err != nil {
		return nil, err
	}
	return v, nil
}

// withMessage replaces any failure message with msg.
type withMessage struct {
	inner form.Validator
	msg   string
}

func (w withMessage) Validate(v any, st *form.State) (any, error) {
	clean, err := w.inner.Validate(v, st)
	if err != nil {
		return nil, form.NewInvalid(w.msg)
	}
	return clean, nil
}

// Defaults returns the default value of every field that declares one.
func (d *Definition) Defaults() map[string]any {
	out := map[string]any{}
	for _, f := range d.AllFields() {
		if f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

// Controls describes every field as renderer Controls.  Radio fields yield
// one control per option.
func (d *Definition) Controls() []renderer.Control {
	var out []renderer.Control
	for _, f := range d.AllFields() {
		a := renderer.Attrs{
			Placeholder: f.Placeholder,
			Required:    f.Required,
			MinLength:   f.MinLength,
			MaxLength:   f.MaxLength,
			Pattern:     f.Pattern,
			Multiple:    f.Multiple,
		}
		c := renderer.Control{Name: f.Name, Default: f.Default, Attrs: a}

		switch f.Type {
		case "radio":
			for _, o := range f.Options {
				rc := c
				rc.Kind = renderer.KindRadio
				rc.Value = o
				out = append(out, rc)
			}
			continue
		case "checkbox":
			if len(f.Options) > 0 {
				for _, o := range f.Options {
					cc := c
					cc.Kind = renderer.KindCheckbox
					cc.Value = o
					out = append(out, cc)
				}
				continue
			}
			c.Kind = renderer.KindCheckbox
		case "select":
			c.Kind = renderer.KindSelect
			c.Options = renderer.Opts(f.Options...)
		case "submit":
			c.Kind = renderer.KindSubmit
			c.Label = f.Label
		case "email", "url", "number", "date", "search", "tel":
			c.Kind = renderer.KindText
			c.Attrs.Type = f.Type
		case "integer":
			c.Kind = renderer.KindText
			c.Attrs.Type = "number"
		default:
			c.Kind = renderer.ParseKind(f.Type)
		}
		out = append(out, c)
	}
	return out
}
