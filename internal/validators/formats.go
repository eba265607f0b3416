// internal/validators/formats.go
//
// simpleform – format validators: email, URL, UUID, date, pattern, choice,
// and arbitrary go-playground/validator tags.

package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/params"
)

// validate is shared; *validator.Validate is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Engine returns the shared validator instance used by Email, URL, and Tag.
func Engine() *validator.Validate { return validate }

// text runs the shared empty check and returns the trimmed scalar.
func text(v any, required bool, st *form.State, badKey string) (s string, done bool, err error) {
	if done, err := checkEmpty(v, required, st); done {
		return "", true, err
	}
	s, ok := scalar(v)
	if !ok {
		return "", true, fail(st, badKey)
	}
	return strings.TrimSpace(s), false, nil
}

/*──────────────────────────── Email / URL ────────────────────────────*/

// Email accepts one RFC 5322 address.
type Email struct{ Required bool }

func (e Email) Validate(v any, st *form.State) (any, error) {
	s, done, err := text(v, e.Required, st, KeyEmail)
	if done {
		return nil, err
	}
	if validate.Var(s, "email") != nil {
		return nil, fail(st, KeyEmail)
	}
	return s, nil
}

// URL accepts an absolute URL.
type URL struct{ Required bool }

func (u URL) Validate(v any, st *form.State) (any, error) {
	s, done, err := text(v, u.Required, st, KeyURL)
	if done {
		return nil, err
	}
	if validate.Var(s, "url") != nil {
		return nil, fail(st, KeyURL)
	}
	return s, nil
}

/*──────────────────────────── UUID ────────────────────────────*/

// UUID parses any textual UUID form and returns a uuid.UUID.
type UUID struct{ Required bool }

func (u UUID) Validate(v any, st *form.State) (any, error) {
	if id, ok := v.(uuid.UUID); ok {
		return id, nil
	}
	s, done, err := text(v, u.Required, st, KeyUUID)
	if done {
		return nil, err
	}
	id, perr := uuid.Parse(s)
	if perr != nil {
		return nil, fail(st, KeyUUID)
	}
	return id, nil
}

/*──────────────────────────── Date ────────────────────────────*/

// DateLayout is the default Date layout (HTML date inputs).
const DateLayout = "2006-01-02"

// Date parses text with Layout into a time.Time.
type Date struct {
	Required bool
	Layout   string // "" means DateLayout
}

func (d Date) Validate(v any, st *form.State) (any, error) {
	if t, ok := v.(time.Time); ok {
		return t, nil
	}
	layout := d.Layout
	if layout == "" {
		layout = DateLayout
	}
	s, done, err := text(v, d.Required, st, KeyDate)
	if done {
		return nil, err
	}
	t, perr := time.Parse(layout, s)
	if perr != nil {
		return nil, fail(st, KeyDate, layout)
	}
	return t, nil
}

/*──────────────────────────── Regex ────────────────────────────*/

// Regex accepts text matching Pattern.
type Regex struct {
	Required bool
	Pattern  *regexp.Regexp
	Message  string // overrides the translated message when set
}

// MustRegex compiles pattern, anchored to the whole value.
func MustRegex(pattern string, required bool) Regex {
	return Regex{Required: required, Pattern: regexp.MustCompile(`^(?:` + pattern + `)$`)}
}

func (r Regex) Validate(v any, st *form.State) (any, error) {
	s, done, err := text(v, r.Required, st, KeyPattern)
	if done {
		return nil, err
	}
	if r.Pattern != nil && !r.Pattern.MatchString(s) {
		if r.Message != "" {
			return nil, form.NewInvalid(r.Message)
		}
		return nil, fail(st, KeyPattern)
	}
	return s, nil
}

/*──────────────────────────── OneOf ────────────────────────────*/

// OneOf accepts values from a fixed list.  Multi-valued input is accepted
// when every value is allowed, and is returned as []string.
type OneOf struct {
	Required bool
	Values   []string
}

func (o OneOf) Validate(v any, st *form.State) (any, error) {
	if done, err := checkEmpty(v, o.Required, st); done {
		return nil, err
	}
	allowed := func(s string) bool {
		for _, a := range o.Values {
			if a == s {
				return true
			}
		}
		return false
	}
	if list, ok := v.([]string); ok {
		for _, s := range list {
			if !allowed(s) {
				return nil, fail(st, KeyNotIn, strings.Join(o.Values, ", "))
			}
		}
		return list, nil
	}
	s := params.String(v)
	if !allowed(s) {
		return nil, fail(st, KeyNotIn, strings.Join(o.Values, ", "))
	}
	return s, nil
}

/*──────────────────────────── Tag ────────────────────────────*/

// Tag runs a go-playground/validator tag (e.g. "min=3,alphanum") against
// the scalar value.  Failure messages come from the validator translations
// when the State translator has them.
type Tag struct {
	Required bool
	Rule     string
	Message  string // overrides any translation when set
}

func (t Tag) Validate(v any, st *form.State) (any, error) {
	s, done, err := text(v, t.Required, st, KeyTagFailed)
	if done {
		return nil, err
	}
	verr, err := runTag(s, t.Rule)
	if err != nil {
		return nil, err
	}
	if verr == nil {
		return s, nil
	}
	if t.Message != "" {
		return nil, form.NewInvalid(t.Message)
	}
	var fes validator.ValidationErrors
	if tr, ok := st.Translator(); ok && errors.As(verr, &fes) && len(fes) > 0 {
		if msg := strings.TrimSpace(fes[0].Translate(tr)); msg != "" {
			return nil, form.NewInvalid(msg)
		}
	}
	return nil, fail(st, KeyTagFailed)
}

// CheckRule reports a tag the validator engine cannot run, such as an
// unknown tag name or a malformed parameter.
func CheckRule(rule string) error {
	_, err := runTag("", rule)
	return err
}

// runTag applies rule to s.  The engine panics on tags it cannot parse; that
// comes back as an ErrConfiguration error instead.
func runTag(s, rule string) (verr, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: rule %q: %v", form.ErrConfiguration, rule, r)
		}
	}()
	return validate.Var(s, rule), nil
}
