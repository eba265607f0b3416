// internal/form/state.go
//
// simpleform – validator context.
//
// Context
//   Validators sometimes need request-scoped facts: the current user, a
//   database handle, or a translator for messages.  State is the explicit
//   key/value bag passed by reference into every Schema and Validator call.
//   A Form creates one when the caller does not supply it.  A caller-owned
//   State may be shared by several Forms in the same request.
//
//------------------------------------------------------------------------------

package form

import (
	"fmt"
	"sort"

	ut "github.com/go-playground/universal-translator"
)

// TranslatorKey holds a ut.Translator used by Translate.
const TranslatorKey = "translator"

// State is a mutable bag of validation context.  Not safe for concurrent
// use; a State belongs to one request.
type State struct {
	values map[string]any
}

// NewState returns an empty State.
func NewState() *State { return &State{values: map[string]any{}} }

// Get returns the value for key and whether it was set.
func (s *State) Get(key string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Set stores v under key.
func (s *State) Set(key string, v any) {
	if s.values == nil {
		s.values = map[string]any{}
	}
	s.values[key] = v
}

// Has reports whether key is set.
func (s *State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key.
func (s *State) Delete(key string) { delete(s.values, key) }

// Keys returns the set keys, sorted.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.values))
	for k := range s.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Translator returns the stored translator, if any.
func (s *State) Translator() (ut.Translator, bool) {
	v, ok := s.Get(TranslatorKey)
	if !ok {
		return nil, false
	}
	tr, ok := v.(ut.Translator)
	return tr, ok && tr != nil
}

// Translate looks key up through the stored translator.  Without one, or
// when the translator has no entry, fallback is formatted with args.
func (s *State) Translate(key, fallback string, args ...any) string {
	if tr, ok := s.Translator(); ok {
		strArgs := make([]string, len(args))
		for i, a := range args {
			strArgs[i] = fmt.Sprint(a)
		}
		if msg, err := tr.T(key, strArgs...); err == nil && msg != "" {
			return msg
		}
	}
	if len(args) == 0 {
		return fallback
	}
	return fmt.Sprintf(fallback, args...)
}
