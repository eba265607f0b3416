// internal/form/invalid.go
//
// simpleform – structured validation failure.
//
// Context
//   Schemas and validators report failure as *Invalid.  A leaf carries a
//   Message; a mapping failure carries Fields; a sequence failure carries
//   Items, with nil marking an item that passed.  The Form never surfaces an
//   Invalid to its caller.  It unpacks it into Errors keyed the same way the
//   input was decoded, so a failure on names[1] lands on "names-1" when
//   variable decoding is on.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"sort"
	"strings"

	"github.com/yanizio/simpleform/internal/params"
)

// Invalid is a (possibly nested) validation failure.
type Invalid struct {
	Message string
	Fields  map[string]*Invalid
	Items   []*Invalid
}

// NewInvalid returns a leaf failure.
func NewInvalid(msg string) *Invalid { return &Invalid{Message: msg} }

// Error joins the leaf messages so an Invalid can travel as a plain error.
func (iv *Invalid) Error() string {
	var msgs []string
	iv.walk("", false, "", "", func(_ string, m string) { msgs = append(msgs, m) })
	if len(msgs) == 0 {
		return "invalid value"
	}
	return strings.Join(msgs, "; ")
}

// AsInvalid converts err.  Plain errors become a leaf Invalid.
func AsInvalid(err error) *Invalid {
	if err == nil {
		return nil
	}
	var iv *Invalid
	if errors.As(err, &iv) && iv != nil {
		return iv
	}
	return NewInvalid(err.Error())
}

// Unpack maps the failure onto Errors.  With encode set, nested failures
// get variable-encoded keys (addr.city, names-0); otherwise every nested
// message is filed under its top-level field.  A bare top-level Message is
// filed under FormKey.
func (iv *Invalid) Unpack(encode bool, dictChar, listChar string) Errors {
	out := Errors{}
	if iv == nil {
		return out
	}
	if dictChar == "" {
		dictChar = params.DefaultDictChar
	}
	if listChar == "" {
		listChar = params.DefaultListChar
	}
	iv.walk("", encode, dictChar, listChar, func(key, msg string) {
		out.Add(key, msg)
	})
	return out
}

// walk visits every message with the key it belongs to.
func (iv *Invalid) walk(prefix string, encode bool, dictChar, listChar string, visit func(key, msg string)) {
	if iv == nil {
		return
	}
	if iv.Message != "" {
		visit(prefix, iv.Message)
	}

	names := make([]string, 0, len(iv.Fields))
	for name := range iv.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		key := name
		if prefix != "" {
			if encode {
				key = params.JoinKey(prefix, name, dictChar)
			} else {
				key = prefix
			}
		}
		iv.Fields[name].walk(key, encode, dictChar, listChar, visit)
	}
	for i, item := range iv.Items {
		key := prefix
		if encode {
			key = params.IndexKey(prefix, i, listChar)
		}
		item.walk(key, encode, dictChar, listChar, visit)
	}
}
