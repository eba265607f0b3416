// internal/form/bind.go
//
// simpleform – copy validated data onto a target.
//
// Context
//   Keys starting with "_" (CSRF tokens, submit buttons, and the like) are
//   never bound.  Include and Exclude narrow the set further.  Targets are a
//   struct pointer, a map[string]any, or anything implementing FieldSetter.
//   A struct key with no matching field is skipped, which mirrors how the
//   data would be ignored by an object lacking the attribute.
//
//------------------------------------------------------------------------------

package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"

	"github.com/yanizio/simpleform/internal/metrics"
)

// PrivatePrefix marks keys that Bind never copies.
const PrivatePrefix = "_"

type bindConfig struct {
	include map[string]struct{}
	exclude map[string]struct{}
}

// BindOption tunes one Bind call.
type BindOption func(*bindConfig)

// Include binds only the named keys.
func Include(names ...string) BindOption {
	return func(c *bindConfig) {
		if c.include == nil {
			c.include = map[string]struct{}{}
		}
		for _, n := range names {
			c.include[n] = struct{}{}
		}
	}
}

// Exclude skips the named keys.
func Exclude(names ...string) BindOption {
	return func(c *bindConfig) {
		if c.exclude == nil {
			c.exclude = map[string]struct{}{}
		}
		for _, n := range names {
			c.exclude[n] = struct{}{}
		}
	}
}

func (c *bindConfig) wants(key string) bool {
	if strings.HasPrefix(key, PrivatePrefix) {
		return false
	}
	if c.include != nil {
		if _, ok := c.include[key]; !ok {
			return false
		}
	}
	if _, ok := c.exclude[key]; ok {
		return false
	}
	return true
}

func bind(f *Form, data map[string]any, obj any, opts ...BindOption) (any, error) {
	var cfg bindConfig
	for _, o := range opts {
		o(&cfg)
	}

	keys := sortedKeys(data)
	err := bindInto(obj, data, keys, &cfg)
	switch {
	case err == nil:
		metrics.BindsTotal.Inc()
	case errors.Is(err, ErrBindTarget):
		metrics.BindErrorsTotal.WithLabelValues("target").Inc()
	default:
		metrics.BindErrorsTotal.WithLabelValues("type").Inc()
	}
	if err != nil {
		if f != nil {
			f.log.Debugw("form bind failed", "target", fmt.Sprintf("%T", obj), "err", err)
		}
		return nil, err
	}
	return obj, nil
}

func bindInto(obj any, data map[string]any, keys []string, cfg *bindConfig) error {
	switch t := obj.(type) {
	case FieldSetter:
		for _, k := range keys {
			if !cfg.wants(k) {
				continue
			}
			if err := t.SetField(k, data[k]); err != nil {
				return fmt.Errorf("%w: field %q: %v", ErrBindType, k, err)
			}
		}
		return nil

	case map[string]any:
		if t == nil {
			return fmt.Errorf("%w: nil map", ErrBindTarget)
		}
		for _, k := range keys {
			if cfg.wants(k) {
				t[k] = data[k]
			}
		}
		return nil
	}

	rv, ok := structValue(obj)
	if !ok {
		return fmt.Errorf("%w: %T", ErrBindTarget, obj)
	}
	sm := mapper.TypeMap(rv.Type())
	for _, k := range keys {
		if !cfg.wants(k) {
			continue
		}
		fi := sm.GetByPath(k)
		if fi == nil || fi.Field.PkgPath != "" {
			continue
		}
		fv := reflectx.FieldByIndexes(rv, fi.Index)
		if !fv.CanSet() {
			continue
		}
		if err := Assign(fv, data[k]); err != nil {
			return fmt.Errorf("%w: field %q: %v", ErrBindType, k, err)
		}
	}
	return nil
}
