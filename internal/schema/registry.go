// internal/schema/registry.go
//
// simpleform – in-memory registry of form definitions.
//
// Context
//   Applications load every "*.yaml" definition once at start-up and look
//   them up by ID per request.  Directories are passed in precedence order:
//   an override directory comes BEFORE the shared one, and the first
//   definition seen for an ID wins.
//
//------------------------------------------------------------------------------

package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ErrNoDirs is returned by LoadDirs without any directory.
var ErrNoDirs = errors.New("schema: no definition directories provided")

// Registry maps definition ID → *Definition.  Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
	log  *zap.SugaredLogger
}

// NewRegistry returns an empty registry.  A nil logger means zap.S().
func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = zap.S()
	}
	return &Registry{defs: make(map[string]*Definition), log: log}
}

// Register adds d, replacing any definition with the same ID.
func (r *Registry) Register(d *Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.ID] = d
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[id]
	return d, ok
}

// IDs lists registered IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs))
	for id := range r.defs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// LoadDirs walks dirs in precedence order and registers every "*.yaml" or
// "*.yml" file.  A missing directory is skipped; a bad file stops loading.
//
// Example:
//
//	err := reg.LoadDirs("/srv/site/forms", "/srv/shared/forms")
func (r *Registry) LoadDirs(dirs ...string) error {
	if len(dirs) == 0 {
		return ErrNoDirs
	}
	for _, dir := range dirs {
		err := r.LoadFS(os.DirFS(dir), ".")
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", dir, err)
		}
	}
	return nil
}

// LoadFS registers every definition under root in fsys.  IDs already
// present are kept, so earlier sources take precedence.
func (r *Registry) LoadFS(fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !isYAML(d.Name()) {
			return nil
		}

		raw, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		def, err := Parse(raw, p)
		if err != nil {
			return err
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if _, taken := r.defs[def.ID]; taken {
			r.log.Debugw("form definition shadowed", "id", def.ID, "file", p)
			return nil
		}
		r.defs[def.ID] = def
		return nil
	})
}

func isYAML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
