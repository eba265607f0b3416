// internal/config/loader.go
//
// Configuration loader and reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from four layers (highest
precedence last):

  1. Built-in defaults.
  2. Optional `.env` file at `<root>/conf/.env`.
  3. Optional `conf/simpleform.yaml`.
  4. Environment variables prefixed `SIMPLEFORM_`, where `__` maps to “.”
     (e.g., `SIMPLEFORM_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every string value that starts with `vault:` is swapped for
the secret it names.  The tree is then unmarshalled into strongly-typed
structs, validated, enriched with the runtime root path, and cached in an
`atomic.Pointer` for lock-free reads.  `Reload()` calls `Load()` again with
the previous options and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, vault refs.
  • ERROR spans: YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span:  final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/simpleform.yaml`;
    this lets `go run ./cmd/formlint` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/simpleform/internal/vault"
)

const (
	// EnvPrefix marks environment overrides.
	EnvPrefix = "SIMPLEFORM_"
	// EnvRoot overrides root discovery.
	EnvRoot = "SIMPLEFORM_ROOT"
	// FileName is the YAML file looked up under <root>/conf.
	FileName = "simpleform.yaml"
)

// ErrVaultDisabled is returned when a value holds a vault reference but no
// resolver is available.
var ErrVaultDisabled = errors.New("config: vault reference found but vault is disabled")

// Resolver swaps a "vault:" reference for its secret.  *vault.Client
// satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// Options tune Load.  The zero value discovers everything.
type Options struct {
	Root     string   // "" means SIMPLEFORM_ROOT or discovery
	Resolver Resolver // nil means build a vault client when vault.enabled
}

var (
	current  atomic.Pointer[Config]
	lastOpts atomic.Pointer[Options]
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SIMPLEFORM_ROOT or climbs directories until
// conf/simpleform.yaml is found.  Falls back to the working directory.
func rootDir() string {
	if r := os.Getenv(EnvRoot); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", FileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}
	return wd
}

/*─────────────────────────────── defaults ─────────────────────────────────*/

var defaults = map[string]any{
	"http.listen_addr":      ":8080",
	"http.shutdown_timeout": 10 * time.Second,
	"forms.dirs":            []string{"forms"},
	"forms.template_dirs":   []string{"templates"},
	"forms.max_body":        int64(10 << 20),
	"csrf.max_age":          2 * time.Hour,
	"csrf.field":            "_csrf",
	"csrf.cookie":           "simpleform_csrf",
	"log.level":             "info",
	"vault.cache_ttl":       5 * time.Minute,
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads defaults, .env, YAML, and env overrides, resolves vault
// references, validates, and caches Config.
func Load(ctx context.Context, opts Options) (*Config, error) {
	root := opts.Root
	if root == "" {
		root = rootDir()
	}
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	if err := godotenv.Load(filepath.Join(root, "conf", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		zap.S().Warnw("config .env ignored", "err", err)
	}

	k := koanf.New(".")
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, err
		}
	}

	yamlPath := filepath.Join(root, "conf", FileName)
	if _, err := os.Stat(yamlPath); err == nil {
		if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, fmt.Errorf("config %s: %w", yamlPath, err)
		}
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	}

	// Env overrides: SIMPLEFORM_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveRefs(ctx, k, opts.Resolver); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root
	cfg.Forms.Dirs = absAll(root, cfg.Forms.Dirs)
	cfg.Forms.TemplateDirs = absAll(root, cfg.Forms.TemplateDirs)
	if cfg.Log.Dir != "" {
		cfg.Log.Dir = abs(root, cfg.Log.Dir)
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	lastOpts.Store(&opts)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"form_dirs", len(cfg.Forms.Dirs),
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── vault refs ──────────────────────────────────*/

// resolveRefs replaces every "vault:" string in k.  The resolver is built
// lazily so configs without references never dial Vault.
func resolveRefs(ctx context.Context, k *koanf.Koanf, res Resolver) error {
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !strings.HasPrefix(s, vault.Prefix) {
			continue
		}
		if res == nil {
			if !k.Bool("vault.enabled") {
				return fmt.Errorf("%w: %s", ErrVaultDisabled, key)
			}
			cli, err := vault.New(ctx, vault.Options{
				Address:  k.String("vault.address"),
				CacheTTL: k.Duration("vault.cache_ttl"),
			})
			if err != nil {
				return err
			}
			res = cli
		}
		secret, err := res.Resolve(ctx, s)
		if err != nil {
			return fmt.Errorf("config %s: %w", key, err)
		}
		if err := k.Set(key, secret); err != nil {
			return err
		}
		zap.S().Debugw("config vault ref resolved", "key", key)
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, EnvPrefix), "__", "."))
}

func abs(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func absAll(root string, ps []string) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, abs(root, p))
	}
	return out
}

// Get returns the last loaded Config, or nil before the first Load.
func Get() *Config { return current.Load() }

// Reload repeats Load with the options of the previous call.
func Reload(ctx context.Context) error {
	opts := Options{}
	if o := lastOpts.Load(); o != nil {
		opts = *o
	}
	_, err := Load(ctx, opts)
	return err
}
