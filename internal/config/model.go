// internal/config/model.go
//
// Typed configuration model for simpleform tools.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                              – dotenv values,
//   • `conf/simpleform.yaml`                       – primary static file,
//   • `SIMPLEFORM_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the tool fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds preview-server tunables.  An empty CSP keeps the built-in
// policy; a zero HSTSMaxAge disables Strict-Transport-Security.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
	CSP             string        `koanf:"csp"`
	HSTSMaxAge      time.Duration `koanf:"hsts_max_age" validate:"gte=0"`
	HSTSSubdomains  bool          `koanf:"hsts_subdomains"`
}

//
// Forms section
//

// Forms locates definitions and templates.  Directories are listed in
// precedence order: overrides first.
type Forms struct {
	Dirs         []string `koanf:"dirs"          validate:"required,min=1,dive,required"`
	TemplateDirs []string `koanf:"template_dirs" validate:"dive,required"`
	MaxBody      int64    `koanf:"max_body"      validate:"gte=0"`
}

//
// CSRF section
//

// CSRF configures token signing.  Secret is normally a `vault:` reference
// so it never lives in YAML or git history.  An empty Secret means a random
// per-process key.
type CSRF struct {
	Secret string        `koanf:"secret"  validate:"omitempty,min=32"`
	MaxAge time.Duration `koanf:"max_age" validate:"gte=0"`
	Field  string        `koanf:"field"`
	Cookie string        `koanf:"cookie"`
}

//
// Log section
//

// Log mirrors logger.Options.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Tee   bool   `koanf:"tee"`
}

//
// Vault section
//

// Vault enables `vault:` resolution.  Address and token fall back to
// VAULT_ADDR and VAULT_TOKEN.
type Vault struct {
	Enabled  bool          `koanf:"enabled"`
	Address  string        `koanf:"address"   validate:"omitempty,url"`
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or SIMPLEFORM_ROOT override) so later code
// can build absolute file paths.
type Paths struct {
	Root string // SIMPLEFORM_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the process lifetime.
type Config struct {
	HTTP  HTTP  `koanf:"http"`
	Forms Forms `koanf:"forms"`
	CSRF  CSRF  `koanf:"csrf"`
	Log   Log   `koanf:"log"`
	Vault Vault `koanf:"vault"`
	Paths Paths `koanf:"-"` // not loaded from config files
}
