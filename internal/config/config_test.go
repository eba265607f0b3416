// internal/config/config_test.go
//
// Loader tests: defaults, YAML, env overlay, vault refs, and validation.
//
// Run: go test ./internal/config -v

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, ref string) (string, error) {
	if v, ok := f[ref]; ok {
		return v, nil
	}
	return "", errors.New("no such secret")
}

func writeConf(t *testing.T, name, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Load(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != ":8080" || cfg.CSRF.MaxAge != 2*time.Hour || cfg.CSRF.Field != "_csrf" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "forms")}, cfg.Forms.Dirs); diff != "" {
		t.Fatalf("dirs (-want +got):\n%s", diff)
	}
	if Get() != cfg {
		t.Fatal("Get did not return the loaded config")
	}
}

func TestLoad_YAMLAndEnv(t *testing.T) {
	root := writeConf(t, FileName, `
http:
  listen_addr: "127.0.0.1:9000"
  force_https: true
  csp: "default-src 'self'"
  hsts_max_age: 8760h
forms:
  dirs: ["site/forms", "/srv/shared/forms"]
csrf:
  max_age: 30m
log:
  level: warn
`)
	t.Setenv("SIMPLEFORM_HTTP__LISTEN_ADDR", "127.0.0.1:9999")

	cfg, err := Load(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9999" {
		t.Fatalf("env did not override yaml: %q", cfg.HTTP.ListenAddr)
	}
	if !cfg.HTTP.ForceHTTPS || cfg.CSRF.MaxAge != 30*time.Minute || cfg.Log.Level != "warn" {
		t.Fatalf("yaml not applied: %+v", cfg)
	}
	if cfg.HTTP.CSP != "default-src 'self'" || cfg.HTTP.HSTSMaxAge != 8760*time.Hour {
		t.Fatalf("security policy not applied: %+v", cfg.HTTP)
	}
	want := []string{filepath.Join(root, "site/forms"), "/srv/shared/forms"}
	if diff := cmp.Diff(want, cfg.Forms.Dirs); diff != "" {
		t.Fatalf("dirs (-want +got):\n%s", diff)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	root := writeConf(t, ".env", "SIMPLEFORM_LOG__LEVEL=debug\n")
	t.Cleanup(func() { os.Unsetenv("SIMPLEFORM_LOG__LEVEL") })

	cfg, err := Load(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("level = %q, want debug from .env", cfg.Log.Level)
	}
}

func TestLoad_VaultRefs(t *testing.T) {
	secret := strings.Repeat("s", 40)
	root := writeConf(t, FileName, "csrf:\n  secret: \"vault:kv/simpleform#csrf\"\n")

	cfg, err := Load(context.Background(), Options{
		Root:     root,
		Resolver: fakeResolver{"vault:kv/simpleform#csrf": secret},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CSRF.Secret != secret {
		t.Fatalf("secret = %q", cfg.CSRF.Secret)
	}

	if _, err := Load(context.Background(), Options{Root: root}); !errors.Is(err, ErrVaultDisabled) {
		t.Fatalf("err = %v, want ErrVaultDisabled", err)
	}
	if _, err := Load(context.Background(), Options{Root: root, Resolver: fakeResolver{}}); err == nil {
		t.Fatal("unresolvable reference accepted")
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"short secret": "csrf:\n  secret: tooshort\n",
		"bad level":    "log:\n  level: loud\n",
		"bad addr":     "http:\n  listen_addr: nope\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			root := writeConf(t, FileName, body)
			if _, err := Load(context.Background(), Options{Root: root}); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestReload_ReusesOptions(t *testing.T) {
	root := writeConf(t, FileName, "log:\n  level: error\n")
	if _, err := Load(context.Background(), Options{Root: root}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", FileName), []byte("log:\n  level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if Get().Log.Level != "warn" {
		t.Fatalf("level = %q after reload", Get().Log.Level)
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("SIMPLEFORM_FORMS__MAX_BODY"); got != "forms.max_body" {
		t.Fatalf("envKey = %q", got)
	}
}
