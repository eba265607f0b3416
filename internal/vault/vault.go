// internal/vault/vault.go
//
// Vault client wrapper for simpleform.
//
// Context
// -------
//   - Provides a concurrency‑safe client around the HashiCorp Vault Go SDK.
//   - Adds optional background token renewal, a KV‑v2 helper, per‑key
//     caching, and resolution of "vault:" references found in config.
//   - Header block, section underlines, Oxford commas, two spaces after
//     periods, no m‑dash.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(ctx, vault.Options{})       // during boot.
//  2. pw,  err := cli.GetKV(ctx, path, key, ttl)        // anywhere in the app.
//  3. val, err := cli.Resolve(ctx, "vault:kv/app#csrf") // config references.
//
// Build tags: none.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// Prefix marks a config value as a Vault reference.
const Prefix = "vault:"

var (
	// ErrBadRef is returned for references not of the form mount/path#key.
	ErrBadRef = errors.New("vault: reference must look like vault:mount/path#key")
	// ErrKeyNotFound is returned when the secret lacks the key.
	ErrKeyNotFound = errors.New("vault: key not found")
)

//
// SECTION 1.  Public façade
//

// Options tune New.  Empty fields fall back to VAULT_ADDR, VAULT_TOKEN, and
// the rest of the SDK's environment handling.
type Options struct {
	Address  string
	Token    string
	CacheTTL time.Duration // used by Resolve; 0 means no caching
	Renew    bool          // start the token renewal loop
	Logger   *zap.SugaredLogger
}

// Client is safe for concurrent use.  Create once at startup and inject it
// where needed.  Zero value is invalid.
type Client struct {
	api *vault.Client
	log *zap.SugaredLogger
	ttl time.Duration

	cacheMu sync.RWMutex
	cache   map[string]cached // canonical path#key → value + expiry.
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client and, with Renew set, starts a background
// token‑renewal loop bound to ctx.
func New(ctx context.Context, opts Options) (*Client, error) {
	log := opts.Logger
	if log == nil {
		log = zap.S()
	}

	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	if opts.Address != "" {
		cfg.Address = opts.Address
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if opts.Token != "" {
		apiCli.SetToken(opts.Token)
	}

	c := &Client{
		api:   apiCli,
		log:   log,
		ttl:   opts.CacheTTL,
		cache: make(map[string]cached),
	}

	if opts.Renew {
		go c.renewLoop(ctx)
	}
	return c, nil
}

// GetKV fetches a single key from a KV‑v2 secret.  If ttl > 0 the result is
// cached for that duration.  Subsequent callers within the TTL receive the
// cached copy.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", ErrBadRef
	}

	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		if cv, ok := c.cache[canonical]; ok && time.Now().Before(cv.exp) {
			c.cacheMu.RUnlock()
			return cv.val, nil
		}
		c.cacheMu.RUnlock()
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("%w: %q in secret %q", ErrKeyNotFound, key, secretPath)
	}

	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s#%s is not a string", secretPath, key)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}

	return sval, nil
}

// Resolve returns the secret behind a "vault:mount/path#key" reference,
// cached for the client's CacheTTL.  Values without the prefix are returned
// unchanged.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	secretPath, key, ok, err := ParseRef(ref)
	if err != nil || !ok {
		return ref, err
	}
	return c.GetKV(ctx, secretPath, key, c.ttl)
}

// ParseRef splits a reference.  ok is false when ref lacks the prefix.
func ParseRef(ref string) (secretPath, key string, ok bool, err error) {
	rest, ok := strings.CutPrefix(ref, Prefix)
	if !ok {
		return "", "", false, nil
	}
	secretPath, key, found := strings.Cut(rest, "#")
	if !found || key == "" || !strings.Contains(secretPath, "/") {
		return "", "", true, fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	return secretPath, key, true, nil
}

//
// SECTION 2.  Background token renewal
//

func (c *Client) renewLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Probe the current token.
		sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			c.log.Warnw("vault token renew self failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.log.Infow("vault token is not renewable, sleeping", "for", time.Hour)
			backoff(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{Secret: sec})
		if err != nil {
			c.log.Warnw("vault watcher init failed", "err", err)
			backoff(ctx, 30*time.Second)
			continue
		}

		if !c.watch(ctx, watcher) {
			return
		}
		backoff(ctx, 15*time.Second)
	}
}

// watch runs one watcher until it stops.  It returns false when ctx ended.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) bool {
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case err := <-w.DoneCh():
			if err != nil {
				c.log.Warnw("vault token renewal stopped", "err", err)
			}
			return true
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.log.Debugw("vault token renewed", "ttl_s", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

//
// SECTION 3.  Helpers
//

func splitMount(p string) (mount, rel string) {
	if p == "" {
		return "", ""
	}
	parts := strings.SplitN(p, "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return
}

func backoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
