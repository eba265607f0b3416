// internal/session/session.go
//
// simpleform – per-request session carrying the CSRF token.
//
// Context
//   Forms only need one thing from a session: a CSRF token that survives
//   between the GET that renders the form and the POST that submits it.
//   Store keeps that token in a cookie.  The cookie value is a signed token
//   from Signer, so nothing is stored server-side and a tampered or expired
//   cookie simply reads as "no token".
//
// Workflow
//   •  Store.Load wraps one request/response pair in a *Session.
//   •  CSRFToken returns the cookie token when it verifies.
//   •  NewCSRFToken issues a fresh token and sets the cookie on the
//      response.  Call it before the response body is written.
//   •  Memory is a cookie-less Session for tests and command-line tools.
//
// Style
//   Two-space sentence spacing, Oxford comma, terse inline notes.
//
//------------------------------------------------------------------------------

package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanizio/simpleform/internal/form"
	"github.com/yanizio/simpleform/internal/metrics"
)

// DefaultCookie is the cookie name used when CookieOptions.Name is empty.
const DefaultCookie = "simpleform_csrf"

// CookieOptions tune the session cookie.
type CookieOptions struct {
	Name     string
	Path     string        // "" means "/"
	Secure   bool          // also forced on for TLS requests
	SameSite http.SameSite // 0 means Lax
}

// Store creates cookie-backed sessions.
type Store struct {
	signer *Signer
	opts   CookieOptions
}

// NewStore returns a Store signing with s.
func NewStore(s *Signer, opts CookieOptions) *Store {
	if opts.Name == "" {
		opts.Name = DefaultCookie
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == 0 {
		opts.SameSite = http.SameSiteLaxMode
	}
	return &Store{signer: s, opts: opts}
}

// Signer returns the store's token signer.
func (st *Store) Signer() *Signer { return st.signer }

// Load returns the session for r.  w receives the cookie when a token is
// issued.
func (st *Store) Load(w http.ResponseWriter, r *http.Request) *Session {
	s := &Session{store: st, w: w, secure: st.opts.Secure || r.TLS != nil}
	if c, err := r.Cookie(st.opts.Name); err == nil && st.signer.Verify(c.Value) {
		s.token = c.Value
	}
	return s
}

// Session implements form.Session for one request.
type Session struct {
	store  *Store
	w      http.ResponseWriter
	secure bool
	token  string
}

var _ form.Session = (*Session)(nil)

// CSRFToken returns the current token, or "" when there is none.
func (s *Session) CSRFToken() string { return s.token }

// NewCSRFToken issues a token and sets the session cookie.
func (s *Session) NewCSRFToken() (string, error) {
	tok, err := s.store.signer.Generate()
	if err != nil {
		return "", err
	}
	s.token = tok
	metrics.CSRFTokensIssued.Inc()

	http.SetCookie(s.w, &http.Cookie{
		Name:     s.store.opts.Name,
		Value:    tok,
		Path:     s.store.opts.Path,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: s.store.opts.SameSite,
		MaxAge:   int(s.store.signer.maxAge / time.Second),
	})
	return tok, nil
}

// Clear drops the token and expires the cookie.
func (s *Session) Clear() {
	s.token = ""
	http.SetCookie(s.w, &http.Cookie{
		Name:     s.store.opts.Name,
		Value:    "",
		Path:     s.store.opts.Path,
		MaxAge:   -1,
		HttpOnly: true,
	})
}

/*──────────────────────────── Memory ────────────────────────────*/

// Memory is an in-process form.Session.  Tokens are random UUIDs.
type Memory struct {
	mu    sync.Mutex
	token string
}

var _ form.Session = (*Memory)(nil)

// NewMemory returns a Memory holding token, which may be "".
func NewMemory(token string) *Memory { return &Memory{token: token} }

func (m *Memory) CSRFToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Memory) NewCSRFToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = uuid.NewString()
	metrics.CSRFTokensIssued.Inc()
	return m.token, nil
}

/*──────────────────────────── helpers ────────────────────────────*/

// Verify reports whether submitted matches the session token.  An empty
// token never matches.
func Verify(s form.Session, submitted string) bool {
	if s == nil || submitted == "" {
		return false
	}
	want := s.CSRFToken()
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(submitted)) == 1
}

type ctxKey struct{}

// WithContext stores s in ctx.
func WithContext(ctx context.Context, s form.Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithContext, or nil.
func FromContext(ctx context.Context) form.Session {
	s, _ := ctx.Value(ctxKey{}).(form.Session)
	return s
}
