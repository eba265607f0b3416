// internal/session/session_test.go
//
// Unit-tests for signed tokens and cookie sessions.
//
// Run: go test ./internal/session -v

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testKey = []byte(strings.Repeat("k", MinKeyBytes))

func newSigner(t *testing.T) *Signer {
	t.Helper()
	s, err := NewSigner(testKey, time.Hour)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	return s
}

func TestSigner_RoundTrip(t *testing.T) {
	s := newSigner(t)
	tok, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !s.Verify(tok) {
		t.Fatal("fresh token rejected")
	}

	other, _ := NewSigner([]byte(strings.Repeat("x", MinKeyBytes)), time.Hour)
	if other.Verify(tok) {
		t.Fatal("token verified under a different key")
	}
	flipped := []byte(tok)
	flipped[10] ^= 1
	if s.Verify(string(flipped)) || s.Verify("garbage") || s.Verify("") {
		t.Fatal("tampered token accepted")
	}
}

func TestSigner_Expiry(t *testing.T) {
	s := newSigner(t)
	start := time.Now()
	s.now = func() time.Time { return start }
	tok, _ := s.Generate()

	s.now = func() time.Time { return start.Add(59 * time.Minute) }
	if !s.Verify(tok) {
		t.Fatal("token rejected inside the window")
	}
	s.now = func() time.Time { return start.Add(61 * time.Minute) }
	if s.Verify(tok) {
		t.Fatal("expired token accepted")
	}
	s.now = func() time.Time { return start.Add(-2 * time.Minute) }
	if s.Verify(tok) {
		t.Fatal("token from the future accepted")
	}
}

func TestNewSigner_WeakKey(t *testing.T) {
	if _, err := NewSigner([]byte("short"), 0); !errors.Is(err, ErrWeakKey) {
		t.Fatalf("err = %v, want ErrWeakKey", err)
	}
	k, err := RandomKey()
	if err != nil || len(k) != MinKeyBytes {
		t.Fatalf("RandomKey = %d bytes, %v", len(k), err)
	}
}

func TestStore_IssueAndReload(t *testing.T) {
	st := NewStore(newSigner(t), CookieOptions{})

	rec := httptest.NewRecorder()
	s := st.Load(rec, httptest.NewRequest("GET", "/", nil))
	if s.CSRFToken() != "" {
		t.Fatal("new session already has a token")
	}
	tok, err := s.NewCSRFToken()
	if err != nil {
		t.Fatalf("NewCSRFToken: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != DefaultCookie || !cookies[0].HttpOnly || cookies[0].SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie = %+v", cookies)
	}

	next := httptest.NewRequest("POST", "/", nil)
	next.AddCookie(cookies[0])
	again := st.Load(httptest.NewRecorder(), next)
	if again.CSRFToken() != tok {
		t.Fatalf("reloaded token = %q, want %q", again.CSRFToken(), tok)
	}
	if !Verify(again, tok) || Verify(again, "nope") || Verify(again, "") {
		t.Fatal("Verify disagrees with the stored token")
	}

	forged := httptest.NewRequest("POST", "/", nil)
	forged.AddCookie(&http.Cookie{Name: DefaultCookie, Value: "forged"})
	if st.Load(httptest.NewRecorder(), forged).CSRFToken() != "" {
		t.Fatal("forged cookie accepted")
	}
}

func TestSession_Clear(t *testing.T) {
	st := NewStore(newSigner(t), CookieOptions{Name: "c"})
	rec := httptest.NewRecorder()
	s := st.Load(rec, httptest.NewRequest("GET", "/", nil))
	s.NewCSRFToken()
	s.Clear()

	cookies := rec.Result().Cookies()
	last := cookies[len(cookies)-1]
	if s.CSRFToken() != "" || last.MaxAge >= 0 {
		t.Fatalf("session not cleared: token=%q cookie=%+v", s.CSRFToken(), last)
	}
}

func TestMemoryAndContext(t *testing.T) {
	m := NewMemory("")
	if Verify(m, "") || Verify(nil, "x") {
		t.Fatal("empty token matched")
	}
	tok, _ := m.NewCSRFToken()
	if len(tok) != 36 || !Verify(m, tok) {
		t.Fatalf("memory token = %q", tok)
	}

	ctx := WithContext(context.Background(), m)
	if FromContext(ctx) != m {
		t.Fatal("session not found in context")
	}
	if FromContext(context.Background()) != nil {
		t.Fatal("empty context returned a session")
	}
}
