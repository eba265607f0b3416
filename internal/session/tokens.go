// internal/session/tokens.go
//
// simpleform – signed CSRF tokens.
//
// Context
//   A CSRF token is stateless and self-verifying:
//
//      base64url( nonce | unixMicro | HMAC_SHA256(key, nonce+unixMicro) )
//
//   •  nonce – 16 random bytes, so two tokens never collide.
//   •  unixMicro – issue time, 8 bytes, big-endian.
//   •  HMAC – keyed with the site secret.  Verifies authenticity.
//
//   Verify checks the signature and that the issue time lies within MaxAge.
//   The token is also the cookie value of a Session, so a multi-instance
//   deployment needs nothing but a shared key.
//
//------------------------------------------------------------------------------

package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

const (
	nonceBytes = 16
	tokenBytes = nonceBytes + 8 + sha256.Size // nonce + ts + sig

	// MinKeyBytes is the shortest accepted signing key.
	MinKeyBytes = 32
	// DefaultMaxAge is the token validity window.
	DefaultMaxAge = 2 * time.Hour

	clockSkew = time.Minute
)

// ErrWeakKey is returned by NewSigner for keys shorter than MinKeyBytes.
var ErrWeakKey = errors.New("session: signing key must be at least 32 bytes")

// Signer issues and verifies tokens.  Safe for concurrent use.
type Signer struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer.  maxAge <= 0 means DefaultMaxAge.
func NewSigner(key []byte, maxAge time.Duration) (*Signer, error) {
	if len(key) < MinKeyBytes {
		return nil, ErrWeakKey
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k, maxAge: maxAge, now: time.Now}, nil
}

// RandomKey returns MinKeyBytes of fresh random data, for development
// setups without a configured secret.  Tokens do not survive a restart.
func RandomKey() ([]byte, error) {
	k := make([]byte, MinKeyBytes)
	if _, err := rand.Read(k); err != nil {
		return nil, err
	}
	return k, nil
}

// Generate creates a new token.
func (s *Signer) Generate() (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	ts := make([]byte, 8)
	binary.BigEndian.PutUint64(ts, uint64(s.now().UnixMicro()))

	buf := make([]byte, 0, tokenBytes)
	buf = append(buf, nonce...)
	buf = append(buf, ts...)
	buf = append(buf, s.sign(nonce, ts)...)

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Verify reports whether tok passes the HMAC and age checks.
func (s *Signer) Verify(tok string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(tok)
	if err != nil || len(raw) != tokenBytes {
		return false
	}

	nonce := raw[:nonceBytes]
	ts := raw[nonceBytes : nonceBytes+8]
	sig := raw[nonceBytes+8:]

	issued := time.UnixMicro(int64(binary.BigEndian.Uint64(ts)))
	now := s.now()
	if now.Sub(issued) > s.maxAge || issued.Sub(now) > clockSkew {
		return false
	}
	return hmac.Equal(sig, s.sign(nonce, ts))
}

func (s *Signer) sign(nonce, ts []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(nonce)
	mac.Write(ts)
	return mac.Sum(nil)
}
