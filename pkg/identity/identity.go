// Package identity derives stable, privacy-preserving visitor tokens from raw
// client signals. Two providers exist: a deterministic IP hash and a random
// cookie id. The rest of the system depends only on the Provider interface.
package identity

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Provider resolves a raw client signal into an opaque identity token.
// minted reports whether the token is new and must be persisted back to
// the client (cookie mode only).
type Provider interface {
	Resolve(raw string) (token string, minted bool)
}

// IPHash derives deterministic tokens by hashing the client address with a
// server-side secret. The same address yields the same token until the
// secret rotates, which intentionally invalidates all prior tokens.
type IPHash struct {
	secret []byte
}

func NewIPHash(secret string) IPHash {
	return IPHash{secret: []byte(secret)}
}

// Resolve hashes the given address using HMAC-SHA256 and returns a hex string.
func (p IPHash) Resolve(raw string) (string, bool) {
	mac := hmac.New(sha256.New, p.secret)
	mac.Write([]byte(strings.TrimSpace(raw)))
	return hex.EncodeToString(mac.Sum(nil)), false
}

// Cookie passes existing cookie values through unchanged and mints a fresh
// random token when none is present.
type Cookie struct{}

// Resolve returns the existing value, or a new 16-byte random hex token with
// minted=true so the caller persists it client-side.
func (Cookie) Resolve(raw string) (string, bool) {
	if raw != "" {
		return raw, false
	}
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is broken.
		panic("identity: cannot read random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf), true
}
