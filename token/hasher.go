package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	hashIterations = 10000
	saltLength     = 16
	keyLength      = 32
	minPepperBytes = 16
)

// Hasher derives store keys from raw refresh-token values. The digest
// format is base64(salt) + "." + base64(pbkdf2 key). The salt is an
// HMAC-SHA256 of the raw value under the configured pepper, truncated to
// 16 bytes, which keeps Hash deterministic for a fixed pepper: the same
// raw value always maps to the same digest, so the digest doubles as the
// unique lookup key in the token store and the blacklist. Changing the
// pepper invalidates every outstanding token.
type Hasher struct {
	pepper []byte
}

// NewHasher validates the pepper and returns a Hasher. The pepper must
// be at least 16 bytes of secret material.
func NewHasher(pepper []byte) (*Hasher, error) {
	if len(pepper) < minPepperBytes {
		return nil, errors.New("token hasher pepper must be at least 16 bytes")
	}

	h := &Hasher{pepper: make([]byte, len(pepper))}
	copy(h.pepper, pepper)
	return h, nil
}

// Hash returns the digest for a raw token value.
func (h *Hasher) Hash(raw string) string {
	salt := h.salt(raw)
	key := pbkdf2.Key([]byte(raw), salt, hashIterations, keyLength, sha256.New)

	return base64.StdEncoding.EncodeToString(salt) + "." + base64.StdEncoding.EncodeToString(key)
}

// Verify reports whether raw corresponds to digest. It never panics and
// returns false for malformed digests. The comparison over the derived
// key material is constant-time.
func (h *Hasher) Verify(raw, digest string) bool {
	if raw == "" || digest == "" {
		return false
	}

	parts := strings.Split(digest, ".")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil || len(salt) != saltLength {
		return false
	}
	stored, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(stored) == 0 {
		return false
	}

	computed := pbkdf2.Key([]byte(raw), salt, hashIterations, keyLength, sha256.New)
	return subtle.ConstantTimeCompare(computed, stored) == 1
}

func (h *Hasher) salt(raw string) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(raw))
	return mac.Sum(nil)[:saltLength]
}
