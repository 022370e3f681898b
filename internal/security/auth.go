package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize     = 16
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	hashPrefix = "argon2id"
)

var ErrMalformedHash = errors.New("malformed token hash")

// BearerAuth guards the HTTP surface with a shared token. The token may be
// configured in the clear or as an argon2id hash at rest. Besides the
// Authorization header, a ?token= query parameter is accepted so calendar
// subscription clients that cannot set headers can still fetch the export.
type BearerAuth struct {
	Enabled   bool
	Token     string
	TokenHash string
}

func (a BearerAuth) Authorize(r *http.Request) bool {
	if !a.Enabled {
		return true
	}
	candidate := requestToken(r)
	if candidate == "" {
		return false
	}
	if a.TokenHash != "" {
		return VerifyToken(a.TokenHash, candidate)
	}
	if len(candidate) != len(a.Token) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(a.Token)) == 1
}

func requestToken(r *http.Request) string {
	head := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if strings.HasPrefix(head, prefix) {
		return strings.TrimSpace(strings.TrimPrefix(head, prefix))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// HashToken derives an argon2id hash of the token for storing in config,
// encoded as "argon2id$<salt>$<hash>" with base64 raw-url parts.
func HashToken(token string) (string, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key := deriveKey(token, salt)
	enc := base64.RawURLEncoding
	return hashPrefix + "$" + enc.EncodeToString(salt) + "$" + enc.EncodeToString(key), nil
}

// VerifyToken checks a candidate token against an encoded hash produced by
// HashToken. Malformed encodings never authorize.
func VerifyToken(encoded, candidate string) bool {
	salt, want, err := decodeHash(encoded)
	if err != nil {
		return false
	}
	got := deriveKey(candidate, salt)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decodeHash(encoded string) (salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashPrefix {
		return nil, nil, ErrMalformedHash
	}
	enc := base64.RawURLEncoding
	if salt, err = enc.DecodeString(parts[1]); err != nil {
		return nil, nil, ErrMalformedHash
	}
	if key, err = enc.DecodeString(parts[2]); err != nil {
		return nil, nil, ErrMalformedHash
	}
	if len(salt) != saltSize || len(key) != argonKeyLen {
		return nil, nil, ErrMalformedHash
	}
	return salt, key, nil
}

func deriveKey(token string, salt []byte) []byte {
	return argon2.IDKey([]byte(token), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}
