// internal/httpserver/auth.go
//
// Caller authentication for /api routes.
//   - X-API-Key is compared against API_KEY, or verified with bcrypt against
//     API_KEY_HASH when that is configured.
//   - POST /api/auth/token exchanges a valid key for an HS256 JWT whose
//     subject is a SHA-256 fingerprint of the key; "Authorization: Bearer
//     <token>" is then accepted in place of the header.
//   - With API_KEY_HASH the fingerprint can only be mapped back to a key this
//     process has verified, so tokens must be re-issued after a restart.

package httpserver

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-API-Key"

// ctxKeyAPIKey is the context key type for the authenticated API key.
type ctxKeyAPIKey struct{}

// apiKeyFrom returns the caller's key set by requireAuth.
func apiKeyFrom(ctx context.Context) string {
	k, _ := ctx.Value(ctxKeyAPIKey{}).(string)
	return k
}

// fingerprint identifies a key in token subjects without revealing it.
func fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// keyChecker validates API keys. Keys that passed a bcrypt check are
// remembered by fingerprint so the hash is only evaluated once per key.
type keyChecker struct {
	plain string
	hash  []byte

	mu       sync.Mutex
	verified map[string]string // fingerprint → key
}

func newKeyChecker(plain, hash string) *keyChecker {
	kc := &keyChecker{plain: plain, verified: map[string]string{}}
	if hash != "" {
		kc.hash = []byte(hash)
	} else if plain != "" {
		kc.verified[fingerprint(plain)] = plain
	}
	return kc
}

func (k *keyChecker) valid(key string) bool {
	if key == "" {
		return false
	}
	if k.hash == nil {
		return subtle.ConstantTimeCompare([]byte(key), []byte(k.plain)) == 1
	}
	fp := fingerprint(key)
	k.mu.Lock()
	known, ok := k.verified[fp]
	k.mu.Unlock()
	if ok && known == key {
		return true
	}
	if bcrypt.CompareHashAndPassword(k.hash, []byte(key)) != nil {
		return false
	}
	k.mu.Lock()
	k.verified[fp] = key
	k.mu.Unlock()
	return true
}

// byFingerprint returns the verified key with fingerprint fp.
func (k *keyChecker) byFingerprint(fp string) (string, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	key, ok := k.verified[fp]
	return key, ok
}

// requireAuth accepts X-API-Key or a bearer token and injects the key into
// the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		switch {
		case key != "":
			if !s.keys.valid(key) {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})
				return
			}
		case bearer(r) != "":
			sub, err := s.parseToken(bearer(r))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
				return
			}
			key = sub
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyAPIKey{}, key)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type tokenRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleToken issues a bearer token for a valid X-API-Key.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	key := r.Header.Get(apiKeyHeader)
	if !s.keys.valid(key) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})
		return
	}
	tok, exp, err := s.signToken(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenRes{Token: tok, ExpiresAt: exp})
}

// signToken creates an HS256 JWT for key, valid for JWT_EXPIRES_MINUTES.
func (s *Server) signToken(key string) (string, time.Time, error) {
	ttl := s.cfg.JWTTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	now := time.Now()
	exp := now.Add(ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fingerprint(key),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(s.secret())
	return ss, exp, err
}

// parseToken validates a bearer token and returns the key its subject
// fingerprints. Tokens for keys that are not (or no longer) accepted are
// rejected.
func (s *Server) parseToken(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	key, ok := s.keys.byFingerprint(claims.Subject)
	if !ok || !s.keys.valid(key) {
		return "", jwt.ErrTokenInvalidSubject
	}
	return key, nil
}

func (s *Server) secret() []byte {
	if s.cfg.JWTSecret == "" {
		return []byte("dev_secret_change_me")
	}
	return []byte(s.cfg.JWTSecret)
}

// bearer extracts a token from "Authorization: Bearer <token>".
func bearer(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}
