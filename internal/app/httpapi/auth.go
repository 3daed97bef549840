package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/longshot/pkg/logger"
)

// Claims carries the caller's chain address inside the JWT.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// PublicPaths lists the endpoints served without authentication: liveness,
// metrics, and the read-only queries. Mutating endpoints always require a
// token because the caller address drives the owner and payment checks.
var PublicPaths = []string{"/healthz", "/metrics", "/config", "/deadlines/", "/balance", "/transfers"}

type ctxKey string

const callerKey ctxKey = "caller-address"

// CallerAddress returns the authenticated address, or "" when the request was
// not authenticated.
func CallerAddress(ctx context.Context) string {
	addr, _ := ctx.Value(callerKey).(string)
	return addr
}

// Authenticator validates HMAC-signed bearer tokens and stores the caller
// address on the request context.
type Authenticator struct {
	secret       []byte
	log          *logger.Logger
	skipPaths    map[string]bool
	skipPrefixes []string
}

// NewAuthenticator creates an Authenticator. Requests to skipPaths pass
// through unauthenticated; an entry ending in "/" skips by prefix.
func NewAuthenticator(secret string, log *logger.Logger, skipPaths []string) *Authenticator {
	if log == nil {
		log = logger.NewDefault("httpapi-auth")
	}
	a := &Authenticator{secret: []byte(secret), log: log, skipPaths: make(map[string]bool, len(skipPaths))}
	for _, path := range skipPaths {
		if strings.HasSuffix(path, "/") {
			a.skipPrefixes = append(a.skipPrefixes, path)
			continue
		}
		a.skipPaths[path] = true
	}
	return a
}

func (a *Authenticator) skip(path string) bool {
	if a.skipPaths[path] {
		return true
	}
	for _, prefix := range a.skipPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IssueToken signs a token for the given address. Used by tests and local
// tooling; production tokens come from the platform's auth service.
func (a *Authenticator) IssueToken(address string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(a.secret)
}

// Wrap authenticates requests before passing them to next.
func (a *Authenticator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("missing Authorization header"))
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid Authorization header format"))
			return
		}

		claims, err := a.validateToken(parts[1])
		if err != nil {
			a.log.WithError(err).Warn("token validation failed")
			writeError(w, http.StatusUnauthorized, fmt.Errorf("invalid token"))
			return
		}

		ctx := context.WithValue(r.Context(), callerKey, claims.Address)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *Authenticator) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid claims")
	}
	if strings.TrimSpace(claims.Address) == "" {
		return nil, fmt.Errorf("token missing address claim")
	}
	return claims, nil
}
