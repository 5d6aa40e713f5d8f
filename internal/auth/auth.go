// Package auth implements employee authentication for the sennacar
// backend: bcrypt password hashing, HS256 JWT issuance and the HTTP
// middleware guarding protected routes.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/sennacar/sennacar/internal/models"
)

// DefaultTokenTTL is the default lifetime of issued access tokens.
const DefaultTokenTTL = 8 * time.Hour

// Opts holds configuration options for the auth service.
type Opts struct {
	Secret   string
	TokenTTL time.Duration
}

// Option defines a configuration option for the auth service.
type Option func(*Opts)

// WithSecret sets the HMAC signing secret.
func WithSecret(secret string) Option {
	return func(o *Opts) { o.Secret = secret }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(o *Opts) { o.TokenTTL = ttl }
}

// Claims are the JWT claims carried by an access token. The employee id
// is the registered subject.
type Claims struct {
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Service issues and verifies access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates an auth service. The secret falls back to the
// JWT_SECRET environment variable when not provided via options.
func NewService(opts ...Option) (*Service, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("JWT_SECRET")
	}
	slog.Debug("Auth service config loaded", "Secret_set", cfg.Secret != "", "TokenTTL", cfg.TokenTTL)
	if cfg.Secret == "" {
		return nil, fmt.Errorf("JWT secret must be provided")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &Service{secret: []byte(cfg.Secret), ttl: cfg.TokenTTL}, nil
}

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken creates a signed access token for the employee.
func (s *Service) IssueToken(e models.Employee) (string, error) {
	now := time.Now()
	claims := Claims{
		Name:    e.Name,
		IsAdmin: e.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   e.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		slog.Error("Auth IssueToken signing failed", "error", err, "employee_id", e.ID)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	slog.Debug("Auth token issued", "employee_id", e.ID, "is_admin", e.IsAdmin)
	return signed, nil
}

// VerifyToken parses and validates a signed token, returning its claims.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

type contextKey struct{}

// FromContext returns the claims stored by the middleware, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}

// Middleware rejects requests without a valid Bearer token and stores
// the verified claims in the request context.
func (s *Service) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			unauthorized(w, "missing bearer token")
			return
		}
		claims, err := s.VerifyToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			slog.Debug("Auth middleware rejected token", "error", err)
			unauthorized(w, "invalid or expired token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, claims)))
	}
}

// AdminOnly additionally requires the is_admin claim. It must wrap a
// handler already behind Middleware.
func (s *Service) AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return s.Middleware(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if !ok || !claims.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = writeJSON(w, models.Error("admin privileges required"))
			return
		}
		next(w, r)
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = writeJSON(w, models.Error(msg))
}

func writeJSON(w http.ResponseWriter, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}
