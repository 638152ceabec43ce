package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gamified-learning/internal/domain"
	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	userIDCtxKey   contextKey = "userID"
	userRoleCtxKey contextKey = "userRole"
)

// accessClaims is the payload of an access token.
type accessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims have been checked.
func (c accessClaims) Validate() error {
	if c.UserID == "" {
		return errors.New("user_id claim is missing or not a string")
	}
	if c.Role == "" {
		return errors.New("role claim is missing or not a string")
	}
	return nil
}

// claimsValidator demands an expiry on every token, not just a valid one when present.
var claimsValidator = jwt.NewValidator(jwt.WithExpirationRequired(), jwt.WithIssuedAt())

// TokenService issues and verifies HS256 access tokens carrying user_id and role claims.
type TokenService struct {
	auth   *jwtauth.JWTAuth
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		auth:   jwtauth.New("HS256", []byte(secret), nil),
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(userID string, role domain.Role) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims{
		UserID: userID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString(s.secret)
}

// Verifier finds a token in the Authorization header or jwt cookie and verifies it.
func (s *TokenService) Verifier() func(http.Handler) http.Handler {
	return jwtauth.Verifier(s.auth)
}

// Authenticator rejects requests without a valid token and stores the caller in the context.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			respondError(w, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}

		access := claimsFromMap(claims)
		if err := claimsValidator.Validate(access); err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}

		ctx := context.WithValue(r.Context(), userIDCtxKey, access.UserID)
		ctx = context.WithValue(ctx, userRoleCtxKey, domain.Role(access.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if role, _ := userRoleFromContext(r.Context()); role != domain.RoleAdmin {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDCtxKey).(string)
	return id, ok
}

func userRoleFromContext(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(userRoleCtxKey).(domain.Role)
	return role, ok
}

// claimsFromMap rebuilds typed claims from the verified token's claim map.
// Time claims arrive as time.Time; anything else of the wrong type is left unset.
func claimsFromMap(m map[string]any) accessClaims {
	var c accessClaims
	c.UserID, _ = m["user_id"].(string)
	c.Role, _ = m["role"].(string)
	c.ExpiresAt = numericDate(m["exp"])
	c.IssuedAt = numericDate(m["iat"])
	return c
}

func numericDate(v any) *jwt.NumericDate {
	switch t := v.(type) {
	case time.Time:
		return jwt.NewNumericDate(t)
	case float64:
		return jwt.NewNumericDate(time.Unix(int64(t), 0))
	}
	return nil
}
