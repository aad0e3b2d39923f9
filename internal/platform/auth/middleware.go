package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRolesKey contextKey = "user_roles"
)

type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

type JWTConfig struct {
	Issuer     string
	Audience   string
	SigningKey []byte
	// Skipper lets public routes through without a bearer token.
	Skipper func(c echo.Context) bool
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := parser.ParseWithClaims(parts[1], claims, keyFunc)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), claims.Subject, claims.Roles)))
			return next(c)
		}
	}
}

// DevAuthMiddleware is a permissive middleware for development. Requests
// without a bearer token act as an admin; requests with one are verified
// with the signing key when it is configured.
func DevAuthMiddleware(signingKey []byte) echo.MiddlewareFunc {
	var verify echo.MiddlewareFunc
	if len(signingKey) > 0 {
		verify = JWTMiddleware(JWTConfig{SigningKey: signingKey})
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		verified := next
		if verify != nil {
			verified = verify(next)
		}
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				ctx := WithUser(c.Request().Context(), "dev-user", []string{RoleAdmin})
				c.SetRequest(c.Request().WithContext(ctx))
				return next(c)
			}
			return verified(c)
		}
	}
}

// IssueToken signs an HS256 token for subject with the given roles. The CLI
// uses it to hand out staff tokens.
func IssueToken(cfg JWTConfig, subject string, roles []string, ttl time.Duration) (string, error) {
	if len(cfg.SigningKey) == 0 {
		return "", fmt.Errorf("signing key is required")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Roles: roles,
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
}

// WithUser stores the caller identity on ctx.
func WithUser(ctx context.Context, userID string, roles []string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRolesKey, roles)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(UserRolesKey).([]string)
	return roles
}
