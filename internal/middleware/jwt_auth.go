package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/takopi/backend/internal/auth"
)

// UserContextKey is where verified *auth.Claims are stored on the echo.Context.
const UserContextKey = "user"

// TokenVerifier is satisfied by *auth.TokenService.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// JWTAuth requires a valid token from the Authorization header or the auth cookie.
func JWTAuth(tokens TokenVerifier, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := auth.ExtractToken(c.Request(), cookieName)
			if err != nil {
				if errors.Is(err, auth.ErrMissingToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing authentication token")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrExpiredToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Token has expired")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

// OptionalJWTAuth attaches claims when a valid token is present and otherwise lets the
// request through anonymously.
func OptionalJWTAuth(tokens TokenVerifier, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if tokenString, err := auth.ExtractToken(c.Request(), cookieName); err == nil {
				if claims, err := tokens.Verify(tokenString); err == nil {
					c.Set(UserContextKey, claims)
				}
			}
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by the auth middlewares, or nil.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(UserContextKey).(*auth.Claims)
	return claims
}
