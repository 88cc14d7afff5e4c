// Package middleware provides the request-processing chain shared by all
// routes: token verification, role gating, rate limiting and response
// caching.  Authentication itself lives in a separate identity service;
// this package only verifies the tokens it issues.
package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth.
const (
	ContextUserID = "user_id" // uint64 subject of the verified token
	ContextRole   = "role"    // role claim string (CUSTOMER, STAFF, ADMIN)
)

// Role claim values recognised by the API.
const (
	RoleCustomer = "CUSTOMER"
	RoleStaff    = "STAFF"
	RoleAdmin    = "ADMIN"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the identity service and injects the numeric user id and role
// claim into the request context.  The secret must match the issuer's
// signing secret.  Handlers read the values via UserID(c) and Role(c).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Only HMAC tokens are issued; reject anything else.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}

			uid, ok := subjectID(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid subject"})
			}
			role, _ := claims["role"].(string)

			c.Set(ContextUserID, uid)
			c.Set(ContextRole, role)
			return next(c)
		}
	}
}

// JWTAuthOptional behaves like JWTAuth when a Bearer token is present
// but lets anonymous requests through as guests.  Used on routes whose
// response is personalised for signed-in users but still public, such
// as the seat map marking the viewer's own held seats.
func JWTAuthOptional(secret string) echo.MiddlewareFunc {
	authed := JWTAuth(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		guarded := authed(next)
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return guarded(c)
		}
	}
}

// subjectID extracts the numeric user id from the sub claim, which the
// identity service encodes as a decimal string.
func subjectID(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		return id, err == nil
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	}
	return 0, false
}

// UserID returns the authenticated user's id, or 0 for guests.
func UserID(c echo.Context) uint64 {
	if v, ok := c.Get(ContextUserID).(uint64); ok {
		return v
	}
	return 0
}

// Role returns the authenticated user's role claim, or "" for guests.
func Role(c echo.Context) string {
	if v, ok := c.Get(ContextRole).(string); ok {
		return v
	}
	return ""
}
