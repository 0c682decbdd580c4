package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/geocoder89/todolist/internal/actorctx"
	"github.com/geocoder89/todolist/internal/auth"
	"github.com/gin-gonic/gin"
)

// SessionCookie holds the JWT for the server-rendered pages.
const SessionCookie = "todolist_session"

const LoginPath = "/Account/Login"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	revoked RevocationChecker
}

func NewAuthMiddleware(jwt TokenVerifier, revoked RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, revoked: revoked}
}

func (m *AuthMiddleware) verify(c *gin.Context, raw string) (*auth.Claims, error) {
	claims, err := m.jwt.VerifyAccessToken(raw)
	if err != nil {
		return nil, err
	}

	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(c.Request.Context(), claims.JTI)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, auth.ErrTokenRevoked
		}
	}

	return claims, nil
}

// RequireBearer guards the JSON API.
func (m *AuthMiddleware) RequireBearer() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token")
			return
		}

		claims, err := m.verify(c, raw)
		if err != nil {
			msg := "Invalid or expired access token"
			if errors.Is(err, auth.ErrTokenRevoked) {
				msg = "Access token has been revoked"
			}
			abortJSON(c, http.StatusUnauthorized, "unauthorized", msg)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// RequireCookie guards the HTML pages; anonymous visitors go to the login
// page and come back afterwards.
func (m *AuthMiddleware) RequireCookie() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := m.fromCookie(c)
		if !ok {
			RedirectToLogin(c)
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// OptionalCookie identifies the visitor when a valid session exists.
func (m *AuthMiddleware) OptionalCookie() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := m.fromCookie(c); ok {
			setIdentity(c, claims)
		}
		c.Next()
	}
}

func (m *AuthMiddleware) fromCookie(c *gin.Context) (*auth.Claims, bool) {
	raw, err := c.Cookie(SessionCookie)
	if err != nil || raw == "" {
		return nil, false
	}

	claims, err := m.verify(c, raw)
	if err != nil {
		// stale cookie; drop it so the browser stops sending it
		c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
		return nil, false
	}
	return claims, true
}

func RedirectToLogin(c *gin.Context) {
	target := LoginPath + "?ReturnUrl=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func setIdentity(c *gin.Context, claims *auth.Claims) {
	c.Set(CtxClaims, claims)
	c.Set(CtxUserID, claims.UserID)
	c.Set(CtxEmail, claims.Email)
	c.Set(CtxRoles, claims.Roles)

	c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), claims.UserID))
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

func ClaimsFromContext(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

func HasRole(c *gin.Context, role string) bool {
	claims, ok := ClaimsFromContext(c)
	return ok && claims.HasRole(role)
}
