package middleware

import (
	"net/url"
	"strconv"
	"time"

	"inkwell/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie is the name of the signed session cookie.
const SessionCookie = "inkwell_session"

const sessionLifetime = 7 * 24 * time.Hour

var cfg *config.Config

// InitMiddleware initializes session middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// IssueSession signs a session token for the given user.
func IssueSession(userID uint, isAdmin bool) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"adm": isAdmin,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(sessionLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.SessionSecret))
}

// SessionCookieFor wraps a signed token in the cookie handed to the browser.
func SessionCookieFor(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(sessionLifetime),
		HTTPOnly: true,
		SameSite: "Lax",
	}
}

// ExpiredSessionCookie returns a cookie that clears the session.
func ExpiredSessionCookie() *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	}
}

func parseSession(tokenString string) (uint, bool, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
		}
		return []byte(cfg.SessionSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, false, fiber.ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, false, fiber.ErrUnauthorized
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, false, fiber.ErrUnauthorized
	}
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return 0, false, fiber.ErrUnauthorized
	}
	isAdmin, _ := claims["adm"].(bool)
	return uint(id), isAdmin, nil
}

// CurrentUser resolves the session cookie into request locals. Requests
// without a valid session proceed anonymously; pages decide for themselves
// whether a user is required.
func CurrentUser(c *fiber.Ctx) error {
	tokenString := c.Cookies(SessionCookie)
	if tokenString == "" {
		return c.Next()
	}
	userID, isAdmin, err := parseSession(tokenString)
	if err != nil {
		// A stale or tampered cookie is dropped, not an error page.
		c.Cookie(ExpiredSessionCookie())
		return c.Next()
	}
	c.Locals("userID", userID)
	c.Locals("isAdmin", isAdmin)
	return c.Next()
}

// LoginRequired redirects anonymous requests to the login page, preserving
// the original URL in the next parameter.
func LoginRequired(c *fiber.Ctx) error {
	if _, ok := c.Locals("userID").(uint); !ok {
		return c.Redirect("/auth/login/?next="+url.QueryEscape(c.OriginalURL()), fiber.StatusFound)
	}
	return c.Next()
}

// AdminRequired rejects requests whose session does not carry the admin flag.
func AdminRequired(c *fiber.Ctx) error {
	if isAdmin, ok := c.Locals("isAdmin").(bool); !ok || !isAdmin {
		return fiber.ErrForbidden
	}
	return c.Next()
}
