package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CtxSessionIDKey   = "session_id" // string
	sessionCookieName = "cart_session"
)

// SessionID はカート用のセッションIDをcookieから読む。
// 無ければ新しく発番してcookieに載せる。ログイン前でもカートは持てる。
func SessionID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var sid string

			cookie, err := c.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				sid = cookie.Value
			} else {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     sessionCookieName,
					Value:    sid,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(30 * 24 * time.Hour),
				})
			}

			c.Set(CtxSessionIDKey, sid)
			return next(c)
		}
	}
}
