package middleware

import (
	"net/http"
	"time"

	goGuard "github.com/MrEthical07/goGuard"
)

// SetSessionCookies writes the session and refresh cookies for res.
func SetSessionCookies(w http.ResponseWriter, engine *goGuard.Engine, res *goGuard.LoginResult) {
	cfg := engine.Config()
	secure := cfg.Production()
	http.SetCookie(w, authCookie(cfg.Session.CookieName, res.SessionToken, res.SessionExpiresAt, cfg.Session.TTL, secure))
	http.SetCookie(w, authCookie(cfg.Refresh.CookieName, res.RefreshToken, res.RefreshExpiresAt, cfg.Refresh.TTL, secure))
}

// ClearSessionCookies expires both auth cookies.
func ClearSessionCookies(w http.ResponseWriter, engine *goGuard.Engine) {
	cfg := engine.Config()
	secure := cfg.Production()
	for _, name := range []string{cfg.Session.CookieName, cfg.Refresh.CookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteStrictMode,
		})
	}
}

// RefreshToken returns the refresh token cookie value, or "".
func RefreshToken(r *http.Request, engine *goGuard.Engine) string {
	c, err := r.Cookie(engine.Config().Refresh.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func authCookie(name, value string, expires time.Time, ttl time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
