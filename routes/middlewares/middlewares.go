package middlewares

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/oauth"

	"github.com/mbolis/gyp-site/httpx"
	"github.com/mbolis/gyp-site/log"
	"github.com/mbolis/gyp-site/model"
)

// Authenticated lets a request through only with a valid bearer token. The
// oauth authorizer runs against a scratch response so that a rejection is
// answered with the uniform JSON error instead of its own body.
func Authenticated(secret string) func(http.Handler) http.Handler {
	authorize := oauth.Authorize(secret, nil)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var authorized *http.Request
			capture := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				authorized = r
			})
			authorize(capture).ServeHTTP(httpx.NewResponseBuffer(), r)

			if authorized == nil {
				httpx.Unauthorized(w, r)
				return
			}
			if _, ok := httpx.SessionFrom(authorized.Context()); !ok {
				httpx.Unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, authorized)
		})
	}
}

// RequireRole must run after Authenticated.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := httpx.SessionFrom(r.Context())
			if !ok {
				httpx.Unauthorized(w, r)
				return
			}
			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Debugf("auth.role: %s is %s, wants %v", session.Email, session.Role, roles)
			httpx.Forbidden(w, r)
		})
	}
}

// CookieAuth serves browser GETs of protected static pages: the access token
// comes from a cookie, and an expired one is refreshed transparently with the
// refresh token cookie. Without a usable session the browser is sent to the
// login page.
func CookieAuth(bearerServer *oauth.BearerServer, loginPage string) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				h.ServeHTTP(w, r)
				return
			}

			// error writers stamp the render status onto the request they get,
			// so each attempt runs on its own copy
			if token, err := r.Cookie(accessCookie); err == nil {
				attempt := r.Clone(r.Context())
				attempt.Header.Set("Authorization", "Bearer "+token.Value)
				buf := httpx.NewResponseBuffer()
				h.ServeHTTP(buf, attempt)
				if buf.Status() != http.StatusUnauthorized {
					buf.Flush(w)
					return
				}
			} else if !errors.Is(err, http.ErrNoCookie) {
				httpx.LogInternalError(w, r, "auth.cookie.access", err)
				return
			}

			loginLocation := loginPage + "?goto=" + url.QueryEscape(r.RequestURI)

			refreshToken, err := r.Cookie(refreshCookie)
			if err != nil {
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}

			tokens, status, err := httpx.RequestTokens(r.Context(), bearerServer, httpx.RefreshGrant(refreshToken.Value))
			if err != nil {
				httpx.LogInternalError(w, r, "auth.cookie.refresh", err)
				return
			}
			if status != http.StatusOK {
				ClearTokenCookies(w)
				http.Redirect(w, r, loginLocation, http.StatusTemporaryRedirect)
				return
			}

			SetTokenCookies(w, tokens)
			retry := r.Clone(r.Context())
			retry.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
			h.ServeHTTP(w, retry)
		})
	}
}

const (
	accessCookie  = "access_token"
	refreshCookie = "refresh_token"
)

func SetTokenCookies(w http.ResponseWriter, tokens httpx.TokenResponse) {
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     accessCookie,
		Value:    tokens.AccessToken,
		MaxAge:   int(tokens.ExpiresIn),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Path:     "/",
		Name:     refreshCookie,
		Value:    tokens.RefreshToken,
		MaxAge:   int(httpx.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookie, refreshCookie} {
		http.SetCookie(w, &http.Cookie{
			Path:   "/",
			Name:   name,
			Value:  "",
			MaxAge: -1,
		})
	}
}
