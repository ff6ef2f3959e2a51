package token

import (
	"net/http"
	"strings"
	"time"
)

/* Токен ищем сначала в заголовке Authorization, потом в cookie сессии */
func FromRequest(req *http.Request, cookieName string) ([]byte, bool) {
	if req == nil {
		return nil, false
	}
	if header := strings.TrimSpace(req.Header.Get("Authorization")); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if value := strings.TrimSpace(parts[1]); value != "" {
				return []byte(value), true
			}
		}
	}
	cookie, err := req.Cookie(cookieName)
	if err != nil || cookie == nil {
		return nil, false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return nil, false
	}
	return []byte(value), true
}

// FromRequestVerified returns nil claims when the request carries no valid session.
func FromRequestVerified(req *http.Request, cookieName string, secret []byte) *Claims {
	raw, ok := FromRequest(req, cookieName)
	if !ok {
		return nil
	}
	claims, err := Decode(secret, raw)
	if err != nil {
		return nil
	}
	return claims
}

func WriteCookie(w http.ResponseWriter, req *http.Request, cookieName string, value []byte, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    string(value),
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   req != nil && req.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(w http.ResponseWriter, req *http.Request, cookieName string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   req != nil && req.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
