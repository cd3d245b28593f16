package middleware

import (
	"context"
	"net/http"
	"strings"
)

// LocaleResolver picks a supported language from an Accept-Language header.
type LocaleResolver interface {
	Resolve(acceptLang string) string
	Supported() []string
	Fallback() string
}

const localeCookie = "hl"

// Locale resolves the request language from the `hl` query parameter, the `hl` cookie or
// Accept-Language, in that order, and stores it on the context.
func Locale(resolver LocaleResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""
			if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("hl"))); q != "" && supported(resolver, q) {
				lang = q
				http.SetCookie(w, &http.Cookie{Name: localeCookie, Value: q, Path: "/", SameSite: http.SameSiteLaxMode})
			} else if c, err := r.Cookie(localeCookie); err == nil && supported(resolver, strings.ToLower(c.Value)) {
				lang = strings.ToLower(c.Value)
			} else {
				lang = resolver.Resolve(r.Header.Get("Accept-Language"))
			}
			w.Header().Set("Content-Language", lang)
			w.Header().Add("Vary", "Accept-Language")
			ctx := context.WithValue(r.Context(), localeContextKey, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Lang returns the language stored by Locale, or "ja".
func Lang(ctx context.Context) string {
	if v, ok := ctx.Value(localeContextKey).(string); ok && v != "" {
		return v
	}
	return "ja"
}

func supported(resolver LocaleResolver, lang string) bool {
	for _, l := range resolver.Supported() {
		if l == lang {
			return true
		}
	}
	return false
}
