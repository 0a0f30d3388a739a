package appMiddleware

import "net/http"

// RedirectHTTPS upgrades plain-HTTP requests with a terminal redirect.
// Trusts X-Forwarded-Proto so it works behind a TLS-terminating proxy.
func RedirectHTTPS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proto := r.Header.Get("X-Forwarded-Proto")
		if r.TLS == nil && proto != "https" {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}
		next.ServeHTTP(w, r)
	})
}
