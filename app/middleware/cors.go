package appMiddleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS admits every cross-origin request with credentials allowed. Browsers
// reject the wildcard origin together with credentials, so the specific
// request origin is echoed back instead of "*": AllowOriginFunc returning
// true for any origin makes go-chi/cors emit the request's own Origin
// header value. Intentionally permissive.
func CORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return true
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	})
}
