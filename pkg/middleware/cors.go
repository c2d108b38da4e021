package middleware

import (
	"net/http"
	"strings"
)

// CORSOptions configures the headers CORS writes.
type CORSOptions struct {
	AllowOrigin  string
	AllowHeaders []string
	AllowMethods []string
	// PreflightStatus answers OPTIONS requests without calling the next handler.
	PreflightStatus int
}

// CORS adds cross-origin headers to every response and answers pre-flight
// OPTIONS requests with an empty body.
func CORS(opts CORSOptions) func(http.Handler) http.Handler {
	origin := opts.AllowOrigin
	if origin == "" {
		origin = "*"
	}
	headers := strings.Join(opts.AllowHeaders, ", ")
	methods := strings.Join(opts.AllowMethods, ", ")
	preflight := opts.PreflightStatus
	if preflight == 0 {
		preflight = http.StatusNoContent
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if headers != "" {
				w.Header().Set("Access-Control-Allow-Headers", headers)
			}
			if methods != "" {
				w.Header().Set("Access-Control-Allow-Methods", methods)
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(preflight)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
