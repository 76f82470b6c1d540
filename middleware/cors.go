package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// ErrNoOrigins is returned when CORSConfig.AllowedOrigins is empty.
var ErrNoOrigins = errors.New("cors: at least one allowed origin is required")

// CORSConfig configures the CORS middleware behaviour.
//
// References:
//   - CORS protocol: https://fetch.spec.whatwg.org/#http-cors-protocol
//   - Web Origin:    https://www.rfc-editor.org/rfc/rfc6454
type CORSConfig struct {
	// AllowedOrigins lists exact origins or "*". With "*" every response
	// carries "Access-Control-Allow-Origin: *", even without an Origin
	// request header, so documents can be fetched by any viewer.
	AllowedOrigins []string

	// AllowedMethods are advertised on preflight. Defaults to GET, HEAD
	// and OPTIONS.
	AllowedMethods []string

	// AllowedHeaders are advertised on preflight. When empty the
	// requested headers are reflected.
	AllowedHeaders []string

	// MaxAge is the preflight cache lifetime in seconds; zero omits it.
	MaxAge int
}

// CORSMiddleware returns a middleware that sets CORS headers and answers
// preflight requests with 204 No Content.
func CORSMiddleware(cfg CORSConfig) (MiddlewareFunc, error) {
	if len(cfg.AllowedOrigins) == 0 {
		return nil, ErrNoOrigins
	}

	wildcard := slices.Contains(cfg.AllowedOrigins, "*")
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins = append(origins, strings.ToLower(o))
	}

	methods := cfg.AllowedMethods
	if len(methods) == 0 {
		methods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, strings.ToLower(origin)):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			default:
				next.ServeHTTP(w, r)
				return
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			if allowHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
			} else if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
				w.Header().Set("Access-Control-Allow-Headers", requested)
			}
			if cfg.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}, nil
}
