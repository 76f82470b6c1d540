package middleware

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoCacheRules is returned when CacheControlConfig.Rules is empty.
var ErrNoCacheRules = errors.New("cache control: at least one rule is required")

// CacheRule maps a Content-Type prefix to a Cache-Control value.
type CacheRule struct {
	// ContentType is matched case-insensitively as a prefix of the
	// response Content-Type, e.g. "application/json" or "image/".
	ContentType string

	// Value is the Cache-Control header value, e.g. "no-cache".
	Value string
}

// CacheControlConfig configures the cache control middleware.
type CacheControlConfig struct {
	// Rules are evaluated in order; the first match wins.
	Rules []CacheRule

	// Default is used when no rule matches. Empty sets nothing.
	Default string
}

// CacheControlMiddleware sets Cache-Control from the response Content-Type
// right before the header is flushed. Error responses and a Cache-Control
// header already set by the handler are left alone.
func CacheControlMiddleware(cfg CacheControlConfig) (MiddlewareFunc, error) {
	if len(cfg.Rules) == 0 {
		return nil, ErrNoCacheRules
	}

	rules := make([]CacheRule, len(cfg.Rules))
	for i, r := range cfg.Rules {
		rules[i] = CacheRule{ContentType: strings.ToLower(r.ContentType), Value: r.Value}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(&cacheWriter{ResponseWriter: w, rules: rules, fallback: cfg.Default}, r)
		})
	}, nil
}

type cacheWriter struct {
	http.ResponseWriter
	rules       []CacheRule
	fallback    string
	wroteHeader bool
}

func (cw *cacheWriter) WriteHeader(code int) {
	if cw.wroteHeader {
		return
	}
	cw.wroteHeader = true

	h := cw.Header()
	if code < http.StatusBadRequest && h.Get("Cache-Control") == "" {
		value := cw.fallback
		ct := strings.ToLower(h.Get("Content-Type"))
		for _, rule := range cw.rules {
			if strings.HasPrefix(ct, rule.ContentType) {
				value = rule.Value
				break
			}
		}
		if value != "" {
			h.Set("Cache-Control", value)
		}
	}

	cw.ResponseWriter.WriteHeader(code)
}

func (cw *cacheWriter) Write(b []byte) (int, error) {
	if !cw.wroteHeader {
		cw.WriteHeader(http.StatusOK)
	}
	return cw.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter.
func (cw *cacheWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
