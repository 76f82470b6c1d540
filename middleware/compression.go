package middleware

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// ErrInvalidGzipLevel is returned when GzipConfig.Level is out of range.
var ErrInvalidGzipLevel = errors.New("gzip: invalid compression level")

// GzipConfig configures the gzip middleware.
type GzipConfig struct {
	// Level defaults to gzip.DefaultCompression.
	Level int

	// MinLength is the smallest body, in bytes, that gets compressed.
	MinLength int
}

// GzipMiddleware compresses response bodies for clients that accept
// gzip. Responses are buffered in full, which suits generated documents
// and viewer assets; a body shorter than MinLength, an error status or
// an already encoded body is sent as is.
func GzipMiddleware(cfg GzipConfig) (MiddlewareFunc, error) {
	level := cfg.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		return nil, ErrInvalidGzipLevel
	}

	pool := &sync.Pool{
		New: func() any {
			w, _ := gzip.NewWriterLevel(io.Discard, level)
			return w
		},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			gw := &gzipWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(gw, r)
			gw.finish(pool, cfg.MinLength)
		})
	}, nil
}

// acceptsGzip reports whether an Accept-Encoding value allows gzip with
// a non-zero quality, directly or through "*".
func acceptsGzip(header string) bool {
	gzipQ, wildQ := -1.0, -1.0
	for part := range strings.SplitSeq(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		q := 1.0
		if key, val, ok := strings.Cut(strings.TrimSpace(params), "="); ok && strings.TrimSpace(key) == "q" {
			if v, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				q = v
			} else {
				q = 0
			}
		}

		switch strings.ToLower(strings.TrimSpace(name)) {
		case "gzip":
			gzipQ = q
		case "*":
			wildQ = q
		}
	}

	if gzipQ < 0 {
		gzipQ = wildQ
	}
	return gzipQ > 0
}

type gzipWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	buf         []byte
}

func (gw *gzipWriter) WriteHeader(code int) {
	if gw.wroteHeader {
		return
	}
	gw.wroteHeader = true
	gw.status = code
}

func (gw *gzipWriter) Write(b []byte) (int, error) {
	if !gw.wroteHeader {
		gw.WriteHeader(http.StatusOK)
	}
	gw.buf = append(gw.buf, b...)
	return len(b), nil
}

func (gw *gzipWriter) finish(pool *sync.Pool, minLength int) {
	h := gw.Header()
	if len(gw.buf) == 0 || len(gw.buf) < minLength ||
		gw.status >= http.StatusBadRequest || h.Get("Content-Encoding") != "" {
		gw.ResponseWriter.WriteHeader(gw.status)
		_, _ = gw.ResponseWriter.Write(gw.buf)
		return
	}

	h.Set("Content-Encoding", "gzip")
	h.Add("Vary", "Accept-Encoding")
	h.Del("Content-Length")
	gw.ResponseWriter.WriteHeader(gw.status)

	zw := pool.Get().(*gzip.Writer)
	zw.Reset(gw.ResponseWriter)
	_, _ = zw.Write(gw.buf)
	_ = zw.Close()
	pool.Put(zw)
}

// Unwrap returns the underlying ResponseWriter.
func (gw *gzipWriter) Unwrap() http.ResponseWriter {
	return gw.ResponseWriter
}
