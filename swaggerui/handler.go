// Package swaggerui serves generated Swagger documents and a browser
// viewer for them over HTTP.
//
// Routes under the base path (default /api-docs):
//
//	GET <base>               302 to index.html?url=<base>/swagger.json
//	GET <base>/swagger.json  default document
//	GET <base>/<name>.json   document named <name>, case-insensitive
//	GET <base>/<name>.yaml   YAML rendition of the same documents
//	GET <base>/<file>        viewer file, override layers first
package swaggerui

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/vitalvas/svcdoc/middleware"
	"github.com/vitalvas/svcdoc/swagger"
)

// DefaultBasePath is the mount point used when Config.BasePath is empty.
const DefaultBasePath = "/api-docs"

// DefaultDocument is the file name that resolves to the default document.
const DefaultDocument = "swagger"

// ErrNoDocuments is returned when NewHandler is given a nil source.
var ErrNoDocuments = errors.New("swaggerui: document source must not be nil")

// Documents is the read side of a document registry.
type Documents interface {
	Documents() ([]*swagger.Document, error)
	Default() (*swagger.Document, bool)
	Lookup(name string) (*swagger.Document, bool)
}

// Config configures the documentation handler.
type Config struct {
	// BasePath is the mount point. Use "/" to serve from the root.
	BasePath string

	// Static layers are searched in order before the embedded viewer.
	Static []fs.FS

	// CORSOrigins defaults to "*".
	CORSOrigins []string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

type handler struct {
	docs   Documents
	base   string
	static fs.FS
	logger *slog.Logger
}

// NewHandler returns the documentation handler wrapped in the
// middleware chain: recovery, request id, access log, CORS, cache
// control and gzip.
func NewHandler(docs Documents, cfg Config) (http.Handler, error) {
	if docs == nil {
		return nil, ErrNoDocuments
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	base := cfg.BasePath
	if base == "" {
		base = DefaultBasePath
	}
	base = swagger.JoinRoute(base)
	if base == "/" {
		base = ""
	}

	layers := make(Overlay, 0, len(cfg.Static)+1)
	layers = append(layers, cfg.Static...)
	layers = append(layers, Viewer())

	h := &handler{
		docs:   docs,
		base:   base,
		static: noDirFS{fs: layers},
		logger: logger,
	}

	mux := http.NewServeMux()
	if base == "" {
		mux.HandleFunc("GET /{$}", h.redirect)
		mux.HandleFunc("GET /", h.serve)
	} else {
		mux.HandleFunc("GET "+base, h.redirect)
		mux.HandleFunc("GET "+base+"/{$}", h.redirect)
		mux.HandleFunc("GET "+base+"/", h.serve)
	}

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors, err := middleware.CORSMiddleware(middleware.CORSConfig{AllowedOrigins: origins})
	if err != nil {
		return nil, err
	}

	cache, err := middleware.CacheControlMiddleware(middleware.CacheControlConfig{
		Rules: []middleware.CacheRule{
			{ContentType: mimeJSON, Value: "no-cache"},
			{ContentType: mimeYAML, Value: "no-cache"},
			{ContentType: "text/html", Value: "no-cache"},
		},
		Default: "public, max-age=3600",
	})
	if err != nil {
		return nil, err
	}

	gz, err := middleware.GzipMiddleware(middleware.GzipConfig{MinLength: 1024})
	if err != nil {
		return nil, err
	}

	return middleware.Chain(mux,
		middleware.RecoveryMiddleware(middleware.RecoveryConfig{Logger: logger}),
		middleware.RequestIDMiddleware(middleware.RequestIDConfig{}),
		middleware.AccessLogMiddleware(middleware.AccessLogConfig{Logger: logger, Level: slog.LevelDebug}),
		cors,
		cache,
		gz,
	), nil
}

const (
	mimeJSON = "application/json"
	mimeYAML = "application/x-yaml"
)

func (h *handler) redirect(w http.ResponseWriter, r *http.Request) {
	target := h.base + "/index.html?url=" + h.base + "/" + DefaultDocument + ".json"
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *handler) serve(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, h.base+"/")

	switch ext := path.Ext(name); ext {
	case ".json", ".yaml":
		if !strings.Contains(name, "/") && h.serveDocument(w, r, strings.TrimSuffix(name, ext), ext) {
			return
		}
	}

	h.serveStatic(w, r, name)
}

// serveDocument answers with the named document. It returns false when
// no document matches so the request can fall through to static files.
func (h *handler) serveDocument(w http.ResponseWriter, r *http.Request, name, ext string) bool {
	var doc *swagger.Document
	var ok bool
	if strings.EqualFold(name, DefaultDocument) {
		doc, ok = h.docs.Default()
	} else {
		doc, ok = h.docs.Lookup(name)
	}

	if !ok {
		docs, err := h.docs.Documents()
		if err != nil && len(docs) == 0 {
			h.logger.Error("no documents to serve", "path", r.URL.Path, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return true
		}
		return false
	}

	var data []byte
	var err error
	contentType := mimeJSON
	if ext == ".yaml" {
		contentType = mimeYAML
		data, err = swagger.SerializeYAML(doc)
	} else {
		data, err = swagger.Serialize(doc)
	}
	if err != nil {
		h.logger.Error("serialize document", "document", doc.Name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return true
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
	return true
}

func (h *handler) serveStatic(w http.ResponseWriter, r *http.Request, name string) {
	if name == "" || !fs.ValidPath(name) {
		http.NotFound(w, r)
		return
	}

	info, err := fs.Stat(h.static, name)
	if err != nil {
		h.staticError(w, r, err)
		return
	}
	data, err := fs.ReadFile(h.static, name)
	if err != nil {
		h.staticError(w, r, err)
		return
	}

	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(data))
}

func (h *handler) staticError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	h.logger.Error("read static file", "path", r.URL.Path, "error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
