// Package registry caches the documents of a process behind a one-time
// build gate.
package registry

import (
	"strings"
	"sync"

	"github.com/vitalvas/svcdoc/discovery"
	"github.com/vitalvas/svcdoc/swagger"
)

// BuildFunc produces the documents of the process. It may return
// documents together with an error describing services it left out.
type BuildFunc func() ([]*swagger.Document, error)

// Observer is notified with the built documents.
type Observer func(docs []*swagger.Document)

// Registry builds documents once and serves them for the lifetime of the
// process. It is safe for concurrent use; concurrent first callers block
// until the single build finishes.
type Registry struct {
	build BuildFunc
	once  sync.Once

	mu        sync.RWMutex
	built     bool
	docs      []*swagger.Document
	err       error
	observers []Observer
}

// New creates a registry around build.
func New(build BuildFunc) *Registry {
	return &Registry{build: build}
}

// NewFromSource creates a registry that runs discovery.BuildAll over src.
func NewFromSource(src discovery.Source, opts discovery.Options) *Registry {
	return New(func() ([]*swagger.Document, error) {
		return discovery.BuildAll(src, opts)
	})
}

func (r *Registry) run() {
	docs, err := r.build()

	r.mu.Lock()
	r.built = true
	r.docs = docs
	r.err = err
	observers := r.observers
	r.observers = nil
	r.mu.Unlock()

	if len(docs) == 0 {
		return
	}
	for _, o := range observers {
		o(docs)
	}
}

// Documents returns the built documents, building them on first use.
// The build error, if any, is returned on every call next to the
// documents that did build.
func (r *Registry) Documents() ([]*swagger.Document, error) {
	r.once.Do(r.run)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*swagger.Document, len(r.docs))
	copy(out, r.docs)
	return out, r.err
}

// Err returns the build error without triggering a build.
func (r *Registry) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.err
}

// OnBuilt registers an observer notified once after the build produced
// at least one document, including a partial build; Err tells the two
// apart. When the build already happened the observer runs
// immediately. A build without documents never notifies.
func (r *Registry) OnBuilt(o Observer) {
	r.mu.Lock()
	if !r.built {
		r.observers = append(r.observers, o)
		r.mu.Unlock()
		return
	}
	docs := r.docs
	r.mu.Unlock()

	if len(docs) > 0 {
		o(docs)
	}
}

// Lookup returns the document whose name matches name, ignoring case.
func (r *Registry) Lookup(name string) (*swagger.Document, bool) {
	docs, _ := r.Documents()
	for _, doc := range docs {
		if strings.EqualFold(doc.Name, name) {
			return doc, true
		}
	}
	return nil, false
}

// Default returns the first document.
func (r *Registry) Default() (*swagger.Document, bool) {
	docs, _ := r.Documents()
	if len(docs) == 0 {
		return nil, false
	}
	return docs[0], true
}

// Configure replaces the Info of every cached document. Documents are
// copied, never modified, so readers holding a previous document keep
// a consistent value. The last caller wins.
func (r *Registry) Configure(info *swagger.Info) {
	r.once.Do(r.run)

	r.mu.Lock()
	defer r.mu.Unlock()

	docs := make([]*swagger.Document, len(r.docs))
	for i, doc := range r.docs {
		docs[i] = doc.WithInfo(info)
	}
	r.docs = docs
}
