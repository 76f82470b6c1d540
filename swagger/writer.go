package swagger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Writer is an ordered document writer. Implementations emit fields in
// exactly the order they are written; the document model decides that
// order. Errors are sticky and reported by the implementation once
// writing is finished.
type Writer interface {
	BeginObject()
	EndObject()
	BeginArray()
	EndArray()

	// Name writes the key of the next object member.
	Name(name string)

	// Value writes a scalar, or any value the backend can encode as a
	// self-contained subtree (examples, defaults, enum members).
	Value(v any)
}

// JSONWriter writes compact JSON into a buffer. Bytes returns the
// result indented with two spaces.
type JSONWriter struct {
	buf   bytes.Buffer
	first []bool // per open container: no member written yet
	named bool   // a member name was written and awaits its value
	err   error
}

// NewJSONWriter creates an empty JSON writer.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

func (w *JSONWriter) separate() {
	if w.named {
		w.named = false
		return
	}
	if n := len(w.first); n > 0 {
		if !w.first[n-1] {
			w.buf.WriteByte(',')
		}
		w.first[n-1] = false
	}
}

func (w *JSONWriter) open(b byte) {
	w.separate()
	w.buf.WriteByte(b)
	w.first = append(w.first, true)
}

func (w *JSONWriter) close(b byte) {
	if len(w.first) == 0 {
		w.fail(errors.New("swagger: unbalanced container"))
		return
	}
	w.first = w.first[:len(w.first)-1]
	w.buf.WriteByte(b)
}

func (w *JSONWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// BeginObject implements Writer.
func (w *JSONWriter) BeginObject() { w.open('{') }

// EndObject implements Writer.
func (w *JSONWriter) EndObject() { w.close('}') }

// BeginArray implements Writer.
func (w *JSONWriter) BeginArray() { w.open('[') }

// EndArray implements Writer.
func (w *JSONWriter) EndArray() { w.close(']') }

// Name implements Writer.
func (w *JSONWriter) Name(name string) {
	w.separate()
	w.encode(name)
	w.buf.WriteByte(':')
	w.named = true
}

// Value implements Writer.
func (w *JSONWriter) Value(v any) {
	w.separate()
	w.encode(v)
}

func (w *JSONWriter) encode(v any) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		w.fail(fmt.Errorf("swagger: encode %T: %w", v, err))
		w.buf.WriteString("null")
		return
	}
	w.buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
}

// Bytes returns the written document indented with two spaces.
func (w *JSONWriter) Bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	if len(w.first) != 0 {
		return nil, errors.New("swagger: unterminated container")
	}
	var out bytes.Buffer
	if err := json.Indent(&out, w.buf.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("swagger: indent: %w", err)
	}
	return out.Bytes(), nil
}

// YAMLWriter builds a yaml.v3 node tree, preserving write order.
type YAMLWriter struct {
	root  *yaml.Node
	stack []*yaml.Node
	key   *yaml.Node
	err   error
}

// NewYAMLWriter creates an empty YAML writer.
func NewYAMLWriter() *YAMLWriter {
	return &YAMLWriter{}
}

func (w *YAMLWriter) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

func (w *YAMLWriter) attach(n *yaml.Node) {
	if len(w.stack) == 0 {
		if w.root != nil {
			w.fail(errors.New("swagger: multiple root values"))
			return
		}
		w.root = n
		return
	}

	parent := w.stack[len(w.stack)-1]
	if parent.Kind == yaml.MappingNode {
		if w.key == nil {
			w.fail(errors.New("swagger: object member without name"))
			return
		}
		parent.Content = append(parent.Content, w.key, n)
		w.key = nil
		return
	}
	parent.Content = append(parent.Content, n)
}

func (w *YAMLWriter) open(kind yaml.Kind) {
	n := &yaml.Node{Kind: kind}
	w.attach(n)
	w.stack = append(w.stack, n)
}

func (w *YAMLWriter) close() {
	if len(w.stack) == 0 {
		w.fail(errors.New("swagger: unbalanced container"))
		return
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// BeginObject implements Writer.
func (w *YAMLWriter) BeginObject() { w.open(yaml.MappingNode) }

// EndObject implements Writer.
func (w *YAMLWriter) EndObject() { w.close() }

// BeginArray implements Writer.
func (w *YAMLWriter) BeginArray() { w.open(yaml.SequenceNode) }

// EndArray implements Writer.
func (w *YAMLWriter) EndArray() { w.close() }

// Name implements Writer.
func (w *YAMLWriter) Name(name string) {
	w.key = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}
}

// Value implements Writer.
func (w *YAMLWriter) Value(v any) {
	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		w.fail(fmt.Errorf("swagger: encode %T: %w", v, err))
		return
	}
	w.attach(n)
}

// Node returns the root of the written tree.
func (w *YAMLWriter) Node() (*yaml.Node, error) {
	if w.err != nil {
		return nil, w.err
	}
	if len(w.stack) != 0 {
		return nil, errors.New("swagger: unterminated container")
	}
	return w.root, nil
}
