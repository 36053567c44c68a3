package asar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// maxIndexDepth bounds nesting in a decoded index.
const maxIndexDepth = 4096

// jsonObject is a decoded JSON object that keeps members in stored order.
// Values are *jsonObject, []any, string, json.Number, bool or nil.
type jsonObject struct {
	names  []string
	values []any
}

func (o *jsonObject) get(name string) (any, bool) {
	for i, n := range o.names {
		if n == name {
			return o.values[i], true
		}
	}
	return nil, false
}

func (o *jsonObject) len() int { return len(o.names) }

// decodeIndex parses the header JSON into an ordered tree. The root must be
// an object with an object-valued "files" member.
func decodeIndex(s string) (*jsonObject, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	v, err := decodeValue(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after index", ErrFormat)
	}
	root, ok := v.(*jsonObject)
	if !ok {
		return nil, fmt.Errorf("%w: index root is not an object", ErrFormat)
	}
	files, ok := root.get("files")
	if !ok {
		return nil, fmt.Errorf("%w: index root has no files", ErrFormat)
	}
	if _, ok := files.(*jsonObject); !ok {
		return nil, fmt.Errorf("%w: index files is not an object", ErrFormat)
	}
	return root, nil
}

func decodeValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, indexSyntaxError(err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	if depth >= maxIndexDepth {
		return nil, fmt.Errorf("%w: index nested deeper than %d", ErrFormat, maxIndexDepth)
	}
	switch delim {
	case '{':
		return decodeObject(dec, depth+1)
	case '[':
		return decodeArray(dec, depth+1)
	default:
		return nil, fmt.Errorf("%w: unexpected %q in index", ErrFormat, delim)
	}
}

func decodeObject(dec *json.Decoder, depth int) (*jsonObject, error) {
	obj := &jsonObject{}
	var seen map[string]struct{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, indexSyntaxError(err)
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: non-string object key in index", ErrFormat)
		}
		if seen == nil {
			seen = make(map[string]struct{})
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q in index", ErrFormat, name)
		}
		seen[name] = struct{}{}

		v, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		obj.names = append(obj.names, name)
		obj.values = append(obj.values, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, indexSyntaxError(err)
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder, depth int) ([]any, error) {
	out := []any{}
	for dec.More() {
		v, err := decodeValue(dec, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, indexSyntaxError(err)
	}
	return out, nil
}

func indexSyntaxError(err error) error {
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: index json ends early", ErrFormat)
	}
	return fmt.Errorf("%w: index json: %v", ErrFormat, err) //nolint:errorlint // syntax errors are not matched on
}

// checkName rejects entry names that could resolve outside their parent.
func checkName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrPathSafety)
	case name == ".", name == "..":
		return fmt.Errorf("%w: name %q", ErrPathSafety, name)
	case strings.HasPrefix(name, ".."):
		return fmt.Errorf("%w: name %q starts with \"..\"", ErrPathSafety, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: name %q contains a separator", ErrPathSafety, name)
	}
	return nil
}

// joinPath appends name to a slash-separated parent path; the root is "".
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// dirRecord is a folder being assembled for writing. Children keep
// insertion order.
type dirRecord struct {
	order    []string
	children map[string]any // *dirRecord, *fileRecord or *linkRecord
}

func newDirRecord() *dirRecord {
	return &dirRecord{children: make(map[string]any)}
}

func (d *dirRecord) add(name string, child any) error {
	if _, dup := d.children[name]; dup {
		return ErrAlreadyExists
	}
	d.order = append(d.order, name)
	d.children[name] = child
	return nil
}

type fileRecord struct {
	Size       uint64    `json:"size"`
	Offset     string    `json:"offset"`
	Executable bool      `json:"executable"`
	Integrity  Integrity `json:"integrity"`
}

type linkRecord struct {
	Link string `json:"link"`
}

// encodeIndex renders root as compact JSON in insertion order. Non-ASCII
// text is written as UTF-8 and HTML characters are not escaped.
func encodeIndex(root *dirRecord) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := writeDir(&buf, enc, root); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func writeDir(buf *bytes.Buffer, enc *json.Encoder, d *dirRecord) error {
	buf.WriteString(`{"files":{`)
	for i, name := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeValue(buf, enc, name); err != nil {
			return err
		}
		buf.WriteByte(':')
		var err error
		switch child := d.children[name].(type) {
		case *dirRecord:
			err = writeDir(buf, enc, child)
		default:
			err = writeValue(buf, enc, child)
		}
		if err != nil {
			return err
		}
	}
	buf.WriteString(`}}`)
	return nil
}

// writeValue appends v without the newline json.Encoder adds.
func writeValue(buf *bytes.Buffer, enc *json.Encoder, v any) error {
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}
