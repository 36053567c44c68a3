package asar

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/meigma/asar/internal/integrity"
	"github.com/meigma/asar/internal/sizing"
)

// Walker is an explicit depth-first cursor over an archive index.
//
// Each call to Next reads one entry. When a folder is reached its children
// are pushed ahead of the pending siblings, so a folder's subtree is
// finished before the walk returns to the folder's own siblings. Names are
// checked as they are reached; the first invalid entry stops the walk and
// is reported by Err without being yielded.
type Walker struct {
	a     *Archive
	stack []walkFrame
	node  Node
	err   error
}

type walkFrame struct {
	parent string
	dir    *jsonObject
	next   int
}

func newWalker(a *Archive, files *jsonObject) *Walker {
	return &Walker{a: a, stack: []walkFrame{{dir: files}}}
}

// Next advances to the next node. It returns false when the walk is
// finished or has failed.
func (w *Walker) Next() bool {
	w.node = nil
	if w.err != nil {
		return false
	}
	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if top.next >= top.dir.len() {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		name, value := top.dir.names[top.next], top.dir.values[top.next]
		top.next++
		parent := top.parent

		if err := checkName(name); err != nil {
			w.err = fmt.Errorf("entry in %q: %w", displayDir(parent), err)
			return false
		}
		p := joinPath(parent, name)
		record, ok := value.(*jsonObject)
		if !ok {
			w.err = fmt.Errorf("%w: %s: entry is not an object", ErrFormat, p)
			return false
		}
		node, children, err := w.classify(p, record)
		if err != nil {
			w.err = err
			return false
		}
		if children != nil {
			w.stack = append(w.stack, walkFrame{parent: p, dir: children})
		}
		w.node = node
		return true
	}
	return false
}

// Node returns the node read by the last successful Next.
func (w *Walker) Node() Node { return w.node }

// Err returns the error that stopped the walk, if any.
func (w *Walker) Err() error { return w.err }

func displayDir(p string) string {
	if p == "" {
		return "."
	}
	return p
}

func (w *Walker) classify(p string, record *jsonObject) (Node, *jsonObject, error) {
	if v, ok := record.get("link"); ok {
		link, ok := v.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s: link is not a string", ErrFormat, p)
		}
		return &Symlink{path: p, Link: link}, nil, nil
	}
	if v, ok := record.get("files"); ok {
		children, ok := v.(*jsonObject)
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s: files is not an object", ErrFormat, p)
		}
		return &Folder{path: p}, children, nil
	}
	f, err := decodeFile(p, record)
	if err != nil {
		return nil, nil, err
	}
	f.archive = w.a
	return f, nil, nil
}

func decodeFile(p string, record *jsonObject) (*File, error) {
	f := &File{path: p}

	v, ok := record.get("size")
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing size", ErrFormat, p)
	}
	size, err := uintValue(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: size %v", ErrFormat, p, v)
	}
	f.Size = size

	v, ok = record.get("offset")
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing offset", ErrFormat, p)
	}
	if s, isString := v.(string); isString {
		f.Offset, err = sizing.ParseOffset(s, ErrFormat)
	} else {
		f.Offset, err = uintValue(v, 64)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: offset %v", ErrFormat, p, v)
	}
	if _, ok := sizing.AddUint64(f.Offset, f.Size); !ok {
		return nil, fmt.Errorf("%w: %s: offset %d + size %d", ErrSizeOverflow, p, f.Offset, f.Size)
	}

	if v, ok := record.get("executable"); ok {
		exec, isBool := v.(bool)
		if !isBool {
			return nil, fmt.Errorf("%w: %s: executable is not a boolean", ErrFormat, p)
		}
		f.Executable = exec
	}

	v, ok = record.get("integrity")
	if !ok {
		return nil, fmt.Errorf("%w: %s: missing integrity", ErrFormat, p)
	}
	in, ok := v.(*jsonObject)
	if !ok {
		return nil, fmt.Errorf("%w: %s: integrity is not an object", ErrFormat, p)
	}
	if f.Integrity, err = decodeIntegrity(in); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return f, nil
}

func decodeIntegrity(record *jsonObject) (Integrity, error) {
	var in Integrity
	var ok bool

	v, _ := record.get("algorithm")
	if in.Algorithm, ok = v.(string); !ok {
		return in, fmt.Errorf("%w: integrity algorithm is not a string", ErrFormat)
	}
	v, _ = record.get("hash")
	if in.Hash, ok = v.(string); !ok {
		return in, fmt.Errorf("%w: integrity hash is not a string", ErrFormat)
	}
	v, _ = record.get("blockSize")
	blockSize, err := uintValue(v, 32)
	if err != nil {
		return in, fmt.Errorf("%w: integrity blockSize %v", ErrFormat, v)
	}
	in.BlockSize = uint32(blockSize)

	if v, present := record.get("blocks"); present {
		list, isList := v.([]any)
		if !isList {
			return in, fmt.Errorf("%w: integrity blocks is not a list", ErrFormat)
		}
		in.Blocks = make([]string, 0, len(list))
		for i, b := range list {
			s, isString := b.(string)
			if !isString {
				return in, fmt.Errorf("%w: integrity block #%d is not a string", ErrFormat, i)
			}
			in.Blocks = append(in.Blocks, s)
		}
	} else {
		in.Blocks = []string{}
	}

	if err := integrity.Validate(&in); err != nil {
		return in, err
	}
	return in, nil
}

// uintValue accepts a JSON number holding a non-negative integer that fits
// in bits.
func uintValue(v any, bits int) (uint64, error) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, ErrFormat
	}
	return strconv.ParseUint(string(n), 10, bits)
}
