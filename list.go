package asar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ListFormat selects how List renders entries.
type ListFormat string

// Listing formats.
const (
	// ListShort prints one path per line.
	ListShort ListFormat = "short"
	// ListVerbose prints a table with type, digest, executable flag and size.
	ListVerbose ListFormat = "verbose"
	// ListJSON prints a JSON array with one compact object per line.
	ListJSON ListFormat = "json"
	// ListPrettyJSON prints an indented JSON array.
	ListPrettyJSON ListFormat = "pretty-json"
)

// ListFormats lists every supported format.
var ListFormats = []ListFormat{ListShort, ListVerbose, ListJSON, ListPrettyJSON}

// ParseListFormat converts a format name to a ListFormat.
func ParseListFormat(s string) (ListFormat, error) {
	for _, f := range ListFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown list format %q", ErrFormat, s)
}

// ListOption configures List.
type ListOption func(*listConfig)

type listConfig struct {
	humanSizes bool
}

// ListWithHumanSizes renders verbose sizes in IEC units instead of bytes.
func ListWithHumanSizes(enabled bool) ListOption {
	return func(c *listConfig) {
		c.humanSizes = enabled
	}
}

const (
	verboseTypeWidth = 93
	hashWidth        = 64
	execWidth        = 10
	sizeWidth        = 12
)

// List writes every entry of a to w in the given format.
//
// The JSON formats describe each entry by path and, for files, size,
// executable flag and whole-file digest; offsets and block digests are
// left out.
func List(w io.Writer, a *Archive, format ListFormat, opts ...ListOption) error {
	var cfg listConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &listRenderer{w: w, format: format, cfg: cfg}
	if err := r.start(); err != nil {
		return err
	}
	for node, err := range a.All() {
		if err != nil {
			return err
		}
		if err := node.Accept(r); err != nil {
			return err
		}
		r.count++
	}
	return r.end()
}

type listRenderer struct {
	w      io.Writer
	format ListFormat
	cfg    listConfig
	count  int
}

type listIntegrity struct {
	Algorithm string `json:"algorithm"`
	Hash      string `json:"hash"`
}

type listFolder struct {
	Path string `json:"fullpath"`
}

type listSymlink struct {
	Path string `json:"fullpath"`
	Link string `json:"link"`
}

type listFile struct {
	Path       string        `json:"fullpath"`
	Size       uint64        `json:"size"`
	Executable bool          `json:"executable"`
	Integrity  listIntegrity `json:"integrity"`
}

func (r *listRenderer) start() error {
	switch r.format {
	case ListShort:
		return nil
	case ListVerbose:
		_, err := fmt.Fprintf(r.w, "%s %s %s %s %s\n%s %s %s %s %s\n",
			"Type", pad("SHA-256", hashWidth), "Executable", lpad("Size", sizeWidth), "Name",
			"----", pad("-------", hashWidth), "----------", lpad("----", sizeWidth), "----")
		return err
	case ListJSON:
		_, err := io.WriteString(r.w, "[")
		return err
	case ListPrettyJSON:
		_, err := io.WriteString(r.w, "[\n")
		return err
	default:
		return fmt.Errorf("unknown list format %q", r.format)
	}
}

func (r *listRenderer) end() error {
	switch r.format {
	case ListJSON, ListPrettyJSON:
		_, err := io.WriteString(r.w, "]\n")
		return err
	default:
		return nil
	}
}

func (r *listRenderer) VisitFolder(d *Folder) error {
	switch r.format {
	case ListShort:
		return r.line(d.Path() + "/")
	case ListVerbose:
		return r.line(pad("DIR", verboseTypeWidth) + " " + d.Path() + "/")
	default:
		return r.writeJSON(listFolder{Path: d.Path()})
	}
}

func (r *listRenderer) VisitSymlink(l *Symlink) error {
	switch r.format {
	case ListShort:
		return r.line(l.Path() + " -> " + l.Link)
	case ListVerbose:
		return r.line(pad("LINK", verboseTypeWidth) + " " + l.Path() + " -> " + l.Link)
	default:
		return r.writeJSON(listSymlink{Path: l.Path(), Link: l.Link})
	}
}

func (r *listRenderer) VisitFile(f *File) error {
	switch r.format {
	case ListShort:
		return r.line(f.Path())
	case ListVerbose:
		size := strconv.FormatUint(f.Size, 10)
		if r.cfg.humanSizes {
			size = humanize.IBytes(f.Size)
		}
		return r.line(strings.Join([]string{
			"FILE",
			f.Integrity.Hash,
			pad(strconv.FormatBool(f.Executable), execWidth),
			lpad(size, sizeWidth),
			f.Path(),
		}, " "))
	default:
		return r.writeJSON(listFile{
			Path:       f.Path(),
			Size:       f.Size,
			Executable: f.Executable,
			Integrity:  listIntegrity{Algorithm: f.Integrity.Algorithm, Hash: f.Integrity.Hash},
		})
	}
}

func (r *listRenderer) line(s string) error {
	_, err := io.WriteString(r.w, s+"\n")
	return err
}

func (r *listRenderer) writeJSON(v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if r.format == ListPrettyJSON {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return err
	}
	body := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	var out bytes.Buffer
	if r.count > 0 {
		out.WriteByte(',')
		if r.format == ListPrettyJSON {
			out.WriteByte('\n')
		}
	}
	if r.format == ListJSON {
		out.WriteString("  ")
	}
	out.Write(body)
	_, err := r.w.Write(out.Bytes())
	return err
}

// pad left-aligns s in a field of width runes.
func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

// lpad right-aligns s in a field of width runes.
func lpad(s string, width int) string {
	return fmt.Sprintf("%*s", width, s)
}
