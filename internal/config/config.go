// Package config loads the defaults file read by the asar command.
//
// The file may be TOML, YAML, or JSON, chosen by extension. Keys are
// kebab-case in every format. Command-line flags override file values.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for files whose extension has no decoder.
var ErrUnknownFormat = errors.New("config: unknown file type")

// Config holds command defaults.
type Config struct {
	Pack     Pack     `json:"pack"`
	List     List     `json:"list"`
	Extract  Extract  `json:"extract"`
	Registry Registry `json:"registry"`
}

// Pack holds defaults for the pack command.
type Pack struct {
	ExcludeHidden bool   `json:"exclude-hidden"`
	BlockSize     uint32 `json:"block-size"`
	Force         bool   `json:"force"`
}

// List holds defaults for the list command.
type List struct {
	Format string `json:"format"`
	Human  bool   `json:"human"`
}

// Extract holds defaults for the extract command.
type Extract struct {
	Quiet bool `json:"quiet"`
}

// Registry holds connection settings for push and pull.
type Registry struct {
	PlainHTTP bool   `json:"plain-http"`
	Anonymous bool   `json:"anonymous"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Token     string `json:"token"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		List: List{Format: "short"},
	}
}

// Decoder unmarshals a document into v.
type Decoder func(data []byte, v any) error

// DecoderFor returns the decoder for a file name's extension.
func DecoderFor(file string) (Decoder, error) {
	switch ext := filepath.Ext(file); ext {
	case ".toml", ".tml":
		return toml.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	case ".json":
		return json.Unmarshal, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, ext)
	}
}

// LoadFile reads file from the working directory.
func LoadFile(file string) (Config, error) {
	return LoadFS(os.DirFS(filepath.Dir(file)), filepath.Base(file))
}

// LoadFS reads file from fsys, starting from Default.
func LoadFS(fsys fs.FS, file string) (Config, error) {
	decode, err := DecoderFor(file)
	if err != nil {
		return Config{}, err
	}
	b, err := fs.ReadFile(fsys, file)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Load(b, decode)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", file, err)
	}
	return cfg, nil
}

// Load decodes b with decode and overlays it on Default.
//
// The document is normalised through JSON so that every format shares the
// same key names and the same unknown-key check.
func Load(b []byte, decode Decoder) (Config, error) {
	var v any
	if err := decode(b, &v); err != nil {
		return Config{}, err
	}
	cfg := Default()
	if v == nil {
		return cfg, nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return Config{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
