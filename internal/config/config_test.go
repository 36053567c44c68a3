package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadFormats(t *testing.T) {
	t.Parallel()

	want := Config{
		Pack:     Pack{ExcludeHidden: true, BlockSize: 1024},
		List:     List{Format: "verbose", Human: true},
		Extract:  Extract{Quiet: true},
		Registry: Registry{PlainHTTP: true, Username: "bob"},
	}

	files := fstest.MapFS{
		"asar.toml": {Data: []byte(`
[pack]
exclude-hidden = true
block-size = 1024

[list]
format = "verbose"
human = true

[extract]
quiet = true

[registry]
plain-http = true
username = "bob"
`)},
		"asar.yaml": {Data: []byte(`
pack:
  exclude-hidden: true
  block-size: 1024
list:
  format: verbose
  human: true
extract:
  quiet: true
registry:
  plain-http: true
  username: bob
`)},
		"asar.json": {Data: []byte(`{
  "pack": {"exclude-hidden": true, "block-size": 1024},
  "list": {"format": "verbose", "human": true},
  "extract": {"quiet": true},
  "registry": {"plain-http": true, "username": "bob"}
}`)},
	}

	for _, name := range []string{"asar.toml", "asar.yaml", "asar.json"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := LoadFS(files, name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	t.Parallel()

	got, err := Load([]byte("[pack]\nforce = true\n"), toml.Unmarshal)
	require.NoError(t, err)
	assert.True(t, got.Pack.Force)
	assert.Equal(t, "short", got.List.Format)
}

func TestLoadEmptyDocument(t *testing.T) {
	t.Parallel()

	for _, decode := range []Decoder{toml.Unmarshal, yaml.Unmarshal} {
		got, err := Load(nil, decode)
		require.NoError(t, err)
		assert.Equal(t, Default(), got)
	}
	got, err := Load([]byte("null"), json.Unmarshal)
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		data string
	}{
		{"unknown key", "a.yaml", "pack:\n  compress: true\n"},
		{"unknown section", "a.json", `{"server": {}}`},
		{"negative block size", "a.toml", "[pack]\nblock-size = -1\n"},
		{"wrong type", "a.json", `{"list": {"human": "yes"}}`},
		{"syntax", "a.toml", "[pack\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadFS(fstest.MapFS{tt.file: {Data: []byte(tt.data)}}, tt.file)
			require.Error(t, err)
		})
	}
}

func TestDecoderFor(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"a.toml", "a.tml", "a.yaml", "a.yml", "a.json"} {
		_, err := DecoderFor(name)
		require.NoError(t, err, name)
	}
	_, err := DecoderFor("a.ini")
	require.ErrorIs(t, err, ErrUnknownFormat)
	_, err = DecoderFor("asarrc")
	require.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "asar.yml")
	require.NoError(t, os.WriteFile(path, []byte("list:\n  format: json\n"), 0o644))
	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", got.List.Format)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
