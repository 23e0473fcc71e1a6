package template

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports that a Source has no template for an identifier.
var ErrNotFound = errors.New("template: not found")

// Format identifies the encoding of a raw template.
type Format int

const (
	FormatAuto Format = iota // Sniff the content.
	FormatYAML
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "auto"
	}
}

// Raw is an undecoded template.
type Raw struct {
	ID     string
	Data   []byte
	Format Format
	// Origin describes where the bytes came from (file name, redis key).
	Origin string
}

// Source resolves template identifiers to raw template bytes.
type Source interface {
	Fetch(ctx context.Context, id string) (Raw, error)
}

// DefaultExtensions is the lookup order used by FSSource.
var DefaultExtensions = []string{".yaml", ".yml", ".json"}

// FSSource serves templates stored as <id><ext> files in a file system.
type FSSource struct {
	FS fs.FS
	// Dir is the on-disk directory behind FS, when there is one. It enables
	// change watching.
	Dir string
	// Exts overrides DefaultExtensions.
	Exts []string
}

// DirSource serves templates from a directory on disk.
func DirSource(dir string) *FSSource {
	return &FSSource{FS: os.DirFS(dir), Dir: dir}
}

func (s *FSSource) exts() []string {
	if len(s.Exts) > 0 {
		return s.Exts
	}
	return DefaultExtensions
}

// Fetch reads the first <id><ext> file that exists. Identifiers that would
// escape the directory are reported as not found.
func (s *FSSource) Fetch(ctx context.Context, id string) (Raw, error) {
	if !validID(id) {
		return Raw{}, ErrNotFound
	}
	for _, ext := range s.exts() {
		name := id + ext
		data, err := fs.ReadFile(s.FS, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Raw{}, fmt.Errorf("template: read %s: %w", name, err)
		}
		return Raw{ID: id, Data: data, Format: formatForExt(ext), Origin: name}, nil
	}
	return Raw{}, ErrNotFound
}

// IDForFile maps a file name (absolute or relative to Dir) back to the
// template identifier it serves.
func (s *FSSource) IDForFile(name string) (string, bool) {
	if s.Dir != "" {
		if rel, err := filepath.Rel(s.Dir, name); err == nil && !strings.HasPrefix(rel, "..") {
			name = rel
		}
	}
	if strings.ContainsAny(name, `/\`) {
		return "", false
	}
	for _, ext := range s.exts() {
		if id, ok := strings.CutSuffix(name, ext); ok && validID(id) {
			return id, true
		}
	}
	return "", false
}

func validID(id string) bool {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return false
	}
	return !strings.HasPrefix(id, ".")
}

func formatForExt(ext string) Format {
	switch strings.ToLower(ext) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}
