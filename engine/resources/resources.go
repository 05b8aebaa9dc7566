// Package resources resolves asset names against an asset root and reads them,
// transparently decompressing LZ4-framed copies stored as "<name>.lz4".
package resources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pierrec/lz4/v4"
)

// lz4Suffix marks an LZ4 frame-compressed asset.
const lz4Suffix = ".lz4"

// Resolver maps asset names onto files under a root directory.
type Resolver interface {
	// Root returns the directory every asset name is resolved against.
	//
	// Returns:
	//   - string: the asset root
	Root() string

	// Path joins name onto the asset root. Absolute names are returned unchanged.
	//
	// Parameters:
	//   - name: the asset name, e.g. "cube.obj"
	//
	// Returns:
	//   - string: the resolved file path
	Path(name string) string

	// LoadBinary reads the named asset. If the plain file is missing and an LZ4-compressed
	// sibling exists, the sibling is decompressed instead.
	//
	// Parameters:
	//   - name: the asset name
	//
	// Returns:
	//   - []byte: the asset contents
	//   - error: wraps fs.ErrNotExist when neither form exists
	LoadBinary(name string) ([]byte, error)

	// LoadString reads the named asset as text.
	//
	// Parameters:
	//   - name: the asset name
	//
	// Returns:
	//   - string: the asset contents
	//   - error: see LoadBinary
	LoadString(name string) (string, error)

	// Exists reports whether the asset can be loaded in either form.
	//
	// Parameters:
	//   - name: the asset name
	//
	// Returns:
	//   - bool: true if LoadBinary would find a file
	Exists(name string) bool
}

type resolver struct {
	root string
}

var _ Resolver = &resolver{}

// NewResolver creates a Resolver rooted at dir. A relative dir is resolved against the
// directory of the running executable first and the working directory second, so examples
// work both from `go run` and from an installed binary.
//
// Parameters:
//   - dir: the asset directory
//
// Returns:
//   - Resolver: the resolver
func NewResolver(dir string) Resolver {
	if filepath.IsAbs(dir) {
		return &resolver{root: dir}
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), dir)
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() {
			return &resolver{root: candidate}
		}
	}
	return &resolver{root: dir}
}

func (r *resolver) Root() string {
	return r.root
}

func (r *resolver) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(r.root, name)
}

func (r *resolver) LoadBinary(name string) ([]byte, error) {
	path := r.Path(name)
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
	}

	compressed, lzErr := os.ReadFile(path + lz4Suffix)
	if lzErr != nil {
		if errors.Is(lzErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("asset %s not found under %s: %w", name, r.root, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read asset %s%s: %w", name, lz4Suffix, lzErr)
	}
	out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(compressed)))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress asset %s%s: %w", name, lz4Suffix, err)
	}
	return out, nil
}

func (r *resolver) LoadString(name string) (string, error) {
	data, err := r.LoadBinary(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (r *resolver) Exists(name string) bool {
	path := r.Path(name)
	if _, err := os.Stat(path); err == nil {
		return true
	}
	_, err := os.Stat(path + lz4Suffix)
	return err == nil
}
