package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ManifestError signals a malformed or incomplete project manifest: fatal
// at startup.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("project manifest %q: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

// PackageName reads <cwd>/Cargo.toml and returns the package name the
// pipeline needs for naming its loader script and wasm-bindgen output
// stem. A missing manifest or missing package name is a ManifestError.
func PackageName(cwd string) (string, error) {
	path := filepath.Join(cwd, "Cargo.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ManifestError{Path: path, Err: err}
	}
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", &ManifestError{Path: path, Err: err}
	}
	if m.Package.Name == "" {
		return "", &ManifestError{Path: path, Err: fmt.Errorf("missing [package].name")}
	}
	return m.Package.Name, nil
}
