package pipeline

import (
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/thaw-dev/thaw-cli/internal/logging"
	"github.com/thaw-dev/thaw-cli/internal/manifest"
)

// ExtractedAsset is one (absolute_source_path, bundled_path, options) triple
// yielded by the asset-extraction routine. The routine itself is external to
// the pipeline (it inspects the compiled crate's metadata), so
// ExtractedAsset is the seam the pipeline consumes.
type ExtractedAsset struct {
	SourcePath   string
	BundledPath  string // logical path under the assets dir, e.g. "css/app.css"
	Rewrite      bool   // true for CSS/JS: rewrite internal references to versioned paths
}

// Extractor yields the assets a compiled build declared. Implementations
// read crate-specific metadata (e.g. an asset-registration macro's output);
// the pipeline only needs the resulting triples.
type Extractor interface {
	Extract() ([]ExtractedAsset, error)
}

// ProcessAssets copies every extracted asset into destDir, rewriting CSS/JS
// internal references to their versioned bundled paths, hashes each output,
// and returns the resulting manifest.
//
// A missing or unreadable source is never silently dropped: each is skipped
// with a warning line sent to logger, and the rest of the build proceeds.
func ProcessAssets(extracted []ExtractedAsset, destDir string, logger chan<- logging.Message) (*manifest.Manifest, error) {
	contents := make(map[string][]byte, len(extracted))
	var live []ExtractedAsset

	for _, a := range extracted {
		info, err := os.Stat(a.SourcePath)
		if err != nil {
			logging.Send(logger, logging.Message{Kind: logging.KindWarning, Text: "asset source missing: " + a.SourcePath, Err: err})
			continue
		}
		if info.IsDir() {
			logging.Send(logger, logging.Message{Kind: logging.KindWarning, Text: "asset source is a directory: " + a.SourcePath})
			continue
		}
		data, err := os.ReadFile(a.SourcePath)
		if err != nil {
			logging.Send(logger, logging.Message{Kind: logging.KindWarning, Text: "asset source unreadable: " + a.SourcePath, Err: err})
			continue
		}
		contents[a.BundledPath] = data
		live = append(live, a)
	}

	resolved := make(map[string]string, len(live)) // logical bundled path ("/css/app.css") -> versioned path
	for _, a := range live {
		if a.Rewrite {
			continue
		}
		resolved["/"+a.BundledPath] = "/" + versionedPath(a.BundledPath, contents[a.BundledPath])
	}
	resolve := func(logicalPath string) string { return resolved[logicalPath] }

	for _, a := range live {
		if !a.Rewrite {
			continue
		}
		transformed := transformAsset(a.BundledPath, contents[a.BundledPath], resolve)
		contents[a.BundledPath] = transformed
		resolved["/"+a.BundledPath] = "/" + versionedPath(a.BundledPath, transformed)
	}

	manifestAssets := make([]manifest.Asset, 0, len(live))
	for _, a := range live {
		versioned := strings.TrimPrefix(resolved["/"+a.BundledPath], "/")
		dest := filepath.Join(destDir, filepath.FromSlash(versioned))
		if err := writeAsset(dest, contents[a.BundledPath]); err != nil {
			return nil, &BuildStageError{Stage: "asset-extract", Err: err}
		}
		manifestAssets = append(manifestAssets, manifest.Asset{
			SourcePath: a.SourcePath,
			OutputPath: versioned,
		})
	}

	return manifest.New(manifestAssets), nil
}

// versionedPath content-hashes data with FNV-1a and inserts the hash before
// the extension, the same content-addressing scheme assetmgr's Manager uses
// for cache-busted asset URLs.
func versionedPath(bundledPath string, data []byte) string {
	h := fnv.New64a()
	h.Write(data)
	sum := fmt.Sprintf("%x", h.Sum64())[:10]
	ext := filepath.Ext(bundledPath)
	base := strings.TrimSuffix(bundledPath, ext)
	return fmt.Sprintf("%s.%s%s", base, sum, ext)
}

// Reprocess reimplements one asset's per-file transform in isolation, for
// the asset-only incremental rebuild path: deletes the previous output and
// writes a freshly transformed, freshly hashed copy.
// Cross-asset references inside CSS/JS that point at other bundled assets
// are left unresolved here (this path never changes their hashes), which
// is the one simplification incremental asset rebuilds make versus a full
// extraction pass.
func Reprocess(a manifest.Asset, destDir string) (manifest.Asset, error) {
	oldDest := filepath.Join(destDir, filepath.FromSlash(a.OutputPath))
	_ = os.Remove(oldDest)

	data, err := os.ReadFile(a.SourcePath)
	if err != nil {
		return manifest.Asset{}, &BuildStageError{Stage: "asset-reprocess", Err: err}
	}

	logicalPath := stripHashFromOutputPath(a.OutputPath)
	transformed := transformAsset(logicalPath, data, func(string) string { return "" })
	newOutput := versionedPath(logicalPath, transformed)

	if err := writeAsset(filepath.Join(destDir, filepath.FromSlash(newOutput)), transformed); err != nil {
		return manifest.Asset{}, &BuildStageError{Stage: "asset-reprocess", Err: err}
	}

	return manifest.Asset{SourcePath: a.SourcePath, OutputPath: newOutput, Options: a.Options}, nil
}

// stripHashFromOutputPath reverses versionedPath's "insert hash before
// extension" scheme, recovering the logical bundled path.
func stripHashFromOutputPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	withoutExt := strings.TrimSuffix(outputPath, ext)
	hashExt := filepath.Ext(withoutExt)
	if hashExt == "" {
		return outputPath
	}
	return strings.TrimSuffix(withoutExt, hashExt) + ext
}

func writeAsset(dest string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

// transformAsset rewrites CSS url()/@import and JS import/export/dynamic
// import references in-place; anything else passes through unchanged.
func transformAsset(bundledPath string, data []byte, resolve func(string) string) []byte {
	switch strings.ToLower(filepath.Ext(bundledPath)) {
	case ".css":
		return transformCSS(data, "/"+bundledPath, resolve)
	case ".js", ".mjs", ".jsx", ".ts", ".tsx":
		return transformJS(data, "/"+bundledPath, resolve)
	default:
		return data
	}
}

// CSS patterns for url() and @import. Go's regexp has no backreferences, so
// each quote style is matched with its own pattern.
var (
	cssURLDoubleQuote = regexp.MustCompile(`url\(\s*"([^"]+)"\s*\)`)
	cssURLSingleQuote = regexp.MustCompile(`url\(\s*'([^']+)'\s*\)`)
	cssURLNoQuote     = regexp.MustCompile(`url\(\s*([^"')\s][^)\s]*)\s*\)`)

	cssImportDoubleQuote = regexp.MustCompile(`@import\s+"([^"]+)"`)
	cssImportSingleQuote = regexp.MustCompile(`@import\s+'([^']+)'`)
)

// JS patterns for static imports, re-exports, and dynamic imports.
var (
	jsImportDoubleQuote = regexp.MustCompile(`(\bimport\s+(?:[^"']*\s+from\s+)?)"([^"]+)"`)
	jsImportSingleQuote = regexp.MustCompile(`(\bimport\s+(?:[^"']*\s+from\s+)?)'([^']+)'`)

	jsExportDoubleQuote = regexp.MustCompile(`(\bexport\s+[^"']*\s+from\s+)"([^"]+)"`)
	jsExportSingleQuote = regexp.MustCompile(`(\bexport\s+[^"']*\s+from\s+)'([^']+)'`)

	jsDynamicImportDoubleQuote = regexp.MustCompile(`(\bimport\s*\(\s*)"([^"]+)"(\s*\))`)
	jsDynamicImportSingleQuote = regexp.MustCompile(`(\bimport\s*\(\s*)'([^']+)'(\s*\))`)
)

func transformCSS(content []byte, assetPath string, resolve func(string) string) []byte {
	result := content

	rewriteURL := func(urlPath, quote string) string {
		if shouldSkipAssetPath(urlPath) {
			return ""
		}
		if resolved := resolveAssetPath(assetPath, urlPath, resolve); resolved != "" {
			return "url(" + quote + resolved + quote + ")"
		}
		return ""
	}
	for _, re := range []*regexp.Regexp{cssURLDoubleQuote, cssURLSingleQuote, cssURLNoQuote} {
		quote := map[*regexp.Regexp]string{cssURLDoubleQuote: `"`, cssURLSingleQuote: "'", cssURLNoQuote: ""}[re]
		result = re.ReplaceAllFunc(result, func(match []byte) []byte {
			sub := re.FindSubmatch(match)
			if len(sub) < 2 {
				return match
			}
			if rewritten := rewriteURL(string(sub[1]), quote); rewritten != "" {
				return []byte(rewritten)
			}
			return match
		})
	}

	rewriteImport := func(importPath, quote string) string {
		if shouldSkipAssetPath(importPath) {
			return ""
		}
		if resolved := resolveAssetPath(assetPath, importPath, resolve); resolved != "" {
			return "@import " + quote + resolved + quote
		}
		return ""
	}
	for _, re := range []*regexp.Regexp{cssImportDoubleQuote, cssImportSingleQuote} {
		quote := map[*regexp.Regexp]string{cssImportDoubleQuote: `"`, cssImportSingleQuote: "'"}[re]
		result = re.ReplaceAllFunc(result, func(match []byte) []byte {
			sub := re.FindSubmatch(match)
			if len(sub) < 2 {
				return match
			}
			if rewritten := rewriteImport(string(sub[1]), quote); rewritten != "" {
				return []byte(rewritten)
			}
			return match
		})
	}

	return result
}

func transformJS(content []byte, assetPath string, resolve func(string) string) []byte {
	result := content

	rewritePath := func(importPath string) string {
		if shouldSkipJSAssetPath(importPath) {
			return ""
		}
		return resolveAssetPath(assetPath, importPath, resolve)
	}

	threeGroup := func(re *regexp.Regexp, quote string) {
		result = re.ReplaceAllFunc(result, func(match []byte) []byte {
			sub := re.FindSubmatch(match)
			if len(sub) < 3 {
				return match
			}
			prefix, importPath := string(sub[1]), string(sub[2])
			if resolved := rewritePath(importPath); resolved != "" {
				return []byte(prefix + quote + resolved + quote)
			}
			return match
		})
	}
	threeGroup(jsImportDoubleQuote, `"`)
	threeGroup(jsImportSingleQuote, "'")
	threeGroup(jsExportDoubleQuote, `"`)
	threeGroup(jsExportSingleQuote, "'")

	fourGroup := func(re *regexp.Regexp, quote string) {
		result = re.ReplaceAllFunc(result, func(match []byte) []byte {
			sub := re.FindSubmatch(match)
			if len(sub) < 4 {
				return match
			}
			prefix, importPath, suffix := string(sub[1]), string(sub[2]), string(sub[3])
			if resolved := rewritePath(importPath); resolved != "" {
				return []byte(prefix + quote + resolved + quote + suffix)
			}
			return match
		})
	}
	fourGroup(jsDynamicImportDoubleQuote, `"`)
	fourGroup(jsDynamicImportSingleQuote, "'")

	return result
}

func shouldSkipAssetPath(p string) bool {
	if strings.HasPrefix(p, "data:") {
		return true
	}
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "//") {
		return true
	}
	return strings.HasPrefix(p, "#")
}

func shouldSkipJSAssetPath(p string) bool {
	if shouldSkipAssetPath(p) {
		return true
	}
	return !strings.HasPrefix(p, "./") && !strings.HasPrefix(p, "../") && !strings.HasPrefix(p, "/")
}

func resolveAssetPath(assetPath, relativePath string, resolve func(string) string) string {
	var logicalPath string
	if strings.HasPrefix(relativePath, "/") {
		logicalPath = relativePath
	} else {
		logicalPath = path.Clean(path.Join(path.Dir(assetPath), relativePath))
	}
	return resolve(logicalPath)
}

// copyFile is used by the artifact-layout stage to copy the server
// executable and public-dir passthrough files.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
