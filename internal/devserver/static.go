// Package devserver serves the built CSR/SSR output over HTTP, including
// the SPA/public-dir fallback chain, precompressed-variant negotiation, and
// (SSR) the backend reverse proxy.
package devserver

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// precompressedVariants lists the suffix and Content-Encoding value for
// each supported precompressed variant, in preference order (best
// compression ratio first).
var precompressedVariants = []struct {
	suffix   string
	encoding string
}{
	{".br", "br"},
	{".zst", "zstd"},
	{".gz", "gzip"},
	{".zz", "deflate"},
}

// serveFileWithVariants serves absPath, substituting a precompressed
// sibling file when the client's Accept-Encoding allows it and the sibling
// exists on disk.
func serveFileWithVariants(w http.ResponseWriter, r *http.Request, absPath string) {
	accepted := acceptedEncodings(r.Header.Get("Accept-Encoding"))
	for _, v := range precompressedVariants {
		if !accepted[v.encoding] {
			continue
		}
		candidate := absPath + v.suffix
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			serveVariant(w, r, absPath, candidate, v.encoding, info)
			return
		}
	}
	http.ServeFile(w, r, absPath)
}

// serveVariant serves the precompressed file at candidatePath in place of
// originalPath, setting Content-Type from originalPath's extension rather
// than candidatePath's (".gz"/".br"/... would otherwise win the sniff).
func serveVariant(w http.ResponseWriter, r *http.Request, originalPath, candidatePath, encoding string, info os.FileInfo) {
	f, err := os.Open(candidatePath)
	if err != nil {
		http.ServeFile(w, r, originalPath)
		return
	}
	defer f.Close()

	if ctype := mime.TypeByExtension(filepath.Ext(originalPath)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.Header().Set("Content-Encoding", encoding)
	w.Header().Set("Vary", "Accept-Encoding")
	http.ServeContent(w, r, filepath.Base(originalPath), info.ModTime(), f)
}

func acceptedEncodings(header string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(header, ",") {
		enc := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if enc != "" {
			out[enc] = true
		}
	}
	return out
}

// fileExists reports whether path names a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// resolveUnderRoot joins root and the URL path, rejecting any result that
// escapes root (defense against "../" traversal through the request path).
func resolveUnderRoot(root, urlPath string) (string, bool) {
	cleaned := filepath.Clean("/" + urlPath)
	full := filepath.Join(root, cleaned)
	if !strings.HasPrefix(full, filepath.Clean(root)+string(filepath.Separator)) && full != filepath.Clean(root) {
		return "", false
	}
	return full, true
}
