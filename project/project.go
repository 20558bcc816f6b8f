// Package project defines the Project value type: a registered source tree
// identified by its canonicalized absolute root path.
package project

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// CacheDirName is the per-project scratch directory golens writes under the
// project root (docs cache, generated artifacts). The file watcher and the
// language server must never treat writes in here as source changes.
const CacheDirName = ".golens-cache"

// Project identifies one registered source tree. Equality and map keying are
// by Root. Immutable after creation.
type Project struct {
	// Root is the canonicalized absolute path to the project directory.
	Root string

	// IgnoreModules lists dependency module paths excluded from
	// documentation indexing.
	IgnoreModules []string
}

// New validates root, canonicalizes it and returns a Project.
func New(root string) (*Project, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("project root does not exist: %s", root)
		}
		return nil, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root is not a directory: %s", root)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}
	// Resolve symlinks so two spellings of the same directory map to the
	// same registry key.
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize project root: %w", err)
	}

	return &Project{Root: canonical}, nil
}

// Name returns the last path element of the root, used for display.
func (p *Project) Name() string {
	return filepath.Base(p.Root)
}

// CacheDir returns the project-local scratch directory.
func (p *Project) CacheDir() string {
	return filepath.Join(p.Root, CacheDirName)
}

// URI returns the file:// URI of the project root.
func (p *Project) URI() string {
	return pathToURI(p.Root)
}

// FileURI returns the file:// URI for a path relative to the root.
func (p *Project) FileURI(relative string) string {
	return pathToURI(filepath.Join(p.Root, relative))
}

// AbsPath joins a project-relative path onto the root.
func (p *Project) AbsPath(relative string) string {
	return filepath.Join(p.Root, relative)
}

// RelPath converts an absolute path inside the project to a root-relative
// path. Returns an error if the path is outside the project.
func (p *Project) RelPath(absolute string) (string, error) {
	rel, err := filepath.Rel(p.Root, absolute)
	if err != nil {
		return "", fmt.Errorf("path %s is not inside project root %s", absolute, p.Root)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is not inside project root %s", absolute, p.Root)
	}
	return rel, nil
}

// pathToURI converts an OS path to a file:// URI. Windows drive letters get
// a leading slash per RFC 8089.
func pathToURI(path string) string {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}

// URIToPath converts a file:// URI back to an OS path. Non file URIs are
// returned unchanged.
func URIToPath(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	p := u.Path
	// Strip the extra slash before Windows drive letters.
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p)
}
