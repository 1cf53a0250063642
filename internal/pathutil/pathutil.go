// Package pathutil provides the path manipulation and shell/build-file
// escaping helpers; the path helpers are used by the dependency resolver
// and the build graph: joining, making paths absolute or relative, splitting
// basename/extension, and subpath containment checks, all built on
// path/filepath the way the teacher's build step machinery does
// (internal/build/build.go uses filepath.Join/Rel/Dir/Base throughout
// rather than a path-handling library).
package pathutil

import (
	"path/filepath"
	"strings"
)

// Join joins path elements using the host's separator, collapsing
// "." and ".." the way filepath.Join does.
func Join(elems ...string) string {
	return filepath.Join(elems...)
}

// MakeAbsolute returns path made absolute against base if it is not
// already absolute. Unlike filepath.Abs, base is an explicit argument
// rather than the process's current directory, since Meson resolves
// relative paths against the source or build root, never against the
// invoking shell's cwd.
func MakeAbsolute(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(base, path))
}

// RelativeTo returns path expressed relative to base, using '/' as the
// separator regardless of host OS since relative paths cross into
// generated Ninja files and wrap-provided subdirectory names.
func RelativeTo(base, path string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Dirname returns the directory portion of path, like filepath.Dir.
func Dirname(path string) string {
	return filepath.Dir(path)
}

// Basename returns the final path element, like filepath.Base.
func Basename(path string) string {
	return filepath.Base(path)
}

// WithoutExt returns path's final element with its extension (the
// portion from the last '.' in the basename, if any) removed.
func WithoutExt(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext)
}

// Ext returns path's extension including the leading '.', or "" if the
// basename has none.
func Ext(path string) string {
	return filepath.Ext(path)
}

// IsSubpath reports whether path is base itself or lies underneath it
// rather than escaping via "..", used by the build graph to decide
// whether an include directory can be written relative to the build root.
func IsSubpath(base, path string) bool {
	base = filepath.Clean(base)
	path = filepath.Clean(path)
	if base == path {
		return true
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
