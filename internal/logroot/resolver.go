// Package logroot maps logical log paths such as "/nginx/access.log" to files
// on disk. The first path element names a mount: an entry of Dirs, or else a
// child directory of Root.
package logroot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrNotFound      = errors.New("the specified resource does not exist")
	ErrForbidden     = errors.New("the specified resource is forbidden")
	ErrInvalidFormat = errors.New("invalid path format")
)

var pathPattern = regexp.MustCompile(`^/([^/]+)(/(.+))?$`)

// Resolver resolves logical paths against configured directories.
type Resolver struct {
	Root string            // directory whose children are implicit mounts; optional
	Dirs map[string]string // explicit mounts, name -> directory
}

// Resolve returns the physical path of a logical path. The result always lies
// inside the mount directory and exists.
func (r *Resolver) Resolve(logical string) (string, error) {
	m := pathPattern.FindStringSubmatch(logical)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidFormat, logical)
	}
	mount, ok := r.mount(m[1])
	if !ok {
		return "", fmt.Errorf("%w: mount %q", ErrNotFound, m[1])
	}
	if m[3] == "" {
		return mount, nil
	}

	target := filepath.Join(mount, filepath.FromSlash(m[3]))
	rel, err := filepath.Rel(mount, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrForbidden, logical)
	}
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %q", ErrNotFound, logical)
		}
		return "", err
	}
	return target, nil
}

// ResolveFile is Resolve restricted to regular files.
func (r *Resolver) ResolveFile(logical string) (string, error) {
	path, err := r.Resolve(logical)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %q is a directory", ErrNotFound, logical)
	}
	return path, nil
}

// Mounts returns the configured mount names and directories, including the
// children of Root.
func (r *Resolver) Mounts() (map[string]string, error) {
	out := make(map[string]string, len(r.Dirs))
	if r.Root != "" {
		entries, err := os.ReadDir(r.Root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				out[e.Name()] = filepath.Join(r.Root, e.Name())
			}
		}
	}
	for name, dir := range r.Dirs {
		out[name] = filepath.Clean(dir)
	}
	return out, nil
}

func (r *Resolver) mount(name string) (string, bool) {
	if dir, ok := r.Dirs[name]; ok {
		return filepath.Clean(dir), true
	}
	if r.Root == "" || name == "." || name == ".." {
		return "", false
	}
	dir := filepath.Join(r.Root, name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return "", false
	}
	return dir, true
}
