// Package project resolves the on-disk layout of a wiki project and provides
// file access that is guaranteed to stay inside the permitted roots.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/wikisync/internal/apperr"
	"github.com/starford/wikisync/internal/pathcodec"
)

// State directory layout under the project root.
const (
	StateDirName = ".wikitool"
	DataDirName  = "data"
	DBFileName   = "wikisync.db"
)

// Layout holds the resolved absolute paths of a project directory.
type Layout struct {
	root string
}

// NewLayout resolves root to an absolute path and verifies it is a directory.
func NewLayout(root string) (*Layout, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("project: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project: root is not a directory: %s", abs)
	}
	return &Layout{root: abs}, nil
}

// Root returns the absolute project root.
func (l *Layout) Root() string { return l.root }

// ContentRoot returns the absolute content directory.
func (l *Layout) ContentRoot() string {
	return filepath.Join(l.root, pathcodec.ContentDirName)
}

// TemplatesRoot returns the absolute templates directory.
func (l *Layout) TemplatesRoot() string {
	return filepath.Join(l.root, pathcodec.TemplatesDirName)
}

// StateDir returns the absolute internal state directory.
func (l *Layout) StateDir() string {
	return filepath.Join(l.root, StateDirName)
}

// DBPath returns the absolute path of the embedded database file.
func (l *Layout) DBPath() string {
	return filepath.Join(l.StateDir(), DataDirName, DBFileName)
}

// Abs resolves a root-relative path and rejects any result outside the
// content, templates, or state roots. An escape here is a configuration or
// programming error, so callers treat it as fatal.
func (l *Layout) Abs(rel string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("project: absolute path %s: %w", rel, apperr.ErrPathEscape)
	}
	abs, err := filepath.Abs(filepath.Join(l.root, cleaned))
	if err != nil {
		return "", fmt.Errorf("project: resolve %s: %w", rel, err)
	}
	for _, root := range []string{l.ContentRoot(), l.TemplatesRoot(), l.StateDir()} {
		if abs == root || strings.HasPrefix(abs, root+string(os.PathSeparator)) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("project: path %s: %w", rel, apperr.ErrPathEscape)
}

// Read returns the contents of a root-relative file.
func (l *Layout) Read(rel string) ([]byte, error) {
	abs, err := l.Abs(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", rel, err)
	}
	return data, nil
}

// Exists reports whether a root-relative file exists.
func (l *Layout) Exists(rel string) (bool, error) {
	abs, err := l.Abs(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("project: stat %s: %w", rel, err)
	}
	return true, nil
}

// Write atomically writes content: tmp file, fsync, rename.
func (l *Layout) Write(rel string, content []byte) error {
	abs, err := l.Abs(rel)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("project: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".wikisync-tmp-*")
	if err != nil {
		return fmt.Errorf("project: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("project: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("project: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("project: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("project: rename: %w", err)
	}
	success = true
	return nil
}

// Remove deletes a root-relative file.
func (l *Layout) Remove(rel string) error {
	abs, err := l.Abs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("project: remove %s: %w", rel, err)
	}
	return nil
}

// EnsureDirs creates the content, templates, and state directories if they
// are missing.
func (l *Layout) EnsureDirs() error {
	for _, dir := range []string{l.ContentRoot(), l.TemplatesRoot(), filepath.Join(l.StateDir(), DataDirName)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("project: ensure dirs: %w", err)
		}
	}
	return nil
}
