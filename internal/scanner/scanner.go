// Package scanner walks the content and template trees and produces the
// canonical file listing consumed by the index and the sync engines.
package scanner

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/starford/wikisync/internal/checksum"
	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/project"
)

// ScannedFile describes one recognized file. It is computed fresh on every
// scan and never persisted directly.
type ScannedFile struct {
	RelPath        string
	Title          string
	Namespace      string
	IsRedirect     bool
	RedirectTarget string
	Hash           string
	Size           int64
}

const redirectPrefix = "#REDIRECT"

// Scan walks both roots and returns recognized files sorted by relative
// path. Files with unknown extensions or under unknown top-level folders are
// silently skipped. A discovered path that fails the permitted-roots check
// aborts the scan: that is a programming error, not a recoverable condition.
func Scan(layout *project.Layout, codec *pathcodec.Codec) ([]ScannedFile, error) {
	var out []ScannedFile
	for _, root := range []string{layout.ContentRoot(), layout.TemplatesRoot()} {
		files, err := scanRoot(layout, codec, root)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RelPath < out[j].RelPath })
	return out, nil
}

func scanRoot(layout *project.Layout, codec *pathcodec.Codec, root string) ([]ScannedFile, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var out []ScannedFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(layout.Root(), p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		title, ok := codec.PathToTitle(rel)
		if !ok {
			return nil
		}
		// Every accepted path must resolve inside a permitted root.
		if _, err := layout.Abs(rel); err != nil {
			return err
		}

		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("scanner: read %s: %w", rel, err)
		}
		isRedirect, target := ParseRedirect(data)
		ns, _ := pathcodec.Split(title)
		out = append(out, ScannedFile{
			RelPath:        rel,
			Title:          title,
			Namespace:      ns.Name,
			IsRedirect:     isRedirect,
			RedirectTarget: target,
			Hash:           checksum.Sum(data),
			Size:           int64(len(data)),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanner: walk %s: %w", root, err)
	}
	return out, nil
}

// ParseRedirect reports whether content is a redirect page (trimmed content
// starting with #REDIRECT, case-insensitive) and extracts the target from
// the first [[...]] pair, if any.
func ParseRedirect(data []byte) (bool, string) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) < len(redirectPrefix) {
		return false, ""
	}
	if !bytes.EqualFold(trimmed[:len(redirectPrefix)], []byte(redirectPrefix)) {
		return false, ""
	}
	open := bytes.Index(trimmed, []byte("[["))
	if open < 0 {
		return true, ""
	}
	close_ := bytes.Index(trimmed[open:], []byte("]]"))
	if close_ < 0 {
		return true, ""
	}
	return true, string(trimmed[open+2 : open+close_])
}
