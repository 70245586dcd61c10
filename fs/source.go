// Package fs provides a filesystem-backed document source: the source
// id is a file path and the raw text is the file content. Useful for
// local corpora and for exercising the ingestion pipeline in tests.
package fs

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/diagdex/diagdex"
)

// Ensure Source implements diagdex.Source at compile time.
var _ diagdex.Source = (*Source)(nil)

// Source reads documents from local files.
type Source struct {
	now func() time.Time
}

// NewSource creates a filesystem Source.
func NewSource() *Source {
	return &Source{now: time.Now}
}

// Fetch reads the file at path.
func (s *Source) Fetch(ctx context.Context, path string) (*diagdex.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, diagdex.Errorf(diagdex.ENOTFOUND, "document %q not found", path)
	}
	if err != nil {
		return nil, err
	}

	doc := &diagdex.Document{
		SourceID:  path,
		RawText:   string(data),
		FetchedAt: s.now().UTC(),
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Discover walks root and returns the paths of indexable text files,
// sorted for deterministic ingestion order.
func Discover(root string, extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = []string{".txt", ".md", ".rst"}
	}
	allowed := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; ok {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
