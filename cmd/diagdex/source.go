package main

import (
	"context"
	"strings"

	"github.com/diagdex/diagdex"
)

// Compile-time interface verification.
var _ diagdex.Source = (*CompositeSource)(nil)

// CompositeSource routes source ids to the right backend: http(s) URLs
// go to the web source, everything else is read from the filesystem.
type CompositeSource struct {
	web   diagdex.Source
	files diagdex.Source
}

// NewCompositeSource creates a new CompositeSource.
func NewCompositeSource(web, files diagdex.Source) *CompositeSource {
	return &CompositeSource{web: web, files: files}
}

// Fetch implements diagdex.Source.
func (s *CompositeSource) Fetch(ctx context.Context, sourceID string) (*diagdex.Document, error) {
	if isURL(sourceID) {
		return s.web.Fetch(ctx, sourceID)
	}
	return s.files.Fetch(ctx, sourceID)
}

func isURL(id string) bool {
	return strings.HasPrefix(id, "http://") || strings.HasPrefix(id, "https://")
}
