package http

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/diagdex/diagdex"
)

// Ensure Source implements diagdex.Source at compile time.
var _ diagdex.Source = (*Source)(nil)

// Source fetches documentation pages over HTTP and converts them to
// plain text. The source id is the page URL.
type Source struct {
	fetcher   diagdex.Fetcher
	converter diagdex.Converter
	now       func() time.Time
}

// NewSource creates a Source from a fetcher and a converter.
func NewSource(fetcher diagdex.Fetcher, converter diagdex.Converter) *Source {
	return &Source{
		fetcher:   fetcher,
		converter: converter,
		now:       time.Now,
	}
}

// Fetch retrieves and converts the page at url.
func (s *Source) Fetch(ctx context.Context, url string) (*diagdex.Document, error) {
	html, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	content := extractContent(html)
	text, err := s.converter.Convert(content)
	if err != nil {
		return nil, err
	}

	doc := &diagdex.Document{
		SourceID:  url,
		RawText:   text,
		FetchedAt: s.now().UTC(),
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// extractContent selects the main content element of the page,
// preferring <main> and <article> over <body>, and drops navigation,
// scripts and styles. Falls back to the raw input when parsing fails.
func extractContent(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	doc.Find("script, style, nav, header, footer, aside").Remove()

	for _, sel := range []string{"main", "article", "body"} {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if h, err := goquery.OuterHtml(node); err == nil && strings.TrimSpace(h) != "" {
				return h
			}
		}
	}
	return html
}
