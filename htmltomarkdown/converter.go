// Package htmltomarkdown converts fetched HTML pages into markdown
// text. ASCII diagrams in documentation live inside <pre> blocks; the
// conversion keeps their content byte-for-byte so the diagram detector
// sees the original character grid.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/diagdex/diagdex"
)

// Ensure Converter implements diagdex.Converter at compile time.
var _ diagdex.Converter = (*Converter)(nil)

// Converter wraps html-to-markdown to convert HTML to Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter. Markdown escaping is disabled:
// identifiers like CONFIG_AUDIT must survive conversion verbatim, and
// the output is chunked and indexed rather than re-rendered as
// markdown, so escape backslashes would only pollute the index.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
		converter.WithEscapeMode(converter.EscapeModeDisabled),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", diagdex.Errorf(diagdex.EINVALID, "empty HTML input")
	}

	result, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}

	return result, nil
}
