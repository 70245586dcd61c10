package mock

import "github.com/diagdex/diagdex"

var _ diagdex.Converter = (*Converter)(nil)

// Converter is a mock implementation of diagdex.Converter. A nil
// ConvertFn passes the input through unchanged, which suits source
// tests that feed markdown rather than HTML.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	if c.ConvertFn == nil {
		return html, nil
	}
	return c.ConvertFn(html)
}
