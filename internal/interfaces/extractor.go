package interfaces

import "context"

// Extraction is the text extractor's response for one page.
type Extraction struct {
	// Text is the boilerplate-free body, ASCII-encoded with
	// non-representable characters dropped. Empty when extraction failed.
	Text string

	// Version is the extractor's self-reported version string, recorded in
	// software provenance.
	Version string
}

// TextExtractor removes navigation and chrome from an HTML page, leaving
// the article body. Implementations call the external boilerplate-removal
// service.
type TextExtractor interface {
	Extract(ctx context.Context, body []byte) (*Extraction, error)
}
