package models

// RelativeLink is an anchor within a document pointing inside its own
// domain.
type RelativeLink struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	Path       string `json:"path"`
}

// AbsoluteLink is an anchor within a document pointing at a full URL.
type AbsoluteLink struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	DomainID   int64  `json:"domain_id"`
	Path       string `json:"path"`
}
