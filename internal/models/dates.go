package models

import "time"

// CertainDate is a document date with exactly one parse.
type CertainDate struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Date       time.Time `json:"date"`
	Position   int       `json:"position"`
}

// AmbiguousDate is one interpretation of a date context that parsed more
// than one way. All interpretations of a context share the same matched
// text and position.
type AmbiguousDate struct {
	ID          int64     `json:"id"`
	DocumentID  int64     `json:"document_id"`
	Date        time.Time `json:"date"`
	DayFirst    bool      `json:"day_first"`
	YearFirst   bool      `json:"year_first"`
	MatchedText string    `json:"matched_text"`
	Position    int       `json:"position"`
}

// DateMethod identifies how a document's publication date was picked.
type DateMethod string

const (
	DateMethodCertain   DateMethod = "Certain"
	DateMethodUncertain DateMethod = "Uncertain"
	DateMethodCrawled   DateMethod = "Crawled"
)

// Code presents a date method as its external numeric form.
func (m DateMethod) Code() int {
	switch m {
	case DateMethodCertain:
		return 0
	case DateMethodUncertain:
		return 1
	case DateMethodCrawled:
		return 2
	}
	return -1
}
