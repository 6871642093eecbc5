package models

// SentenceGraph is a sentence plus its phrases, before ids are assigned.
type SentenceGraph struct {
	Sentence Sentence
	Phrases  []PhraseGraph
}

// PhraseGraph is a phrase, its source text, and the ids of keywords whose
// words occur in that text.
type PhraseGraph struct {
	Phrase     Phrase
	Text       string
	KeywordIDs []int64
}

// AdjacencyPair is an ordered pair of keyword ids extracted from a
// consecutive proper-noun run.
type AdjacencyPair struct {
	Key1ID int64
	Key2ID int64
}

// ProvenanceEntry attaches one software version to the document.
type ProvenanceEntry struct {
	SoftwareID int64
	Action     InvolvementAction
}

// DocumentGraph is everything the pipeline persists for one article in a
// single transaction. All child rows become visible atomically with the
// Document row.
type DocumentGraph struct {
	RawArticleID int64
	Article      Article

	// Document is nil for terminal statuses; no child rows are written.
	Document *Document

	Sentences      []SentenceGraph
	Adjacencies    []AdjacencyPair
	CertainDates   []CertainDate
	AmbiguousDates []AmbiguousDate
	RelativeLinks  []RelativeLink
	AbsoluteLinks  []AbsoluteLink
	Provenance     []ProvenanceEntry
}
