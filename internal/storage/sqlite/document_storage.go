package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
)

// DocumentStorage persists enriched documents and serves the query
// engine's reads over them.
type DocumentStorage struct {
	db     *DB
	logger arbor.ILogger
}

// CommitGraph writes a document graph in one transaction: the article row,
// the document and all child rows, the raw article result, and the
// raw-to-article link. Rollback on error leaves no partial state.
//
// Returns the id of the inserted article.
func (s *DocumentStorage) CommitGraph(ctx context.Context, graph *models.DocumentGraph) (int64, error) {
	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback()

	articleID, err := s.insertArticle(ctx, tx, &graph.Article)
	if err != nil {
		return 0, err
	}

	if graph.Document != nil {
		graph.Document.ArticleID = articleID
		docID, err := s.insertDocumentRows(ctx, tx, graph)
		if err != nil {
			return 0, err
		}
		graph.Document.ID = docID

		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO raw_article_result_links (raw_article_id, article_id)
			VALUES (?, ?)`, graph.RawArticleID, articleID); err != nil {
			return 0, fmt.Errorf("insert result link: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO raw_article_results (raw_article_id, status) VALUES (?, ?)
		ON CONFLICT(raw_article_id) DO UPDATE SET status = excluded.status`,
		graph.RawArticleID, string(models.RawProcessed)); err != nil {
		return 0, fmt.Errorf("insert raw result: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit document graph: %w", err)
	}

	graph.Article.ID = articleID
	return articleID, nil
}

func (s *DocumentStorage) insertArticle(ctx context.Context, tx *sql.Tx, article *models.Article) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO articles (domain_id, path, date_crawled, crawl_id, status)
		VALUES (?, ?, ?, ?, ?)`,
		article.DomainID, article.Path, article.DateCrawled.Unix(), article.CrawlID,
		string(article.Status))
	if err != nil {
		return 0, fmt.Errorf("insert article: %w", err)
	}
	return res.LastInsertId()
}

func (s *DocumentStorage) insertDocumentRows(ctx context.Context, tx *sql.Tx, graph *models.DocumentGraph) (int64, error) {
	doc := graph.Document
	res, err := tx.ExecContext(ctx, `
		INSERT INTO documents (article_id, label, length, headline,
			pos_sentences, neg_sentences, pos_phrases, neg_phrases)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ArticleID, string(doc.Label), doc.Length, doc.Headline,
		doc.PosSentences, doc.NegSentences, doc.PosPhrases, doc.NegPhrases)
	if err != nil {
		return 0, fmt.Errorf("insert document: %w", err)
	}
	docID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i := range graph.Sentences {
		sg := &graph.Sentences[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO sentences (document_id, label, score, prob, level)
			VALUES (?, ?, ?, ?, ?)`,
			docID, string(sg.Sentence.Label), sg.Sentence.Score, sg.Sentence.Prob,
			string(sg.Sentence.Level))
		if err != nil {
			return 0, fmt.Errorf("insert sentence: %w", err)
		}
		sentenceID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}

		for j := range sg.Phrases {
			pg := &sg.Phrases[j]
			res, err := tx.ExecContext(ctx, `
				INSERT INTO phrases (sentence_id, label, score, prob)
				VALUES (?, ?, ?, ?)`,
				sentenceID, string(pg.Phrase.Label), pg.Phrase.Score, pg.Phrase.Prob)
			if err != nil {
				return 0, fmt.Errorf("insert phrase: %w", err)
			}
			phraseID, err := res.LastInsertId()
			if err != nil {
				return 0, err
			}

			for _, keywordID := range pg.KeywordIDs {
				if _, err := tx.ExecContext(ctx, `
					INSERT OR IGNORE INTO keyword_incidences (keyword_id, phrase_id)
					VALUES (?, ?)`, keywordID, phraseID); err != nil {
					return 0, fmt.Errorf("insert incidence: %w", err)
				}
			}
		}
	}

	for _, pair := range graph.Adjacencies {
		var key2 interface{}
		if pair.Key2ID != 0 {
			key2 = pair.Key2ID
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO keyword_adjacencies (document_id, key1_id, key2_id)
			VALUES (?, ?, ?)`, docID, pair.Key1ID, key2); err != nil {
			return 0, fmt.Errorf("insert adjacency: %w", err)
		}
	}

	for _, cd := range graph.CertainDates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO certain_dates (document_id, date, position) VALUES (?, ?, ?)`,
			docID, cd.Date.Unix(), cd.Position); err != nil {
			return 0, fmt.Errorf("insert certain date: %w", err)
		}
	}

	for _, ad := range graph.AmbiguousDates {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ambiguous_dates (document_id, date, day_first, year_first, matched_text, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			docID, ad.Date.Unix(), boolToInt(ad.DayFirst), boolToInt(ad.YearFirst),
			ad.MatchedText, ad.Position); err != nil {
			return 0, fmt.Errorf("insert ambiguous date: %w", err)
		}
	}

	for _, link := range graph.RelativeLinks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO relative_links (document_id, path) VALUES (?, ?)`,
			docID, link.Path); err != nil {
			return 0, fmt.Errorf("insert relative link: %w", err)
		}
	}

	for _, link := range graph.AbsoluteLinks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO absolute_links (document_id, domain_id, path) VALUES (?, ?, ?)`,
			docID, link.DomainID, link.Path); err != nil {
			return 0, fmt.Errorf("insert absolute link: %w", err)
		}
	}

	for _, entry := range graph.Provenance {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO software_involvement_records (software_id, document_id, action)
			VALUES (?, ?, ?)`, entry.SoftwareID, docID, string(entry.Action)); err != nil {
			return 0, fmt.Errorf("insert involvement record: %w", err)
		}
	}

	return docID, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetDocument loads a document by id.
func (s *DocumentStorage) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	doc := &models.Document{}
	var headline sql.NullString
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT id, article_id, label, length, headline,
			pos_sentences, neg_sentences, pos_phrases, neg_phrases
		FROM documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.ArticleID, &doc.Label, &doc.Length, &headline,
			&doc.PosSentences, &doc.NegSentences, &doc.PosPhrases, &doc.NegPhrases)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %d: %w", id, err)
	}
	doc.Headline = headline.String
	return doc, nil
}

// DocumentIDsByDomain returns document ids whose article belongs to the
// domain.
func (s *DocumentStorage) DocumentIDsByDomain(ctx context.Context, domainID int64) ([]int64, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT DISTINCT d.id FROM documents d
		JOIN articles a ON a.id = d.article_id
		WHERE a.domain_id = ?`, domainID)
	if err != nil {
		return nil, fmt.Errorf("documents by domain %d: %w", domainID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// DocumentIDsByKeyword returns document ids having any adjacency that
// involves the keyword.
func (s *DocumentStorage) DocumentIDsByKeyword(ctx context.Context, keywordID int64) ([]int64, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT DISTINCT document_id FROM keyword_adjacencies
		WHERE key1_id = ? OR key2_id = ?`, keywordID, keywordID)
	if err != nil {
		return nil, fmt.Errorf("documents by keyword %d: %w", keywordID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// HasStrictAdjacency reports whether the document has an adjacency with
// both keywords, in either order.
func (s *DocumentStorage) HasStrictAdjacency(ctx context.Context, key1ID, key2ID, documentID int64) (bool, error) {
	var one int
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT 1 FROM keyword_adjacencies
		WHERE document_id = ?
		AND ((key1_id = ? AND key2_id = ?) OR (key1_id = ? AND key2_id = ?))
		LIMIT 1`, documentID, key1ID, key2ID, key2ID, key1ID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("strict adjacency check: %w", err)
	}
	return true, nil
}

// HasLooseAdjacency reports whether the document has an adjacency
// involving the keyword.
func (s *DocumentStorage) HasLooseAdjacency(ctx context.Context, keywordID, documentID int64) (bool, error) {
	var one int
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT 1 FROM keyword_adjacencies
		WHERE document_id = ? AND (key1_id = ? OR key2_id = ?)
		LIMIT 1`, documentID, keywordID, keywordID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loose adjacency check: %w", err)
	}
	return true, nil
}

// PhrasesForDocument returns all phrases belonging to the document.
func (s *DocumentStorage) PhrasesForDocument(ctx context.Context, documentID int64) ([]*models.Phrase, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT p.id, p.sentence_id, p.label, p.score, p.prob
		FROM phrases p JOIN sentences s ON s.id = p.sentence_id
		WHERE s.document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("phrases for document %d: %w", documentID, err)
	}
	defer rows.Close()

	var phrases []*models.Phrase
	for rows.Next() {
		p := &models.Phrase{}
		if err := rows.Scan(&p.ID, &p.SentenceID, &p.Label, &p.Score, &p.Prob); err != nil {
			return nil, err
		}
		phrases = append(phrases, p)
	}
	return phrases, rows.Err()
}

// KeywordIDsForPhrase returns the keyword ids incident on a phrase.
func (s *DocumentStorage) KeywordIDsForPhrase(ctx context.Context, phraseID int64) ([]int64, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT keyword_id FROM keyword_incidences WHERE phrase_id = ?`, phraseID)
	if err != nil {
		return nil, fmt.Errorf("keywords for phrase %d: %w", phraseID, err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// ClosestCertainDate returns the certain date nearest the given byte
// position, or nil.
func (s *DocumentStorage) ClosestCertainDate(ctx context.Context, documentID int64, position int) (*models.CertainDate, error) {
	cd := &models.CertainDate{}
	var date int64
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT id, document_id, date, position FROM certain_dates
		WHERE document_id = ?
		ORDER BY ABS(position - ?) LIMIT 1`, documentID, position).
		Scan(&cd.ID, &cd.DocumentID, &date, &cd.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("closest certain date: %w", err)
	}
	cd.Date = time.Unix(date, 0).UTC()
	return cd, nil
}

// ClosestAmbiguousDate returns the ambiguous date nearest the given byte
// position with a year inside [yearMin, yearMax], or nil.
func (s *DocumentStorage) ClosestAmbiguousDate(ctx context.Context, documentID int64, position, yearMin, yearMax int) (*models.AmbiguousDate, error) {
	minDate := time.Date(yearMin, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	maxDate := time.Date(yearMax+1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

	ad := &models.AmbiguousDate{}
	var date int64
	var dayFirst, yearFirst int
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT id, document_id, date, day_first, year_first, matched_text, position
		FROM ambiguous_dates
		WHERE document_id = ? AND date >= ? AND date < ?
		ORDER BY ABS(position - ?) LIMIT 1`,
		documentID, minDate, maxDate, position).
		Scan(&ad.ID, &ad.DocumentID, &date, &dayFirst, &yearFirst, &ad.MatchedText, &ad.Position)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("closest ambiguous date: %w", err)
	}
	ad.Date = time.Unix(date, 0).UTC()
	ad.DayFirst = dayFirst != 0
	ad.YearFirst = yearFirst != 0
	return ad, nil
}

// CrawledDate returns the crawl date of the document's article.
func (s *DocumentStorage) CrawledDate(ctx context.Context, documentID int64) (time.Time, error) {
	var crawled int64
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT a.date_crawled FROM articles a
		JOIN documents d ON d.article_id = a.id
		WHERE d.id = ?`, documentID).Scan(&crawled)
	if err != nil {
		return time.Time{}, fmt.Errorf("crawled date for document %d: %w", documentID, err)
	}
	return time.Unix(crawled, 0).UTC(), nil
}

// RelativeLinksForDocument returns the document's relative links.
func (s *DocumentStorage) RelativeLinksForDocument(ctx context.Context, documentID int64) ([]*models.RelativeLink, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id, document_id, path FROM relative_links WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("relative links for document %d: %w", documentID, err)
	}
	defer rows.Close()

	var links []*models.RelativeLink
	for rows.Next() {
		link := &models.RelativeLink{}
		if err := rows.Scan(&link.ID, &link.DocumentID, &link.Path); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// AbsoluteLinksForDocument returns the document's absolute links.
func (s *DocumentStorage) AbsoluteLinksForDocument(ctx context.Context, documentID int64) ([]*models.AbsoluteLink, error) {
	rows, err := s.db.DB().QueryContext(ctx,
		`SELECT id, document_id, domain_id, path FROM absolute_links WHERE document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("absolute links for document %d: %w", documentID, err)
	}
	defer rows.Close()

	var links []*models.AbsoluteLink
	for rows.Next() {
		link := &models.AbsoluteLink{}
		if err := rows.Scan(&link.ID, &link.DocumentID, &link.DomainID, &link.Path); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// AdjacencyWordsForDocument returns the lowercased (word1, word2) pairs of
// the document's keyword adjacencies. Single-keyword adjacencies repeat
// the word in both slots.
func (s *DocumentStorage) AdjacencyWordsForDocument(ctx context.Context, documentID int64) ([][2]string, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT k1.word, COALESCE(k2.word, k1.word)
		FROM keyword_adjacencies ka
		JOIN keywords k1 ON k1.id = ka.key1_id
		LEFT JOIN keywords k2 ON k2.id = ka.key2_id
		WHERE ka.document_id = ?`, documentID)
	if err != nil {
		return nil, fmt.Errorf("adjacency words for document %d: %w", documentID, err)
	}
	defer rows.Close()

	var pairs [][2]string
	for rows.Next() {
		var w1, w2 string
		if err := rows.Scan(&w1, &w2); err != nil {
			return nil, err
		}
		pairs = append(pairs, [2]string{strings.ToLower(w1), strings.ToLower(w2)})
	}
	return pairs, rows.Err()
}

// TopDomainsByKeywordAdjacency returns the domain ids that most often host
// documents whose adjacencies involve any of the keyword ids.
func (s *DocumentStorage) TopDomainsByKeywordAdjacency(ctx context.Context, keywordIDs []int64, limit int) ([]int64, error) {
	if len(keywordIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(keywordIDs)), ",")
	args := make([]interface{}, 0, 2*len(keywordIDs)+1)
	for _, id := range keywordIDs {
		args = append(args, id)
	}
	for _, id := range keywordIDs {
		args = append(args, id)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT a.domain_id FROM keyword_adjacencies ka
		JOIN documents d ON d.id = ka.document_id
		JOIN articles a ON a.id = d.article_id
		WHERE ka.key1_id IN (%s) OR ka.key2_id IN (%s)
		GROUP BY a.domain_id
		ORDER BY COUNT(DISTINCT d.id) DESC
		LIMIT ?`, placeholders, placeholders)

	rows, err := s.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top domains by keyword adjacency: %w", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}
