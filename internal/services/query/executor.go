package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
)

// DocumentRow is one matched document with everything the presenter
// needs.
type DocumentRow struct {
	DocumentID      int64
	Domain          string
	Method          models.DateMethod
	Date            time.Time
	PosPhrases      int
	NegPhrases      int
	PosSentences    int
	NegSentences    int
	RelevantPos     int
	RelevantNeg     int
	Label           models.Label
	PhraseProbTotal float64
}

// Result is the outcome of executing one query.
type Result struct {
	QueryText string
	Keywords  []string
	Rows      []DocumentRow
	Message   string
	Elapsed   time.Duration
}

// Executor turns query text into ranked document rows: term parsing,
// fuzzy expansion, adjacency matching, and date picking.
type Executor struct {
	store      interfaces.StorageManager
	cache      interfaces.KeyIDCache
	datePicker *DatePicker
	domainExp  *DomainExpander
	keywordExp *KeywordExpander
	config     *common.QueryConfig
	logger     arbor.ILogger
}

// NewExecutor wires the query executor.
func NewExecutor(store interfaces.StorageManager, cache interfaces.KeyIDCache, config *common.QueryConfig, logger arbor.ILogger) *Executor {
	return &Executor{
		store:      store,
		cache:      cache,
		datePicker: NewDatePicker(store.Documents(), config),
		domainExp:  NewDomainExpander(store.Domains()),
		keywordExp: NewKeywordExpander(store.Keywords(), logger),
		config:     config,
		logger:     logger,
	}
}

// ParseTerms splits query text into keyword and domain terms. Tokens with
// a dot are domains; the rest count as keywords when they carry at least
// one alphanumeric character.
func ParseTerms(text string) (keywords, domains []string) {
	for _, token := range strings.Fields(text) {
		if strings.Contains(token, ".") {
			domains = append(domains, strings.ToLower(token))
			continue
		}
		hasAlnum := false
		for _, r := range token {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				hasAlnum = true
				break
			}
		}
		if hasAlnum {
			keywords = append(keywords, token)
		}
	}
	return keywords, domains
}

// Execute runs a query end to end.
func (e *Executor) Execute(ctx context.Context, queryText string) (*Result, error) {
	start := time.Now()
	result := &Result{QueryText: queryText}

	keywordTerms, domainTerms := ParseTerms(queryText)
	if len(keywordTerms) == 0 && len(domainTerms) == 0 {
		return nil, fmt.Errorf("query %q contains no usable terms", queryText)
	}

	keywords, err := e.expandKeywords(ctx, keywordTerms)
	if err != nil {
		return nil, err
	}
	result.Keywords = keywords

	keywordIDs, err := e.resolveKeywordIDs(ctx, keywords)
	if err != nil {
		return nil, err
	}

	domainIDs, err := e.resolveDomainIDs(ctx, domainTerms)
	if err != nil {
		return nil, err
	}

	// A keyword-only query seeds itself with the domains where those
	// keywords appear most.
	if len(domainIDs) == 0 && len(keywordIDs) > 0 {
		domainIDs, err = e.seedDomains(ctx, keywordIDs)
		if err != nil {
			return nil, err
		}
	}
	if len(domainIDs) == 0 {
		return nil, fmt.Errorf("query %q matched no known domains", queryText)
	}

	candidates, err := e.collectCandidates(ctx, domainIDs)
	if err != nil {
		return nil, err
	}

	matched := candidates
	if len(keywordIDs) > 0 {
		matched, err = e.filterStrict(ctx, candidates, keywordIDs)
		if err != nil {
			return nil, err
		}
		if len(matched) < e.config.StrictMinimum {
			loose, err := e.filterLoose(ctx, candidates, keywordIDs)
			if err != nil {
				return nil, err
			}
			if len(loose) > len(matched) {
				result.Message = fmt.Sprintf(
					"strict keyword matching found %d documents; broadened to any keyword match", len(matched))
				matched = loose
			}
		}
	}

	idSet := make(map[int64]struct{}, len(keywordIDs))
	for _, id := range keywordIDs {
		idSet[id] = struct{}{}
	}

	for _, candidate := range matched {
		row, err := e.buildRow(ctx, candidate, idSet)
		if err != nil {
			return nil, err
		}
		if row != nil {
			result.Rows = append(result.Rows, *row)
		}
	}

	result.Elapsed = time.Since(start)
	e.logger.Info().
		Str("query", queryText).
		Int("keywords", len(keywords)).
		Int("documents", len(result.Rows)).
		Dur("elapsed", result.Elapsed).
		Msg("Query executed")
	return result, nil
}

// candidate is a document paired with the domain key it was found under.
type candidate struct {
	documentID int64
	domainKey  string
}

func (e *Executor) expandKeywords(ctx context.Context, terms []string) ([]string, error) {
	var all []string
	for _, term := range terms {
		expanded, err := e.keywordExp.Expand(ctx, term)
		if err != nil {
			return nil, err
		}
		all = append(all, expanded...)
	}
	return dedupe(all), nil
}

func (e *Executor) resolveKeywordIDs(ctx context.Context, words []string) ([]int64, error) {
	var ids []int64
	for _, word := range words {
		if e.cache != nil {
			if id, ok, err := e.cache.GetKeywordID(ctx, word); err == nil && ok {
				ids = append(ids, id)
				continue
			}
		}
		id, err := e.store.Keywords().ResolveWord(ctx, word)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			continue
		}
		ids = append(ids, id)
		if e.cache != nil {
			_ = e.cache.PutKeywordID(ctx, word, id)
		}
	}
	return ids, nil
}

// resolveDomainIDs expands each domain term to its stored subdomains and
// maps them onto ids.
func (e *Executor) resolveDomainIDs(ctx context.Context, terms []string) (map[int64]string, error) {
	ids := make(map[int64]string)
	for _, term := range terms {
		keys, err := e.domainExp.Expand(ctx, term)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			if e.cache != nil {
				if id, ok, err := e.cache.GetDomainID(ctx, key); err == nil && ok {
					ids[id] = key
					continue
				}
			}
			domain, err := e.store.Domains().GetDomainByKey(ctx, key)
			if err != nil {
				return nil, err
			}
			if domain == nil {
				continue
			}
			ids[domain.ID] = domain.Key
			if e.cache != nil {
				_ = e.cache.PutDomainID(ctx, domain.Key, domain.ID)
			}
		}
	}
	return ids, nil
}

func (e *Executor) seedDomains(ctx context.Context, keywordIDs []int64) (map[int64]string, error) {
	topIDs, err := e.store.Documents().TopDomainsByKeywordAdjacency(ctx, keywordIDs, e.config.AutoSeedDomains)
	if err != nil {
		return nil, err
	}

	ids := make(map[int64]string, len(topIDs))
	for _, id := range topIDs {
		domain, err := e.store.Domains().GetDomain(ctx, id)
		if err != nil {
			return nil, err
		}
		if domain != nil {
			ids[domain.ID] = domain.Key
		}
	}
	return ids, nil
}

func (e *Executor) collectCandidates(ctx context.Context, domainIDs map[int64]string) ([]candidate, error) {
	var candidates []candidate
	seen := make(map[int64]struct{})

	ordered := make([]int64, 0, len(domainIDs))
	for id := range domainIDs {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for _, domainID := range ordered {
		docIDs, err := e.store.Documents().DocumentIDsByDomain(ctx, domainID)
		if err != nil {
			return nil, err
		}
		for _, docID := range docIDs {
			if _, dup := seen[docID]; dup {
				continue
			}
			seen[docID] = struct{}{}
			candidates = append(candidates, candidate{documentID: docID, domainKey: domainIDs[domainID]})
		}
	}
	return candidates, nil
}

// filterStrict keeps documents holding an adjacency between some pair of
// resolved keywords.
func (e *Executor) filterStrict(ctx context.Context, candidates []candidate, keywordIDs []int64) ([]candidate, error) {
	var kept []candidate
	for _, c := range candidates {
		match := false
		for i := 0; i < len(keywordIDs) && !match; i++ {
			for j := i + 1; j < len(keywordIDs) && !match; j++ {
				ok, err := e.store.Documents().HasStrictAdjacency(ctx, keywordIDs[i], keywordIDs[j], c.documentID)
				if err != nil {
					return nil, err
				}
				match = ok
			}
		}
		if match {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// filterLoose keeps documents holding an adjacency involving any resolved
// keyword.
func (e *Executor) filterLoose(ctx context.Context, candidates []candidate, keywordIDs []int64) ([]candidate, error) {
	var kept []candidate
	for _, c := range candidates {
		match := false
		for _, id := range keywordIDs {
			ok, err := e.store.Documents().HasLooseAdjacency(ctx, id, c.documentID)
			if err != nil {
				return nil, err
			}
			if ok {
				match = true
				break
			}
		}
		if match {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func (e *Executor) buildRow(ctx context.Context, c candidate, keywordIDs map[int64]struct{}) (*DocumentRow, error) {
	doc, err := e.store.Documents().GetDocument(ctx, c.documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}

	date, err := e.datePicker.Pick(ctx, c.documentID)
	if err != nil {
		return nil, err
	}

	phrases, err := e.store.Documents().PhrasesForDocument(ctx, c.documentID)
	if err != nil {
		return nil, err
	}

	row := &DocumentRow{
		DocumentID:   c.documentID,
		Domain:       c.domainKey,
		Method:       date.Method,
		Date:         date.Date,
		PosPhrases:   doc.PosPhrases,
		NegPhrases:   doc.NegPhrases,
		PosSentences: doc.PosSentences,
		NegSentences: doc.NegSentences,
		Label:        doc.Label,
	}

	for _, phrase := range phrases {
		row.PhraseProbTotal += phrase.Prob

		incident, err := e.store.Documents().KeywordIDsForPhrase(ctx, phrase.ID)
		if err != nil {
			return nil, err
		}
		relevant := false
		for _, id := range incident {
			if _, ok := keywordIDs[id]; ok {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}
		switch phrase.Label {
		case models.LabelPositive:
			row.RelevantPos++
		case models.LabelNegative:
			row.RelevantNeg++
		}
	}

	return row, nil
}
