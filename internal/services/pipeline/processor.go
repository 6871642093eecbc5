package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
)

// Processor runs the enrichment pipeline over raw articles: extraction,
// date mining, language gating, keyword and adjacency extraction,
// classification, and the single-transaction commit of the result.
type Processor struct {
	store      interfaces.StorageManager
	extractor  interfaces.TextExtractor
	classifier interfaces.Classifier
	dateMiner  interfaces.DateMiner
	termExtr   interfaces.TermExtractor
	tokenizer  interfaces.SentenceTokenizer
	tagger     interfaces.Tagger
	langID     interfaces.LanguageIdentifier
	domains    *DomainResolver
	cache      interfaces.KeyIDCache
	stopList   common.StopList
	config     *common.PipelineConfig
	logger     arbor.ILogger
}

// NewProcessor wires the pipeline's collaborators together.
func NewProcessor(
	store interfaces.StorageManager,
	extractor interfaces.TextExtractor,
	classifier interfaces.Classifier,
	dateMiner interfaces.DateMiner,
	termExtr interfaces.TermExtractor,
	tokenizer interfaces.SentenceTokenizer,
	tagger interfaces.Tagger,
	langID interfaces.LanguageIdentifier,
	cache interfaces.KeyIDCache,
	stopList common.StopList,
	config *common.PipelineConfig,
	logger arbor.ILogger,
) *Processor {
	return &Processor{
		store:      store,
		extractor:  extractor,
		classifier: classifier,
		dateMiner:  dateMiner,
		termExtr:   termExtr,
		tokenizer:  tokenizer,
		tagger:     tagger,
		langID:     langID,
		domains:    NewDomainResolver(store.Domains(), cache, logger),
		cache:      cache,
		stopList:   stopList,
		config:     config,
		logger:     logger,
	}
}

// Process handles one raw article id pulled from the process queue. It is
// idempotent: a raw article with a recorded result is skipped, and retries
// within one delivery are bounded. Exhausted retries record an Error
// result so the article is never redelivered forever.
func (p *Processor) Process(ctx context.Context, rawArticleID int64) error {
	result, err := p.store.RawArticles().GetResult(ctx, rawArticleID)
	if err != nil {
		return err
	}
	if result != nil && result.Status != models.RawUnprocessed {
		p.logger.Debug().
			Int64("raw_article_id", rawArticleID).
			Str("status", string(result.Status)).
			Msg("Raw article already has a result, skipping")
		return nil
	}

	var lastErr error
	for attempt := 0; attempt <= p.config.RetryLimit; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.config.ArticleTimeoutDuration())
		lastErr = p.processOnce(attemptCtx, rawArticleID)
		cancel()

		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.logger.Warn().
			Err(lastErr).
			Int64("raw_article_id", rawArticleID).
			Int("attempt", attempt+1).
			Msg("Pipeline attempt failed")
	}

	p.logger.Error().
		Err(lastErr).
		Int64("raw_article_id", rawArticleID).
		Msg("Retries exhausted, recording error result")
	return p.store.RawArticles().SaveResult(ctx, rawArticleID, models.RawError)
}

func (p *Processor) processOnce(ctx context.Context, rawArticleID int64) error {
	raw, err := p.store.RawArticles().GetRawArticle(ctx, rawArticleID)
	if err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("raw article %d not found", rawArticleID)
	}

	domainKey, err := common.DomainOf(raw.URL)
	if err != nil {
		return fmt.Errorf("unusable url %q: %w", raw.URL, err)
	}

	if p.denylisted(domainKey) {
		p.logger.Info().
			Int64("raw_article_id", rawArticleID).
			Str("domain", domainKey).
			Msg("Domain is denylisted, discarding")
		return p.store.RawArticles().SaveResult(ctx, rawArticleID, models.RawError)
	}

	domainID, err := p.domains.ResolveKey(ctx, domainKey, raw.DateCrawled)
	if err != nil {
		return err
	}
	path, err := common.PathOf(raw.URL)
	if err != nil {
		return fmt.Errorf("unusable url %q: %w", raw.URL, err)
	}

	// Exactly-once across crawl re-transfers: the article may already
	// exist from a previous delivery of the same page.
	existing, err := p.store.Articles().FindArticle(ctx, domainID, path, raw.CrawlID)
	if err != nil {
		return err
	}
	if existing != nil {
		p.logger.Debug().
			Int64("raw_article_id", rawArticleID).
			Int64("article_id", existing.ID).
			Msg("Article already present, marking raw record processed")
		return p.store.RawArticles().SaveResult(ctx, rawArticleID, models.RawProcessed)
	}

	article := models.Article{
		DomainID:    domainID,
		Path:        path,
		DateCrawled: raw.DateCrawled,
		CrawlID:     raw.CrawlID,
		Status:      models.StatusProcessed,
	}

	if !strings.Contains(strings.ToLower(raw.ContentType), "text/html") {
		p.logger.Info().
			Int64("raw_article_id", rawArticleID).
			Str("content_type", raw.ContentType).
			Msg("Unsupported content type")
		return p.commitTerminal(ctx, rawArticleID, article, models.StatusUnsupportedType)
	}

	// Extraction is a network round trip; run it while the local parse,
	// date mining and language detection happen.
	type extractOutcome struct {
		extraction *interfaces.Extraction
		err        error
	}
	extractCh := make(chan extractOutcome, 1)
	go func() {
		ex, err := p.extractor.Extract(ctx, raw.Body)
		extractCh <- extractOutcome{extraction: ex, err: err}
	}()

	htmlDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Body))
	if err != nil {
		<-extractCh
		return p.commitTerminal(ctx, rawArticleID, article, models.StatusOtherError)
	}

	dateContexts := p.dateMiner.Mine(htmlDoc)
	lang, langCertainty := p.langID.Identify(string(raw.Body))

	outcome := <-extractCh
	if outcome.err != nil {
		// The extractor carries its own timeout; a page it cannot turn
		// around in time has no usable content. Only infrastructure
		// failures are worth a retry.
		if ctx.Err() == nil && isTimeout(outcome.err) {
			p.logger.Info().
				Int64("raw_article_id", rawArticleID).
				Err(outcome.err).
				Msg("Extraction timed out, recording no content")
			return p.commitTerminal(ctx, rawArticleID, article, models.StatusNoContent)
		}
		return fmt.Errorf("extraction: %w", outcome.err)
	}
	if outcome.extraction.Text == "" {
		return p.commitTerminal(ctx, rawArticleID, article, models.StatusNoContent)
	}
	if lang != "en" {
		p.logger.Info().
			Int64("raw_article_id", rawArticleID).
			Str("language", lang).
			Float64("certainty", langCertainty).
			Msg("Non-English page, skipping")
		return p.commitTerminal(ctx, rawArticleID, article, models.StatusLanguageError)
	}

	cleaned := outcome.extraction.Text
	headline := findHeadline(htmlDoc, cleaned)

	kset, adjacencyRuns := p.extractKeywords(cleaned)

	// Resolve keyword ids while classification runs.
	type keywordOutcome struct {
		mapping map[string]int64
		err     error
	}
	keywordCh := make(chan keywordOutcome, 1)
	go func() {
		mapping, err := p.resolveKeywords(ctx, kset, adjacencyRuns)
		keywordCh <- keywordOutcome{mapping: mapping, err: err}
	}()

	classification, err := p.classifier.Classify(cleaned)
	if err != nil {
		<-keywordCh
		p.logger.Error().Err(err).
			Int64("raw_article_id", rawArticleID).
			Msg("Classification failed")
		return p.commitTerminal(ctx, rawArticleID, article, models.StatusClassificationError)
	}

	keywords := <-keywordCh
	if keywords.err != nil {
		return fmt.Errorf("keyword resolution: %w", keywords.err)
	}

	doc := &models.Document{
		Label:        classification.Label,
		Length:       classification.Length,
		Headline:     headline,
		PosSentences: classification.PosSentences,
		NegSentences: classification.NegSentences,
		PosPhrases:   classification.PosPhrases,
		NegPhrases:   classification.NegPhrases,
	}

	graph := &models.DocumentGraph{
		RawArticleID: rawArticleID,
		Article:      article,
		Document:     doc,
		Sentences:    p.buildSentences(htmlDoc, classification, keywords.mapping),
		Adjacencies:  buildAdjacencies(adjacencyRuns, keywords.mapping),
	}

	p.buildDates(graph, dateContexts, cleaned)
	if len(graph.CertainDates) == 0 && len(graph.AmbiguousDates) == 0 {
		// Undatable articles commit without a document: document rows only
		// exist for fully processed articles.
		graph.Article.Status = models.StatusNoDates
		graph.Document = nil
		graph.Sentences = nil
		graph.Adjacencies = nil
	}

	if graph.Document != nil {
		p.buildLinks(ctx, graph, htmlDoc, cleaned, raw)
	}

	if err := p.buildProvenance(ctx, graph, outcome.extraction.Version); err != nil {
		return err
	}

	articleID, err := p.store.Documents().CommitGraph(ctx, graph)
	if err != nil {
		return fmt.Errorf("commit document graph: %w", err)
	}

	p.logger.Info().
		Int64("raw_article_id", rawArticleID).
		Int64("article_id", articleID).
		Str("domain", domainKey).
		Str("status", string(graph.Article.Status)).
		Str("label", string(doc.Label)).
		Int("sentences", len(graph.Sentences)).
		Int("adjacencies", len(graph.Adjacencies)).
		Msg("Article processed")
	return nil
}

// isTimeout reports whether an extraction failed on a deadline rather
// than on the request itself.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (p *Processor) denylisted(domainKey string) bool {
	for _, banned := range p.config.Denylist {
		if domainKey == banned || strings.HasSuffix(domainKey, "."+banned) {
			return true
		}
	}
	return false
}

// commitTerminal persists an article with a terminal status and no
// document. The raw article result still flips to Processed so the record
// is never retried.
func (p *Processor) commitTerminal(ctx context.Context, rawArticleID int64, article models.Article, status models.ArticleStatus) error {
	article.Status = status
	graph := &models.DocumentGraph{
		RawArticleID: rawArticleID,
		Article:      article,
	}
	if _, err := p.store.Documents().CommitGraph(ctx, graph); err != nil {
		return fmt.Errorf("commit terminal article: %w", err)
	}
	return nil
}

// extractKeywords builds the bounded keyword working set and the
// proper-noun runs of the cleaned text. Scored terms fill the set first,
// then proper nouns ordered by frequency.
func (p *Processor) extractKeywords(cleaned string) (*KeywordSet, [][]string) {
	kset := NewKeywordSet(p.stopList, p.config.KeywordLimit)

	for _, term := range p.termExtr.Terms(cleaned) {
		if _, err := kset.Add(term.Term); err != nil {
			break
		}
	}

	var runs [][]string
	counts := make(map[string]int)
	for _, sentence := range p.tokenizer.Sentences(cleaned) {
		var run []string
		flush := func() {
			if len(run) > 0 {
				runs = append(runs, run)
				run = nil
			}
		}
		for _, token := range p.tagger.Tag(sentence) {
			if token.Tag == "NNP" {
				run = append(run, token.Word)
				counts[token.Word]++
				continue
			}
			flush()
		}
		flush()
	}

	type scored struct {
		word  string
		count int
	}
	ranked := make([]scored, 0, len(counts))
	for word, count := range counts {
		ranked = append(ranked, scored{word, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].word < ranked[j].word
	})
	for _, s := range ranked {
		if _, err := kset.Add(s.word); err != nil {
			break
		}
	}

	return kset, runs
}

// resolveKeywords interns every candidate word and returns word -> id.
// Invalid words drop silently; the id cache short-circuits the store.
func (p *Processor) resolveKeywords(ctx context.Context, kset *KeywordSet, runs [][]string) (map[string]int64, error) {
	wordSet := make(map[string]struct{})
	for _, word := range kset.Words() {
		wordSet[word] = struct{}{}
	}
	for _, run := range runs {
		for _, word := range run {
			wordSet[word] = struct{}{}
		}
	}

	words := make([]string, 0, len(wordSet))
	for word := range wordSet {
		if models.ValidateKeywordWord(word) == nil {
			words = append(words, word)
		}
	}
	sort.Strings(words)

	if err := p.store.Keywords().UpsertWords(ctx, words); err != nil {
		return nil, err
	}

	mapping := make(map[string]int64, len(words))
	for _, word := range words {
		if p.cache != nil {
			if id, ok, err := p.cache.GetKeywordID(ctx, word); err == nil && ok {
				mapping[word] = id
				continue
			}
		}
		id, err := p.store.Keywords().ResolveWord(ctx, word)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			continue
		}
		mapping[word] = id
		if p.cache != nil {
			if err := p.cache.PutKeywordID(ctx, word, id); err != nil {
				p.logger.Warn().Err(err).Str("word", word).Msg("Failed to cache keyword id")
			}
		}
	}
	return mapping, nil
}

// buildSentences converts the classifier trace into sentence and phrase
// rows. Keyword incidences attach a keyword to every phrase whose text
// contains its word.
func (p *Processor) buildSentences(htmlDoc *goquery.Document, classification *interfaces.Classification, mapping map[string]int64) []models.SentenceGraph {
	sentences := make([]models.SentenceGraph, 0, len(classification.Trace))

	for _, trace := range classification.Trace {
		sg := models.SentenceGraph{
			Sentence: models.Sentence{
				Label: trace.Label,
				Score: trace.Score,
				Prob:  trace.Prob,
				Level: sentenceLevel(htmlDoc, trace.Text),
			},
		}

		for _, phrase := range trace.Phrases {
			pg := models.PhraseGraph{
				Phrase: models.Phrase{
					Label: phrase.Label,
					Score: phrase.Score,
					Prob:  phrase.Prob,
				},
				Text: phrase.Text,
			}
			for word, id := range mapping {
				if strings.Contains(phrase.Text, word) {
					pg.KeywordIDs = append(pg.KeywordIDs, id)
				}
			}
			sort.Slice(pg.KeywordIDs, func(i, j int) bool { return pg.KeywordIDs[i] < pg.KeywordIDs[j] })
			sg.Phrases = append(sg.Phrases, pg)
		}
		sentences = append(sentences, sg)
	}
	return sentences
}

// buildAdjacencies maps proper-noun runs onto keyword-id pairs. A
// single-token run yields a pair with a zero second id.
func buildAdjacencies(runs [][]string, mapping map[string]int64) []models.AdjacencyPair {
	seen := make(map[models.AdjacencyPair]struct{})
	var pairs []models.AdjacencyPair

	add := func(pair models.AdjacencyPair) {
		if _, dup := seen[pair]; dup {
			return
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}

	for _, run := range runs {
		if len(run) == 1 {
			if id, ok := mapping[run[0]]; ok {
				add(models.AdjacencyPair{Key1ID: id})
			}
			continue
		}
		for i := 0; i+1 < len(run); i++ {
			id1, ok1 := mapping[run[i]]
			id2, ok2 := mapping[run[i+1]]
			if ok1 && ok2 {
				add(models.AdjacencyPair{Key1ID: id1, Key2ID: id2})
			}
		}
	}
	return pairs
}

// buildDates converts mined date contexts into rows. Contexts whose
// matched text never made it into the cleaned body are boilerplate dates
// and are dropped.
func (p *Processor) buildDates(graph *models.DocumentGraph, contexts map[string]interfaces.DateContext, cleaned string) {
	for _, ctx := range contexts {
		if len(ctx.Dates) == 0 {
			continue
		}
		if ctx.Text != "" && !strings.Contains(cleaned, ctx.Text) {
			continue
		}

		if len(ctx.Dates) == 1 {
			graph.CertainDates = append(graph.CertainDates, models.CertainDate{
				Date:     ctx.Dates[0].Date,
				Position: ctx.Position,
			})
			continue
		}
		for _, candidate := range ctx.Dates {
			graph.AmbiguousDates = append(graph.AmbiguousDates, models.AmbiguousDate{
				Date:        candidate.Date,
				DayFirst:    candidate.DayFirst,
				YearFirst:   candidate.YearFirst,
				MatchedText: ctx.Text,
				Position:    ctx.Position,
			})
		}
	}
}

// buildLinks records the anchors whose visible text survived into the
// cleaned body. Off-body anchors are navigation chrome and are skipped
// individually, not fatally.
func (p *Processor) buildLinks(ctx context.Context, graph *models.DocumentGraph, htmlDoc *goquery.Document, cleaned string, raw *models.RawArticle) {
	htmlDoc.Find("a").Each(func(_ int, anchor *goquery.Selection) {
		href, ok := anchor.Attr("href")
		if !ok {
			return
		}

		visible := strings.TrimSpace(anchor.Text())
		if visible == "" || !strings.Contains(cleaned, visible) {
			return
		}

		href = common.StripFragment(href)
		if href == "" {
			return
		}

		if strings.Contains(href, "http://") || strings.Contains(href, "https://") {
			domainID, err := p.domains.ResolveURL(ctx, href, raw.DateCrawled)
			if err != nil {
				p.logger.Debug().Err(err).Str("href", href).Msg("Skipping unresolvable link")
				return
			}
			linkPath, err := common.PathOf(href)
			if err != nil {
				p.logger.Debug().Err(err).Str("href", href).Msg("Skipping unparseable link")
				return
			}
			graph.AbsoluteLinks = append(graph.AbsoluteLinks, models.AbsoluteLink{
				DomainID: domainID,
				Path:     linkPath,
			})
			return
		}

		graph.RelativeLinks = append(graph.RelativeLinks, models.RelativeLink{Path: href})
	})
}

// buildProvenance interns the version of every component that touched the
// document.
func (p *Processor) buildProvenance(ctx context.Context, graph *models.DocumentGraph, extractorVersion string) error {
	entries := []struct {
		version string
		action  models.InvolvementAction
	}{
		{common.PipelineVersion(), models.ActionProcessed},
		{p.dateMiner.Version(), models.ActionDated},
		{p.classifier.Version(), models.ActionClassified},
		{extractorVersion, models.ActionExtracted},
	}

	for _, entry := range entries {
		if entry.version == "" {
			continue
		}
		sv, err := p.store.Provenance().GetOrCreateVersion(ctx, entry.version)
		if err != nil {
			return err
		}
		graph.Provenance = append(graph.Provenance, models.ProvenanceEntry{
			SoftwareID: sv.ID,
			Action:     entry.action,
		})
	}
	return nil
}

// findHeadline picks the most specific heading whose text survived into
// the cleaned body, trying h6 first and widening to h1.
func findHeadline(htmlDoc *goquery.Document, cleaned string) string {
	for level := 6; level >= 1; level-- {
		headline := ""
		htmlDoc.Find(fmt.Sprintf("h%d", level)).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if text != "" && strings.Contains(cleaned, text) {
				headline = text
				return false
			}
			return true
		})
		if headline != "" {
			return headline
		}
	}
	return ""
}

// sentenceLevel locates the element a sentence came from. Sentences that
// never appear in a known element stay Unknown.
func sentenceLevel(htmlDoc *goquery.Document, sentence string) models.SentenceLevel {
	if strings.TrimSpace(sentence) == "" {
		return models.LevelUnknown
	}

	// The smallest containing element is the one the sentence actually
	// sits in; outer containers also match by containment.
	level := models.LevelUnknown
	best := -1
	htmlDoc.Find("h1, h2, h3, h4, h5, h6, p, li, td, blockquote, div, span").Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if !strings.Contains(text, sentence) {
			return
		}
		if best != -1 && len(text) >= best {
			return
		}
		best = len(text)
		level = models.NormalizeSentenceLevel(strings.ToUpper(goquery.NodeName(s)))
	})
	return level
}
