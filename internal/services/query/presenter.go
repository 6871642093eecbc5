package query

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
)

// resultVersion tags the JSON layout for consumers.
const resultVersion = 2

// resultInfo is the summary block of a presented result.
type resultInfo struct {
	QueryText         string   `json:"query_text"`
	ResultVersion     int      `json:"result_version"`
	KeywordsSet       []string `json:"keywords_set"`
	KeywordsReturned  int      `json:"keywords_returned"`
	UsingKeywords     int      `json:"using_keywords"`
	DocumentsReturned int      `json:"documents_returned"`
	PhrasesReturned   int      `json:"phrases_returned"`
	SentencesReturned int      `json:"sentences_returned"`
	QueryTime         float64  `json:"query_time"`
	Message           string   `json:"message,omitempty"`
}

// domainResult carries the per-domain document rows. Each row is the
// positional form [method, date, pos_phrases, neg_phrases, pos_sentences,
// neg_sentences, relevant_pos, relevant_neg, label, phrase_prob, id].
type domainResult struct {
	Docs [][]interface{} `json:"docs"`
}

type resultDocument struct {
	Info    resultInfo                `json:"info"`
	Domains map[string]*domainResult  `json:"domains"`
	Aux     map[string]*DomainSummary `json:"aux"`
}

// Presenter renders a query result to JSON, publishes it to the result
// bucket, and notifies the submitter.
type Presenter struct {
	queries interfaces.UserQueryStorage
	objects interfaces.ObjectStore
	mailer  interfaces.Mailer
	config  *common.QueryConfig
	logger  arbor.ILogger
}

// NewPresenter creates a presenter. The mailer may be nil when outbound
// mail is not configured.
func NewPresenter(queries interfaces.UserQueryStorage, objects interfaces.ObjectStore, mailer interfaces.Mailer, config *common.QueryConfig, logger arbor.ILogger) *Presenter {
	return &Presenter{
		queries: queries,
		objects: objects,
		mailer:  mailer,
		config:  config,
		logger:  logger,
	}
}

// ResultKey is where a query's rendered result lives in the bucket.
func ResultKey(queryID int64) string {
	return fmt.Sprintf("results/%d", queryID)
}

// Present renders and publishes the result, marks the query fulfilled,
// and emails the submitter when an address is on file.
func (p *Presenter) Present(ctx context.Context, uq *models.UserQuery, result *Result, aux map[string]*DomainSummary) error {
	document := p.render(result, aux)

	payload, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result for query %d: %w", uq.ID, err)
	}

	key := ResultKey(uq.ID)
	if err := p.objects.Put(ctx, p.config.ResultBucket, key, payload); err != nil {
		return fmt.Errorf("publish result for query %d: %w", uq.ID, err)
	}

	if err := p.queries.MarkFulfilled(ctx, uq.ID, time.Now()); err != nil {
		return err
	}

	if p.mailer != nil && uq.Email != "" {
		body := fmt.Sprintf(
			"Your query %q has finished.\n\nThe result is available as %s in %s.\n",
			uq.Text, key, p.config.ResultBucket)
		if err := p.mailer.Send(ctx, uq.Email, "Your query results are ready", body); err != nil {
			// Publication succeeded; a failed notification is not fatal.
			p.logger.Warn().Err(err).Int64("query_id", uq.ID).Msg("Failed to send result notification")
		}
	}

	p.logger.Info().
		Int64("query_id", uq.ID).
		Str("bucket", p.config.ResultBucket).
		Str("key", key).
		Int("documents", document.Info.DocumentsReturned).
		Msg("Query result published")
	return nil
}

func (p *Presenter) render(result *Result, aux map[string]*DomainSummary) *resultDocument {
	info := resultInfo{
		QueryText:        result.QueryText,
		ResultVersion:    resultVersion,
		KeywordsSet:      result.Keywords,
		KeywordsReturned: len(result.Keywords),
		QueryTime:        math.Round(result.Elapsed.Seconds()*100) / 100,
		Message:          result.Message,
	}
	if len(result.Keywords) > 0 {
		info.UsingKeywords = 1
	}

	domains := make(map[string]*domainResult)
	for _, row := range result.Rows {
		dr, ok := domains[row.Domain]
		if !ok {
			dr = &domainResult{}
			domains[row.Domain] = dr
		}
		dr.Docs = append(dr.Docs, []interface{}{
			row.Method.Code(),
			row.Date.UnixMilli(),
			row.PosPhrases,
			row.NegPhrases,
			row.PosSentences,
			row.NegSentences,
			row.RelevantPos,
			row.RelevantNeg,
			row.Label.Polarity(),
			math.Round(row.PhraseProbTotal*100) / 100,
			row.DocumentID,
		})

		info.DocumentsReturned++
		info.PhrasesReturned += row.PosPhrases + row.NegPhrases
		info.SentencesReturned += row.PosSentences + row.NegSentences
	}

	return &resultDocument{Info: info, Domains: domains, Aux: aux}
}
