package query

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/models"
	"github.com/Sentimentron/sentropy/internal/services/objectstore"
)

func TestResultKey(t *testing.T) {
	assert.Equal(t, "results/42", ResultKey(42))
}

func TestPresent_PublishesAndFulfills(t *testing.T) {
	store := newTestManager(t)
	objects, err := objectstore.NewFilesystem(t.TempDir(), arbor.NewLogger())
	require.NoError(t, err)
	ctx := context.Background()

	uq, err := store.Queries().GetOrCreateQuery(ctx, "science news.example.com", "")
	require.NoError(t, err)

	date := time.Date(2008, time.March, 1, 0, 0, 0, 0, time.UTC)
	result := &Result{
		QueryText: "science news.example.com",
		Keywords:  []string{"science"},
		Rows: []DocumentRow{{
			DocumentID:      7,
			Domain:          "news.example.com",
			Method:          models.DateMethodCertain,
			Date:            date,
			PosPhrases:      3,
			NegPhrases:      1,
			PosSentences:    2,
			NegSentences:    1,
			RelevantPos:     2,
			RelevantNeg:     0,
			Label:           models.LabelPositive,
			PhraseProbTotal: 1.2345,
		}},
		Elapsed: 1234 * time.Millisecond,
	}

	config := testQueryConfig()
	presenter := NewPresenter(store.Queries(), objects, nil, config, arbor.NewLogger())
	require.NoError(t, presenter.Present(ctx, uq, result, nil))

	rc, err := objects.Get(ctx, config.ResultBucket, ResultKey(uq.ID))
	require.NoError(t, err)
	defer rc.Close()
	payload, err := io.ReadAll(rc)
	require.NoError(t, err)

	var doc struct {
		Info struct {
			QueryText         string   `json:"query_text"`
			ResultVersion     int      `json:"result_version"`
			KeywordsSet       []string `json:"keywords_set"`
			UsingKeywords     int      `json:"using_keywords"`
			DocumentsReturned int      `json:"documents_returned"`
			PhrasesReturned   int      `json:"phrases_returned"`
			SentencesReturned int      `json:"sentences_returned"`
			QueryTime         float64  `json:"query_time"`
		} `json:"info"`
		Domains map[string]struct {
			Docs [][]interface{} `json:"docs"`
		} `json:"domains"`
	}
	require.NoError(t, json.Unmarshal(payload, &doc))

	assert.Equal(t, 2, doc.Info.ResultVersion)
	assert.Equal(t, "science news.example.com", doc.Info.QueryText)
	assert.Equal(t, []string{"science"}, doc.Info.KeywordsSet)
	assert.Equal(t, 1, doc.Info.UsingKeywords)
	assert.Equal(t, 1, doc.Info.DocumentsReturned)
	assert.Equal(t, 4, doc.Info.PhrasesReturned)
	assert.Equal(t, 3, doc.Info.SentencesReturned)
	assert.InDelta(t, 1.23, doc.Info.QueryTime, 0.001)

	rows := doc.Domains["news.example.com"].Docs
	require.Len(t, rows, 1)
	row := rows[0]
	require.Len(t, row, 11)
	assert.Equal(t, float64(0), row[0])                    // certain date method
	assert.Equal(t, float64(date.UnixMilli()), row[1])     // date in millis
	assert.Equal(t, float64(3), row[2])                    // positive phrases
	assert.Equal(t, float64(1), row[3])                    // negative phrases
	assert.Equal(t, float64(2), row[4])                    // positive sentences
	assert.Equal(t, float64(1), row[5])                    // negative sentences
	assert.Equal(t, float64(2), row[6])                    // relevant positive
	assert.Equal(t, float64(0), row[7])                    // relevant negative
	assert.Equal(t, float64(1), row[8])                    // polarity
	assert.Equal(t, 1.23, row[9])                          // phrase prob, 2dp
	assert.Equal(t, float64(7), row[10])                   // document id

	loaded, err := store.Queries().GetQuery(ctx, uq.ID)
	require.NoError(t, err)
	assert.NotNil(t, loaded.FulfilledAt)
}
