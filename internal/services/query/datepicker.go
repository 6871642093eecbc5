package query

import (
	"context"
	"fmt"
	"time"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
	"github.com/Sentimentron/sentropy/internal/models"
)

// DateResolution is the publication date picked for a document and how it
// was obtained.
type DateResolution struct {
	Method models.DateMethod
	Date   time.Time
}

type dateResolver interface {
	resolve(ctx context.Context, documentID int64) (*DateResolution, error)
}

// certainResolver picks the certain date nearest the configured body
// position.
type certainResolver struct {
	docs     interfaces.DocumentReader
	position int
}

func (r *certainResolver) resolve(ctx context.Context, documentID int64) (*DateResolution, error) {
	cd, err := r.docs.ClosestCertainDate(ctx, documentID, r.position)
	if err != nil || cd == nil {
		return nil, err
	}
	return &DateResolution{Method: models.DateMethodCertain, Date: cd.Date}, nil
}

// uncertainResolver picks the ambiguous interpretation nearest its
// configured position, restricted to a plausible year window.
type uncertainResolver struct {
	docs     interfaces.DocumentReader
	position int
	yearMin  int
	yearMax  int
}

func (r *uncertainResolver) resolve(ctx context.Context, documentID int64) (*DateResolution, error) {
	ad, err := r.docs.ClosestAmbiguousDate(ctx, documentID, r.position, r.yearMin, r.yearMax)
	if err != nil || ad == nil {
		return nil, err
	}
	return &DateResolution{Method: models.DateMethodUncertain, Date: ad.Date}, nil
}

// crawledResolver falls back to the article's crawl date, which always
// exists.
type crawledResolver struct {
	docs interfaces.DocumentReader
}

func (r *crawledResolver) resolve(ctx context.Context, documentID int64) (*DateResolution, error) {
	crawled, err := r.docs.CrawledDate(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DateResolution{Method: models.DateMethodCrawled, Date: crawled}, nil
}

// DatePicker stacks date resolvers: the first one that produces a date
// wins. Order is certain, then uncertain, then crawled.
type DatePicker struct {
	resolvers []dateResolver
}

// NewDatePicker builds the standard resolver stack from config.
func NewDatePicker(docs interfaces.DocumentReader, config *common.QueryConfig) *DatePicker {
	return &DatePicker{
		resolvers: []dateResolver{
			&certainResolver{docs: docs, position: config.CertainPosition},
			&uncertainResolver{
				docs:     docs,
				position: config.UncertainPosition,
				yearMin:  config.UncertainYearMin,
				yearMax:  config.UncertainYearMax,
			},
			&crawledResolver{docs: docs},
		},
	}
}

// Pick resolves the publication date for a document.
func (p *DatePicker) Pick(ctx context.Context, documentID int64) (*DateResolution, error) {
	for _, r := range p.resolvers {
		res, err := r.resolve(ctx, documentID)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}
	return nil, fmt.Errorf("no date resolvable for document %d", documentID)
}
