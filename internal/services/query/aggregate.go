package query

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/common"
	"github.com/Sentimentron/sentropy/internal/interfaces"
)

const (
	keywordChainPool    = 50
	keywordChainSamples = 15
	externalTopDomains  = 5
)

// DomainSummary is the per-domain auxiliary block of a query result:
// which domains get linked to, how much of the site the result set
// covers, and a sample of its key terms.
type DomainSummary struct {
	External map[string]int `json:"external"`
	Coverage float64        `json:"coverage"`
	Keywords []string       `json:"keywords"`
}

// Aggregator computes the per-domain summaries over a result set.
type Aggregator struct {
	store  interfaces.StorageManager
	logger arbor.ILogger
	rng    *rand.Rand
}

// NewAggregator creates an aggregator.
func NewAggregator(store interfaces.StorageManager, logger arbor.ILogger, rng *rand.Rand) *Aggregator {
	return &Aggregator{store: store, logger: logger, rng: rng}
}

type domainAccumulator struct {
	external map[string]int
	chains   map[string]int
	known    map[int64]struct{}
	all      map[int64]struct{}
}

// Summarize builds a summary per result domain.
func (a *Aggregator) Summarize(ctx context.Context, rows []DocumentRow) (map[string]*DomainSummary, error) {
	accs := make(map[string]*domainAccumulator)
	domainKeys := make(map[int64]string)

	for _, row := range rows {
		acc, ok := accs[row.Domain]
		if !ok {
			acc = &domainAccumulator{
				external: make(map[string]int),
				chains:   make(map[string]int),
				known:    make(map[int64]struct{}),
				all:      make(map[int64]struct{}),
			}
			accs[row.Domain] = acc
		}
		if err := a.accumulate(ctx, acc, row, domainKeys); err != nil {
			return nil, err
		}
	}

	summaries := make(map[string]*DomainSummary, len(accs))
	for domain, acc := range accs {
		summaries[domain] = a.finalize(acc)
	}
	return summaries, nil
}

func (a *Aggregator) accumulate(ctx context.Context, acc *domainAccumulator, row DocumentRow, domainKeys map[int64]string) error {
	doc, err := a.store.Documents().GetDocument(ctx, row.DocumentID)
	if err != nil || doc == nil {
		return err
	}
	article, err := a.store.Articles().GetArticle(ctx, doc.ArticleID)
	if err != nil || article == nil {
		return err
	}
	acc.known[article.ID] = struct{}{}

	// Internal links: pages of the same site the document points at.
	relative, err := a.store.Documents().RelativeLinksForDocument(ctx, row.DocumentID)
	if err != nil {
		return err
	}
	for _, link := range relative {
		path := common.StripFragment(link.Path)
		ids, err := a.store.Articles().FindArticleIDsByPath(ctx, article.DomainID, path)
		if err != nil {
			return err
		}
		for _, id := range ids {
			acc.all[id] = struct{}{}
		}
		acc.external[row.Domain] += len(ids)
	}

	absolute, err := a.store.Documents().AbsoluteLinksForDocument(ctx, row.DocumentID)
	if err != nil {
		return err
	}
	for _, link := range absolute {
		if link.DomainID == article.DomainID {
			path := common.StripFragment(link.Path)
			ids, err := a.store.Articles().FindArticleIDsByPath(ctx, article.DomainID, path)
			if err != nil {
				return err
			}
			for _, id := range ids {
				acc.all[id] = struct{}{}
			}
			acc.external[row.Domain] += len(ids)
			continue
		}

		key, ok := domainKeys[link.DomainID]
		if !ok {
			domain, err := a.store.Domains().GetDomain(ctx, link.DomainID)
			if err != nil {
				return err
			}
			if domain == nil {
				continue
			}
			key = domain.Key
			domainKeys[link.DomainID] = key
		}
		acc.external[key]++
	}

	// Key term chains: consecutive adjacencies sharing a word merge into
	// longer terms.
	pairs, err := a.store.Documents().AdjacencyWordsForDocument(ctx, row.DocumentID)
	if err != nil {
		return err
	}
	chains := make(map[string][]string)
	for _, pair := range pairs {
		word1, word2 := pair[0], pair[1]
		if form, ok := chains[word1]; ok {
			form = append(form, word2)
			delete(chains, word1)
			chains[word2] = form
			continue
		}
		chains[word2] = []string{word1, word2}
	}
	for _, form := range chains {
		acc.chains[strings.Join(form, " ")]++
	}
	return nil
}

func (a *Aggregator) finalize(acc *domainAccumulator) *DomainSummary {
	summary := &DomainSummary{
		External: make(map[string]int),
	}

	// Coverage: share of linked site pages that the result set already
	// contains.
	if len(acc.all) > 0 {
		intersection := 0
		union := len(acc.all)
		for id := range acc.known {
			if _, ok := acc.all[id]; ok {
				intersection++
			} else {
				union++
			}
		}
		summary.Coverage = math.Round(100.0 * float64(intersection) / float64(union))
	}

	// Link histogram: the five most linked domains plus a count of the
	// rest.
	type domainCount struct {
		key   string
		count int
	}
	ranked := make([]domainCount, 0, len(acc.external))
	for key, count := range acc.external {
		ranked = append(ranked, domainCount{key, count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})
	others := 0
	for i, dc := range ranked {
		if i < externalTopDomains {
			summary.External[dc.key] = dc.count
			continue
		}
		others++
	}
	summary.External["others"] = others

	// Key terms: a random sample out of the most frequent chains.
	type chainCount struct {
		chain string
		count int
	}
	chains := make([]chainCount, 0, len(acc.chains))
	for chain, count := range acc.chains {
		chains = append(chains, chainCount{chain, count})
	}
	sort.Slice(chains, func(i, j int) bool {
		if chains[i].count != chains[j].count {
			return chains[i].count > chains[j].count
		}
		return chains[i].chain < chains[j].chain
	})
	if len(chains) > keywordChainPool {
		chains = chains[:keywordChainPool]
	}
	a.rng.Shuffle(len(chains), func(i, j int) {
		chains[i], chains[j] = chains[j], chains[i]
	})
	limit := keywordChainSamples
	if len(chains) < limit {
		limit = len(chains)
	}
	for _, cc := range chains[:limit] {
		summary.Keywords = append(summary.Keywords, cc.chain)
	}
	sort.Strings(summary.Keywords)

	return summary
}
