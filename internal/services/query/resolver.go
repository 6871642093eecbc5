package query

import (
	"context"
	"sort"

	"github.com/ternarybob/arbor"

	"github.com/Sentimentron/sentropy/internal/interfaces"
)

// keywordPatterns are the LIKE shapes a query term is tried under: exact,
// trailing word, leading word, and interior word.
var keywordPatterns = []string{"%s", "%% %s", "%s %%", "%% %s %%"}

// DomainExpander widens a query domain to every stored subdomain of it.
type DomainExpander struct {
	domains interfaces.DomainStorage
}

// NewDomainExpander creates a domain expander.
func NewDomainExpander(domains interfaces.DomainStorage) *DomainExpander {
	return &DomainExpander{domains: domains}
}

// Expand returns the term plus every stored domain key ending in
// "." + term.
func (e *DomainExpander) Expand(ctx context.Context, term string) ([]string, error) {
	keys := []string{term}
	matched, err := e.domains.FindDomainsLike(ctx, "%."+term)
	if err != nil {
		return nil, err
	}
	for _, d := range matched {
		keys = append(keys, d.Key)
	}
	return dedupe(keys), nil
}

// KeywordExpander widens a query keyword to every stored word containing
// it as a whole word, combining all patterns' matches.
type KeywordExpander struct {
	keywords interfaces.KeywordStorage
	logger   arbor.ILogger
}

// NewKeywordExpander creates a keyword expander.
func NewKeywordExpander(keywords interfaces.KeywordStorage, logger arbor.ILogger) *KeywordExpander {
	return &KeywordExpander{keywords: keywords, logger: logger}
}

// Expand returns the term plus every stored keyword word matching one of
// the fuzzy patterns.
func (e *KeywordExpander) Expand(ctx context.Context, term string) ([]string, error) {
	words := []string{term}
	for _, pattern := range keywordPatterns {
		matched, err := e.keywords.FindWordsLike(ctx, expandPattern(pattern, term))
		if err != nil {
			return nil, err
		}
		for _, k := range matched {
			words = append(words, k.Word)
		}
	}
	return dedupe(words), nil
}

// expandPattern substitutes the term into a %s-style pattern, turning the
// %% escapes into literal LIKE wildcards.
func expandPattern(pattern, term string) string {
	out := make([]byte, 0, len(pattern)+len(term))
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '%' {
			out = append(out, pattern[i])
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == 's' {
			out = append(out, term...)
			i++
			continue
		}
		if i+1 < len(pattern) && pattern[i+1] == '%' {
			out = append(out, '%')
			i++
			continue
		}
		out = append(out, '%')
	}
	return string(out)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, v := range values {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
