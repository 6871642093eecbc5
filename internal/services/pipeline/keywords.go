package pipeline

import (
	"fmt"
	"strings"

	"github.com/Sentimentron/sentropy/internal/common"
)

// errKeywordLimit signals the working set is full; callers stop adding.
var errKeywordLimit = fmt.Errorf("keyword limit exceeded")

// KeywordSet is the bounded working set of candidate keywords for one
// document. Stop-listed terms are rejected without consuming capacity.
type KeywordSet struct {
	words    []string
	present  map[string]struct{}
	stopList common.StopList
	limit    int
}

// NewKeywordSet creates a working set holding at most limit terms.
func NewKeywordSet(stopList common.StopList, limit int) *KeywordSet {
	return &KeywordSet{
		present:  make(map[string]struct{}),
		stopList: stopList,
		limit:    limit,
	}
}

// Add inserts a trimmed term. It returns false without error when the
// term is stop-listed or already present, and errKeywordLimit once the
// set is full.
func (k *KeywordSet) Add(term string) (bool, error) {
	if len(k.words) >= k.limit {
		return false, errKeywordLimit
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return false, nil
	}
	if k.stopList.Contains(term) {
		return false, nil
	}
	if _, ok := k.present[term]; ok {
		return false, nil
	}

	k.present[term] = struct{}{}
	k.words = append(k.words, term)
	return true, nil
}

// Len returns the number of accepted terms.
func (k *KeywordSet) Len() int {
	return len(k.words)
}

// Words returns the accepted terms in insertion order.
func (k *KeywordSet) Words() []string {
	out := make([]string, len(k.words))
	copy(out, k.words)
	return out
}
