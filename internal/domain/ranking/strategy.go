// Package ranking implements the pairwise comparison strategies that turn a
// sequence of "A or B" decisions into a ranked list of items.
package ranking

import (
	"fmt"
	"strings"

	"github.com/okian/valuematrix/internal/domain/model"
)

// Kind names a ranking strategy.
type Kind string

const (
	// KindPairwise asks every unordered pair once.
	KindPairwise Kind = "pairwise"
	// KindMerge asks a precomputed divide-and-conquer merge trace.
	KindMerge Kind = "merge"
	// KindIncremental runs a merge sort whose next question depends on the
	// previous answer.
	KindIncremental Kind = "incremental"
	// KindElo asks a bounded number of rating driven comparisons.
	KindElo Kind = "elo"
)

// Kinds lists every supported strategy in display order.
func Kinds() []Kind {
	return []Kind{KindPairwise, KindMerge, KindIncremental, KindElo}
}

// ParseKind resolves a strategy name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindPairwise, KindMerge, KindIncremental, KindElo:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Description is a short human readable summary of the strategy.
func (k Kind) Description() string {
	switch k {
	case KindPairwise:
		return "Compare every pair once. Exact but quadratic."
	case KindMerge:
		return "Fixed merge sort trace with win counting. About n log n questions."
	case KindIncremental:
		return "Adaptive merge sort. Each answer picks the next question."
	case KindElo:
		return "Elo ratings over a bounded budget, focusing on the leaders late."
	}
	return ""
}

// Strategy is the common contract of all ranking strategies. A strategy is
// not safe for concurrent use; callers serialize access per session.
type Strategy interface {
	// Kind reports which strategy this is.
	Kind() Kind
	// Next returns the comparison to present. It is idempotent until a
	// decision is recorded. ok is false once the session is complete.
	Next() (c model.Comparison, ok bool)
	// Record applies the answer to the active comparison. The pair may be
	// given in either order. Invalid decisions leave state unchanged.
	Record(item1ID, item2ID, winnerID string) (model.Decision, error)
	// Complete reports whether no comparisons remain.
	Complete() bool
	// TopK returns the best k items, best first.
	TopK(k int) []model.Item
	// Progress reports completed and expected total comparisons.
	Progress() model.Progress
	// Decisions returns the recorded decisions in order.
	Decisions() []model.Decision
	// Items returns all items in input order with current scores.
	Items() []model.Item
}

// New builds a strategy of the given kind over items. Items keep their
// input order, which is also the tie order for equal scores.
func New(kind Kind, items []model.Item, opts ...Option) (Strategy, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	var (
		s   Strategy
		err error
	)
	switch kind {
	case KindPairwise:
		s, err = newPairwise(items)
	case KindMerge:
		s, err = newMerge(items, o)
	case KindIncremental:
		s, err = newIncremental(items, o)
	case KindElo:
		s, err = newElo(items, o)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, kind)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Sorter is implemented by strategies that build a full order alongside
// their scores.
type Sorter interface {
	// Sorted returns all items best first, or nil until the order is known.
	Sorted() []model.Item
}
