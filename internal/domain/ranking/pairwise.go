package ranking

import "github.com/okian/valuematrix/internal/domain/model"

// pairwise presents all N(N-1)/2 pairs in lexicographic index order.
type pairwise struct {
	roster
	pairs  []pair
	cursor int
}

func newPairwise(items []model.Item) (*pairwise, error) {
	r, err := newRoster(items, 0)
	if err != nil {
		return nil, err
	}
	n := len(items)
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	return &pairwise{roster: r, pairs: pairs}, nil
}

func (s *pairwise) Kind() Kind { return KindPairwise }

func (s *pairwise) Next() (model.Comparison, bool) {
	if s.cursor >= len(s.pairs) {
		return model.Comparison{}, false
	}
	if s.pending != nil {
		return s.comparison(*s.pending), true
	}
	return s.offer(s.pairs[s.cursor]), true
}

func (s *pairwise) Record(item1ID, item2ID, winnerID string) (model.Decision, error) {
	p, winner, err := s.accept(item1ID, item2ID, winnerID)
	if err != nil {
		return model.Decision{}, err
	}
	s.scores[winner]++
	s.cursor++
	return s.commit(p, winner), nil
}

func (s *pairwise) Complete() bool { return s.cursor >= len(s.pairs) }

func (s *pairwise) Progress() model.Progress {
	return model.Progress{Completed: s.cursor, Total: len(s.pairs)}
}
