package ranking

import "github.com/okian/valuematrix/internal/domain/model"

// merge asks a schedule fixed up front by a divide-and-conquer pass. When
// building the schedule every merge step assumes the left element wins, so
// a merge of left and right asks left[i] against right[0] for each i.
// Scores are win counts.
type merge struct {
	roster
	queue  []pair
	cursor int
	tb     tieBreaker
}

func newMerge(items []model.Item, o options) (*merge, error) {
	r, err := newRoster(items, 0)
	if err != nil {
		return nil, err
	}
	idx := make([]int, len(items))
	for k := range idx {
		idx[k] = k
	}
	s := &merge{roster: r, queue: mergeTrace(idx, nil), tb: newTieBreaker(o)}
	s.refill()
	return s, nil
}

// mergeTrace appends the comparisons of a merge sort over idx to out.
func mergeTrace(idx []int, out []pair) []pair {
	if len(idx) <= 1 {
		return out
	}
	mid := len(idx) / 2
	left, right := idx[:mid], idx[mid:]
	out = mergeTrace(left, out)
	out = mergeTrace(right, out)
	for _, l := range left {
		out = append(out, pair{l, right[0]})
	}
	return out
}

func (s *merge) refill() {
	if s.cursor >= len(s.queue) {
		s.queue = append(s.queue, s.tb.round(&s.roster)...)
	}
}

func (s *merge) Kind() Kind { return KindMerge }

func (s *merge) Next() (model.Comparison, bool) {
	if s.Complete() {
		return model.Comparison{}, false
	}
	if s.pending != nil {
		return s.comparison(*s.pending), true
	}
	return s.offer(s.queue[s.cursor]), true
}

func (s *merge) Record(item1ID, item2ID, winnerID string) (model.Decision, error) {
	p, winner, err := s.accept(item1ID, item2ID, winnerID)
	if err != nil {
		return model.Decision{}, err
	}
	s.scores[winner]++
	s.cursor++
	d := s.commit(p, winner)
	s.refill()
	return d, nil
}

func (s *merge) Complete() bool { return s.cursor >= len(s.queue) }

func (s *merge) Progress() model.Progress {
	return model.Progress{Completed: s.cursor, Total: len(s.queue)}
}
