package ranking

import "github.com/okian/valuematrix/internal/domain/model"

// mergeNode merges work[lo:mid] with work[mid:hi].
type mergeNode struct {
	lo, mid, hi int
}

// incremental is a bottom-up merge sort driven one answer at a time. Each
// answer decides which head advances, so later questions depend on earlier
// ones. Scores are win counts and the tie-break runs after the sort.
type incremental struct {
	roster
	work   []int
	nodes  []mergeNode
	suffix []int
	node   int
	i, j   int
	buf    []int
	extra  []pair
	cursor int
	tb     tieBreaker
}

func newIncremental(items []model.Item, o options) (*incremental, error) {
	r, err := newRoster(items, 0)
	if err != nil {
		return nil, err
	}
	n := len(items)
	s := &incremental{roster: r, work: make([]int, n), tb: newTieBreaker(o)}
	for k := range s.work {
		s.work[k] = k
	}
	s.nodes = planMerges(0, n, nil)
	s.suffix = make([]int, len(s.nodes)+1)
	for k := len(s.nodes) - 1; k >= 0; k-- {
		nd := s.nodes[k]
		s.suffix[k] = s.suffix[k+1] + nd.hi - nd.lo - 1
	}
	s.refill()
	return s, nil
}

// planMerges lists merge steps over [lo, hi) in post-order.
func planMerges(lo, hi int, out []mergeNode) []mergeNode {
	if hi-lo <= 1 {
		return out
	}
	mid := lo + (hi-lo)/2
	out = planMerges(lo, mid, out)
	out = planMerges(mid, hi, out)
	return append(out, mergeNode{lo, mid, hi})
}

func (s *incremental) sorting() bool { return s.node < len(s.nodes) }

func (s *incremental) refill() {
	if !s.sorting() && s.cursor >= len(s.extra) {
		s.extra = append(s.extra, s.tb.round(&s.roster)...)
	}
}

func (s *incremental) Kind() Kind { return KindIncremental }

func (s *incremental) Next() (model.Comparison, bool) {
	if s.Complete() {
		return model.Comparison{}, false
	}
	if s.pending != nil {
		return s.comparison(*s.pending), true
	}
	if s.sorting() {
		nd := s.nodes[s.node]
		return s.offer(pair{s.work[nd.lo+s.i], s.work[nd.mid+s.j]}), true
	}
	return s.offer(s.extra[s.cursor]), true
}

func (s *incremental) Record(item1ID, item2ID, winnerID string) (model.Decision, error) {
	p, winner, err := s.accept(item1ID, item2ID, winnerID)
	if err != nil {
		return model.Decision{}, err
	}
	s.scores[winner]++
	if s.sorting() {
		s.advance(winner == p.i)
	} else {
		s.cursor++
	}
	d := s.commit(p, winner)
	s.refill()
	return d, nil
}

// advance moves the winning head into the merge buffer and closes the node
// once either run is drained.
func (s *incremental) advance(leftWon bool) {
	nd := s.nodes[s.node]
	if leftWon {
		s.buf = append(s.buf, s.work[nd.lo+s.i])
		s.i++
	} else {
		s.buf = append(s.buf, s.work[nd.mid+s.j])
		s.j++
	}
	if nd.lo+s.i < nd.mid && nd.mid+s.j < nd.hi {
		return
	}
	s.buf = append(s.buf, s.work[nd.lo+s.i:nd.mid]...)
	s.buf = append(s.buf, s.work[nd.mid+s.j:nd.hi]...)
	copy(s.work[nd.lo:nd.hi], s.buf)
	s.buf = s.buf[:0]
	s.i, s.j = 0, 0
	s.node++
}

func (s *incremental) Complete() bool {
	return !s.sorting() && s.cursor >= len(s.extra)
}

// Progress reports a total equal to the answers so far plus an upper bound
// on the questions left in the sort and any queued tie-break.
func (s *incremental) Progress() model.Progress {
	done := len(s.decisions)
	left := len(s.extra) - s.cursor
	if s.sorting() {
		nd := s.nodes[s.node]
		left += (nd.mid - nd.lo - s.i) + (nd.hi - nd.mid - s.j) - 1
		left += s.suffix[s.node+1]
	}
	return model.Progress{Completed: done, Total: done + left}
}

// Sorted returns the items in the order established by the merge sort once
// it has finished, best first. It returns nil while sorting is in progress.
func (s *incremental) Sorted() []model.Item {
	if s.sorting() {
		return nil
	}
	out := make([]model.Item, len(s.work))
	for k, idx := range s.work {
		it := s.items[idx]
		it.Score = s.scores[idx]
		out[k] = it
	}
	return out
}
