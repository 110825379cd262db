package ranking_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

// cyclic prefers the lower id except inside the triple a, b, c where a beats
// b, b beats c and c beats a.
func cyclic(a, b, c string) func(model.Comparison) string {
	beats := map[model.Pair]string{
		model.NewPair(a, b): a,
		model.NewPair(b, c): b,
		model.NewPair(a, c): c,
	}
	return func(q model.Comparison) string {
		if w, ok := beats[q.Pair()]; ok {
			return w
		}
		if q.Item1.ID < q.Item2.ID {
			return q.Item1.ID
		}
		return q.Item2.ID
	}
}

// groupPairs lists every pair of group in input order, skipping those in seen.
func groupPairs(seen []model.Pair, group ...string) []model.Pair {
	skip := make(map[model.Pair]bool, len(seen))
	for _, p := range seen {
		skip[p] = true
	}
	var out []model.Pair
	for a := 0; a < len(group); a++ {
		for b := a + 1; b < len(group); b++ {
			if p := model.NewPair(group[a], group[b]); !skip[p] {
				out = append(out, p)
			}
		}
	}
	return out
}

func pairs(cs []model.Comparison) []model.Pair {
	out := make([]model.Pair, len(cs))
	for i, c := range cs {
		out[i] = c.Pair()
	}
	return out
}

func TestTieBreakRounds(t *testing.T) {
	Convey("Given a 12 item merge session whose first tie-break leaves a new tie at the boundary", t, func() {
		pick := cyclic("v06", "v10", "v09")
		round1 := groupPairs(nil, "v05", "v06", "v08", "v09")

		Convey("When every round is allowed", func() {
			s, err := ranking.New(ranking.KindMerge, makeItems(12))
			So(err, ShouldBeNil)
			asked := drive(s, pick)

			Convey("Then the second round asks only pairs the first did not", func() {
				round2 := groupPairs(round1, "v02", "v03", "v04", "v06", "v07", "v08", "v09", "v10")
				So(round2, ShouldHaveLength, 25)
				So(asked, ShouldHaveLength, 20+len(round1)+len(round2))
				So(cmp.Diff(round1, pairs(asked[20:26])), ShouldBeEmpty)
				So(cmp.Diff(round2, pairs(asked[26:])), ShouldBeEmpty)
				So(s.Progress(), ShouldResemble, model.Progress{Completed: 51, Total: 51})
				So(ids(s.TopK(11)), ShouldResemble, []string{
					"v02", "v03", "v04", "v07", "v05", "v06", "v00", "v01", "v08", "v10", "v09",
				})
			})
		})

		Convey("When only one round is allowed", func() {
			s, err := ranking.New(ranking.KindMerge, makeItems(12), ranking.WithMaxTieBreakRounds(1))
			So(err, ShouldBeNil)
			asked := drive(s, pick)

			Convey("Then it stops with the boundary still tied", func() {
				So(asked, ShouldHaveLength, 26)
				So(cmp.Diff(round1, pairs(asked[20:])), ShouldBeEmpty)
				top := s.TopK(11)
				So(top[9].Score, ShouldEqual, top[10].Score)
				So(ids(top), ShouldResemble, []string{
					"v05", "v00", "v01", "v02", "v03", "v04", "v06", "v07", "v08", "v09", "v10",
				})
			})
		})
	})

	Convey("Given a 12 item merge session whose boundary tie outlives its questions", t, func() {
		s, err := ranking.New(ranking.KindMerge, makeItems(12))
		So(err, ShouldBeNil)
		asked := drive(s, cyclic("v00", "v10", "v05"))

		Convey("Then it completes once the tied pair has already been asked", func() {
			round1 := groupPairs(nil, "v05", "v08", "v09", "v10")
			round2 := groupPairs(round1, "v02", "v03", "v04", "v06", "v07", "v09", "v10")
			So(asked, ShouldHaveLength, 46)
			So(cmp.Diff(append(round1, round2...), pairs(asked[20:])), ShouldBeEmpty)
			So(s.Complete(), ShouldBeTrue)
			_, ok := s.Next()
			So(ok, ShouldBeFalse)
		})

		Convey("Then tied items keep their input order", func() {
			top := s.TopK(12)
			So(ids(top), ShouldResemble, []string{
				"v02", "v03", "v04", "v06", "v07", "v00", "v01", "v05", "v08", "v09", "v10", "v11",
			})
			So(top[9].Score, ShouldEqual, 2)
			So(top[10].Score, ShouldEqual, 2)
		})
	})

	Convey("Given a 12 item incremental session with a tied top-10 boundary", t, func() {
		s, err := ranking.New(ranking.KindIncremental, makeItems(12))
		So(err, ShouldBeNil)
		asked := drive(s, firstWins)

		Convey("Then one tie-break round runs after the sort", func() {
			So(asked, ShouldHaveLength, 26)
			So(cmp.Diff(groupPairs(nil, "v05", "v08", "v09", "v10"), pairs(asked[20:])), ShouldBeEmpty)
			So(s.Progress(), ShouldResemble, model.Progress{Completed: 26, Total: 26})
			So(s.TopK(1)[0].ID, ShouldEqual, "v05")
		})
	})

	Convey("Given a 12 item incremental session whose boundary tie outlives its questions", t, func() {
		s, err := ranking.New(ranking.KindIncremental, makeItems(12))
		So(err, ShouldBeNil)
		asked := drive(s, cyclic("v00", "v10", "v05"))

		Convey("Then it asks two rounds and keeps the remaining tie in input order", func() {
			So(asked, ShouldHaveLength, 46)
			So(s.Complete(), ShouldBeTrue)
			So(ids(s.TopK(12)), ShouldResemble, []string{
				"v02", "v03", "v04", "v06", "v07", "v00", "v01", "v05", "v08", "v09", "v10", "v11",
			})
		})
	})
}
