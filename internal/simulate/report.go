package simulate

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/okian/valuematrix/internal/domain/ranking"
)

// StrategyResult aggregates the sessions of one strategy.
type StrategyResult struct {
	Strategy        ranking.Kind
	Sessions        int
	MinComparisons  int
	MaxComparisons  int
	MeanComparisons float64
	MeanOverlap     float64 // fraction of the true top-K recovered
	TopAccuracy     float64 // fraction of sessions whose winner is the true best
}

// Report is the outcome of a simulation run.
type Report struct {
	Items    int
	TopK     int
	Noise    float64
	Duration time.Duration
	Results  []StrategyResult
}

func newReport(cfg Config, outcomes []Outcome, d time.Duration) *Report {
	byKind := make(map[ranking.Kind][]Outcome)
	for _, o := range outcomes {
		byKind[o.Strategy] = append(byKind[o.Strategy], o)
	}

	r := &Report{Items: cfg.Items, TopK: cfg.TopK, Noise: cfg.Noise, Duration: d}
	for _, kind := range cfg.Strategies {
		group := byKind[kind]
		if len(group) == 0 {
			continue
		}
		res := StrategyResult{Strategy: kind, Sessions: len(group), MinComparisons: group[0].Comparisons}
		var comparisons, overlapTotal, top int
		for _, o := range group {
			comparisons += o.Comparisons
			overlapTotal += o.Overlap
			if o.TopCorrect {
				top++
			}
			res.MinComparisons = min(res.MinComparisons, o.Comparisons)
			res.MaxComparisons = max(res.MaxComparisons, o.Comparisons)
		}
		n := float64(len(group))
		res.MeanComparisons = float64(comparisons) / n
		res.MeanOverlap = float64(overlapTotal) / (n * float64(cfg.TopK))
		res.TopAccuracy = float64(top) / n
		r.Results = append(r.Results, res)
	}
	sort.SliceStable(r.Results, func(i, j int) bool {
		return r.Results[i].MeanComparisons < r.Results[j].MeanComparisons
	})
	return r
}

// Result returns the aggregate for one strategy.
func (r *Report) Result(kind ranking.Kind) (StrategyResult, bool) {
	for _, res := range r.Results {
		if res.Strategy == kind {
			return res, true
		}
	}
	return StrategyResult{}, false
}

// Write prints the report as a table, cheapest strategy first.
func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "items=%d k=%d noise=%.2f duration=%s\n", r.Items, r.TopK, r.Noise, r.Duration.Round(time.Millisecond)); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tSESSIONS\tCOMPARISONS\tMIN\tMAX\tTOP-K OVERLAP\tTOP-1")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%d\t%d\t%.0f%%\t%.0f%%\n",
			res.Strategy, res.Sessions, res.MeanComparisons,
			res.MinComparisons, res.MaxComparisons,
			res.MeanOverlap*100, res.TopAccuracy*100)
	}
	return tw.Flush()
}
