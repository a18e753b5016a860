package mcts

import (
	"time"

	"gonum.org/v1/gonum/stat"
	"k8s.io/klog/v2"
)

// Summary condenses a finished search for reporting.
type Summary struct {
	Rollouts      int
	FinishedCount int
	BestScore     float64

	// BestScoreTime is the wall-clock delta from the search start to the
	// moment the best level was produced.
	BestScoreTime time.Duration

	// MeanScore and StdScore of all finished levels (sample standard
	// deviation, Bessel-corrected).
	MeanScore, StdScore float64
}

// Summarize computes the run summary. rollouts is the counter returned by
// the run loop.
func (t *Search) Summarize(rollouts int) Summary {
	s := Summary{
		Rollouts:      rollouts,
		FinishedCount: len(t.finished),
		BestScore:     t.bestScore,
	}
	if when, ok := t.BestScoreTime(); ok {
		s.BestScoreTime = when
	}
	if len(t.finished) > 0 {
		scores := make([]float64, len(t.finished))
		for i, level := range t.finished {
			scores[i] = float64(level.Score)
		}
		s.MeanScore = stat.Mean(scores, nil)
		if len(scores) > 1 {
			s.StdScore = stat.StdDev(scores, nil)
		}
	}
	return s
}

// Log prints the summary.
func (s Summary) Log() {
	klog.Infof("simulation count: %d", s.Rollouts)
	klog.Infof("finished levels: %d (score mean=%.4f std=%.4f)",
		s.FinishedCount, s.MeanScore, s.StdScore)
	klog.Infof("best score: %.4f after %s", s.BestScore, s.BestScoreTime)
}
