package mcts

import (
	"math"

	"github.com/pkg/errors"
)

// DecisionFunc maps a node to the value maximized by the selection step.
// All policies return +Inf for unvisited nodes so every child is sampled at
// least once.
type DecisionFunc func(*Node) float64

// Decision resolves the configured policy name.
func (s *Settings) Decision() (DecisionFunc, error) {
	switch s.Policy {
	case "ucb1":
		c := s.UCB1C
		return func(n *Node) float64 {
			return ucb1(n.scoreSum, n.parent.rolloutCount, n.rolloutCount, c)
		}, nil
	case "ucb1-tuned":
		return func(n *Node) float64 {
			return ucb1Tuned(n.scoreSum, n.squaredScoreSum, n.parent.rolloutCount, n.rolloutCount)
		}, nil
	case "ucb-v":
		return func(n *Node) float64 {
			return ucbV(n.scoreSum, n.squaredScoreSum, n.parent.rolloutCount, n.rolloutCount)
		}, nil
	case "sp-mcts":
		c, d := s.UCB1C, s.SPMCTSD
		return func(n *Node) float64 {
			return spMCTS(n.scoreSum, n.squaredScoreSum, n.parent.rolloutCount, n.rolloutCount, c, d)
		}, nil
	}
	return nil, errors.Errorf("unknown selection policy %q, want one of ucb1, ucb1-tuned, ucb-v, sp-mcts", s.Policy)
}

// ucb1 is the default upper confidence bound. The survey recommends 2*C with
// C = 1/sqrt(2) as the exploration constant, which is the default c here.
func ucb1(score float64, totalN, localN int, c float64) float64 {
	if localN == 0 {
		return math.Inf(1)
	}
	total := float64(totalN)
	local := float64(localN)
	avg := score / local
	return avg + 2.0*c*math.Sqrt(2.0*math.Log(total)/local)
}

// sampleVariance of the node's rollout scores, with Bessel's correction.
// Clamped to zero against floating-point cancellation.
func sampleVariance(score, squaredScore float64, localN int) float64 {
	if localN <= 1 {
		return 0
	}
	local := float64(localN)
	val := (score * score) / local
	if val > squaredScore {
		return 0
	}
	return (squaredScore - val) / (local - 1)
}

// ucb1Tuned replaces the fixed exploration constant by a variance-aware term
// capped at 1/4 (the variance bound of a [0, 1] variable).
func ucb1Tuned(score, squaredScore float64, totalN, localN int) float64 {
	if localN == 0 {
		return math.Inf(1)
	}
	total := float64(totalN)
	local := float64(localN)
	avg := score / local
	dif := math.Log(total) / local
	variance := squaredScore/local - avg*avg
	right := math.Sqrt(dif * math.Min(0.25, math.Sqrt(2.0*dif)+variance))
	const c = 2.0 * 4.0 / Sqrt2
	return avg + c*right
}

// ucbV adds an empirical-Bernstein exploration term on top of the variance.
func ucbV(score, squaredScore float64, totalN, localN int) float64 {
	if localN == 0 {
		return math.Inf(1)
	}
	local := float64(localN)
	avg := score / local
	variance := sampleVariance(score, squaredScore, localN)
	epsilon := math.Log(float64(totalN))
	const b = 1.4
	const c = 2.0 * 8.0 / Sqrt2
	left := math.Sqrt(2.0 * epsilon * variance / local)
	right := c * (3.0 * epsilon * b) / local
	return avg + left + right
}

// spMCTS is the single-player variant: UCB1 plus a possible-deviation term.
func spMCTS(score, squaredScore float64, totalN, localN int, c, d float64) float64 {
	if localN == 0 {
		return math.Inf(1)
	}
	base := ucb1(score, totalN, localN, c)
	variance := sampleVariance(score, squaredScore, localN)
	return base + math.Sqrt(variance+d/float64(localN))
}
