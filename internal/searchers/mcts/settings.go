package mcts

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/janpfeifer/sokogen/internal/parameters"
	"github.com/janpfeifer/sokogen/internal/rng"
)

const (
	// Sqrt2 shows up in the exploration constants of every policy.
	Sqrt2 = math.Sqrt2

	// BoxAreaCutoff derives the default box upper cutoff: one box per
	// BoxAreaCutoff cells of area.
	BoxAreaCutoff = 3.0
)

// Settings are the generator knobs. See DefaultSettings for the defaults and
// FromParams for the configuration-string keys.
type Settings struct {
	// BoardWidth, BoardHeight constrain 16 <= W*H <= 254 so cell indices fit
	// in a byte.
	BoardWidth, BoardHeight int

	// StartX, StartY is the pusher spawn. StartX == -1 means board center.
	StartX, StartY int

	// Timeout of the search. Zero means run SimulationCount rollouts instead.
	Timeout time.Duration

	// SimulationCount of rollouts, used when Timeout is zero.
	SimulationCount int

	// DepthLowerCutoff is the minimum depth before freeze is allowed.
	DepthLowerCutoff int

	// BoxLowerCutoff is the minimum box count before freeze is allowed.
	BoxLowerCutoff int

	// BoxUpperCutoff caps place-box. -1 derives ceil(area/BoxAreaCutoff).
	BoxUpperCutoff int

	// Bootstrap enables the two-phase seeded search.
	Bootstrap bool

	// BootstrapCount is how many finished levels seed the second phase.
	BootstrapCount int

	// BootstrapDelta in [0, 1] is the fraction of the timeout spent on the
	// second phase.
	BootstrapDelta float64

	// AddGoodLevels also keeps non-best terminals scoring >= GoodLevelCut.
	AddGoodLevels bool
	GoodLevelCut  float64

	// LevelSetSize caps the number of levels returned at the end.
	LevelSetSize int

	// RemoveImpossible prunes 2x2 deadlock configurations on freeze.
	RemoveImpossible bool

	// UseSimpleMoves restricts move-agent to single-tile steps (an
	// experiment baseline; the reachable-move fan-out is the default).
	UseSimpleMoves bool

	// TreePolicyNext expands action classes in deterministic order instead
	// of weighting by remaining candidate counts.
	TreePolicyNext bool

	// UCB1C and SPMCTSD are the policy constants.
	UCB1C   float64
	SPMCTSD float64

	// UseArena allocates rollout temporaries in the arena.
	UseArena bool

	// Seed of the random source. Zero picks a nondeterministic seed.
	Seed uint64

	// RandomSource selects between Mersenne-Twister and the LCG baseline.
	RandomSource rng.Kind

	// Policy is the selection policy name: ucb1, ucb1-tuned, ucb-v, sp-mcts.
	Policy string
}

// DefaultSettings mirror the reference configuration.
func DefaultSettings() Settings {
	return Settings{
		BoardWidth:       7,
		BoardHeight:      7,
		StartX:           -1,
		StartY:           0,
		Timeout:          10 * time.Second,
		SimulationCount:  800_000,
		DepthLowerCutoff: 10,
		BoxLowerCutoff:   1,
		BoxUpperCutoff:   -1,
		Bootstrap:        false,
		BootstrapCount:   4,
		BootstrapDelta:   0.05,
		AddGoodLevels:    true,
		GoodLevelCut:     1.3,
		LevelSetSize:     30,
		RemoveImpossible: true,
		UseSimpleMoves:   false,
		TreePolicyNext:   true,
		UCB1C:            2.0 / Sqrt2,
		SPMCTSD:          Sqrt2,
		UseArena:         true,
		Seed:             0,
		RandomSource:     rng.MersenneTwister,
		Policy:           "ucb1-tuned",
	}
}

// FromParams overlays configuration-string parameters onto the defaults.
// All keys are popped; leftover keys are reported as errors.
func FromParams(params parameters.Params) (Settings, error) {
	s := DefaultSettings()
	var err error
	if s.BoardWidth, s.BoardHeight, err = parameters.PopPairOr(params, "board_size", s.BoardWidth, s.BoardHeight); err != nil {
		return s, err
	}
	if s.StartX, s.StartY, err = parameters.PopPairOr(params, "start_position", s.StartX, s.StartY); err != nil {
		return s, err
	}
	seconds, err := parameters.PopParamOr(params, "timeout", s.Timeout.Seconds())
	if err != nil {
		return s, err
	}
	s.Timeout = time.Duration(seconds * float64(time.Second))
	if s.SimulationCount, err = parameters.PopParamOr(params, "simulation_count", s.SimulationCount); err != nil {
		return s, err
	}
	if s.DepthLowerCutoff, err = parameters.PopParamOr(params, "depth_lower_cutoff", s.DepthLowerCutoff); err != nil {
		return s, err
	}
	if s.BoxLowerCutoff, err = parameters.PopParamOr(params, "box_lower_cutoff", s.BoxLowerCutoff); err != nil {
		return s, err
	}
	if s.BoxUpperCutoff, err = parameters.PopParamOr(params, "box_upper_cutoff", s.BoxUpperCutoff); err != nil {
		return s, err
	}
	if s.Bootstrap, err = parameters.PopParamOr(params, "bootstrap", s.Bootstrap); err != nil {
		return s, err
	}
	if s.BootstrapCount, err = parameters.PopParamOr(params, "bootstrap_count", s.BootstrapCount); err != nil {
		return s, err
	}
	if s.BootstrapDelta, err = parameters.PopParamOr(params, "bootstrap_delta", s.BootstrapDelta); err != nil {
		return s, err
	}
	if s.AddGoodLevels, err = parameters.PopParamOr(params, "add_good_levels", s.AddGoodLevels); err != nil {
		return s, err
	}
	if s.GoodLevelCut, err = parameters.PopParamOr(params, "good_level_cut", s.GoodLevelCut); err != nil {
		return s, err
	}
	if s.LevelSetSize, err = parameters.PopParamOr(params, "level_set_size", s.LevelSetSize); err != nil {
		return s, err
	}
	if s.RemoveImpossible, err = parameters.PopParamOr(params, "remove_impossible", s.RemoveImpossible); err != nil {
		return s, err
	}
	if s.UseSimpleMoves, err = parameters.PopParamOr(params, "simple_moves", s.UseSimpleMoves); err != nil {
		return s, err
	}
	if s.TreePolicyNext, err = parameters.PopParamOr(params, "tree_policy_next", s.TreePolicyNext); err != nil {
		return s, err
	}
	if s.UCB1C, err = parameters.PopParamOr(params, "ucb1_c", s.UCB1C); err != nil {
		return s, err
	}
	if s.SPMCTSD, err = parameters.PopParamOr(params, "sp_mcts_d", s.SPMCTSD); err != nil {
		return s, err
	}
	if s.UseArena, err = parameters.PopParamOr(params, "arena", s.UseArena); err != nil {
		return s, err
	}
	if s.Seed, err = parameters.PopParamOr(params, "seed", s.Seed); err != nil {
		return s, err
	}
	source, err := parameters.PopParamOr(params, "rng", "mt")
	if err != nil {
		return s, err
	}
	switch source {
	case "mt", "mersenne-twister":
		s.RandomSource = rng.MersenneTwister
	case "lcg", "linear-congruential":
		s.RandomSource = rng.LinearCongruential
	default:
		return s, errors.Errorf("unknown random source %q, want \"mt\" or \"lcg\"", source)
	}
	if s.Policy, err = parameters.PopParamOr(params, "policy", s.Policy); err != nil {
		return s, err
	}
	return s, parameters.CheckExhausted(params)
}

// Validate checks the configuration errors detectable at startup.
func (s *Settings) Validate() error {
	area := s.BoardWidth * s.BoardHeight
	if s.BoardWidth <= 0 || s.BoardHeight <= 0 || area < 16 || area > 254 {
		return errors.Errorf("bad board size %dx%d: the area must be in [16, 254]",
			s.BoardWidth, s.BoardHeight)
	}
	if s.StartX != -1 {
		if s.StartX < 0 || s.StartY < 0 || s.StartX >= s.BoardWidth || s.StartY >= s.BoardHeight {
			return errors.Errorf("start position (%d, %d) is outside the %dx%d board",
				s.StartX, s.StartY, s.BoardWidth, s.BoardHeight)
		}
	}
	if s.BootstrapDelta < 0 || s.BootstrapDelta > 1 {
		return errors.Errorf("bootstrap delta %g must be in [0, 1]", s.BootstrapDelta)
	}
	if s.Bootstrap && s.Timeout == 0 {
		return errors.New("bootstrapping is not available without a timeout")
	}
	if s.BoxUpperCutoff == 0 {
		return errors.New("the box upper cutoff cannot be 0 (-1 derives it from the area)")
	}
	if s.LevelSetSize <= 0 {
		return errors.Errorf("level set size %d must be greater than 0", s.LevelSetSize)
	}
	if s.Bootstrap && s.BootstrapCount <= 0 {
		return errors.Errorf("bootstrap count %d must be greater than 0", s.BootstrapCount)
	}
	if _, err := s.Decision(); err != nil {
		return err
	}
	return nil
}

// boxUpperCutoff resolves the configured cutoff against the board area.
func (s *Settings) boxUpperCutoff() int {
	if s.BoxUpperCutoff < 0 {
		return int(math.Ceil(float64(s.BoardWidth*s.BoardHeight) / BoxAreaCutoff))
	}
	return s.BoxUpperCutoff
}

// Log echoes the effective configuration.
func (s *Settings) Log() {
	klog.Infof("box cutoff: [%d, %d]", s.BoxLowerCutoff, s.boxUpperCutoff())
	klog.Infof("depth cutoff: %d", s.DepthLowerCutoff)
	klog.Infof("remove impossible: %v", s.RemoveImpossible)
	klog.Infof("arena allocator: %v", s.UseArena)
	klog.Infof("bootstrap, count, delta: %v, %d, %g", s.Bootstrap, s.BootstrapCount, s.BootstrapDelta)
	klog.Infof("enhanced move agent: %v", !s.UseSimpleMoves)
	klog.Infof("level size: %dx%d", s.BoardWidth, s.BoardHeight)
	klog.Infof("policy: %s, random source: %s", s.Policy, s.RandomSource)
}
