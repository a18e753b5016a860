package mcts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/sokogen/internal/parameters"
	"github.com/janpfeifer/sokogen/internal/rng"
)

func TestFromParams(t *testing.T) {
	params := parameters.NewFromConfigString(
		"board_size=6x4,start_position=2x3,timeout=30,seed=42,policy=sp-mcts," +
			"bootstrap,bootstrap_delta=0.1,box_upper_cutoff=5,rng=lcg,arena=false")
	settings, err := FromParams(params)
	require.NoError(t, err)

	assert.Equal(t, 6, settings.BoardWidth)
	assert.Equal(t, 4, settings.BoardHeight)
	assert.Equal(t, 2, settings.StartX)
	assert.Equal(t, 3, settings.StartY)
	assert.Equal(t, 30*time.Second, settings.Timeout)
	assert.Equal(t, uint64(42), settings.Seed)
	assert.Equal(t, "sp-mcts", settings.Policy)
	assert.True(t, settings.Bootstrap)
	assert.Equal(t, 0.1, settings.BootstrapDelta)
	assert.Equal(t, 5, settings.BoxUpperCutoff)
	assert.Equal(t, rng.LinearCongruential, settings.RandomSource)
	assert.False(t, settings.UseArena)

	require.NoError(t, settings.Validate())
}

func TestFromParamsDefaults(t *testing.T) {
	settings, err := FromParams(parameters.NewFromConfigString(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
	require.NoError(t, settings.Validate())
}

func TestFromParamsRejectsUnknownKeys(t *testing.T) {
	_, err := FromParams(parameters.NewFromConfigString("boardsize=7x7"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boardsize")
}

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"area too small", func(s *Settings) { s.BoardWidth, s.BoardHeight = 3, 5 }, "area must be in [16, 254]"},
		{"area too large", func(s *Settings) { s.BoardWidth, s.BoardHeight = 16, 16 }, "area must be in [16, 254]"},
		{"start outside", func(s *Settings) { s.StartX, s.StartY = 7, 0 }, "outside the"},
		{"negative start y", func(s *Settings) { s.StartX, s.StartY = 2, -1 }, "outside the"},
		{"bad delta", func(s *Settings) { s.BootstrapDelta = 1.5 }, "must be in [0, 1]"},
		{"bootstrap without timeout", func(s *Settings) { s.Bootstrap, s.Timeout = true, 0 }, "without a timeout"},
		{"zero box cutoff", func(s *Settings) { s.BoxUpperCutoff = 0 }, "cannot be 0"},
		{"zero level set", func(s *Settings) { s.LevelSetSize = 0 }, "greater than 0"},
		{"bad policy", func(s *Settings) { s.Policy = "minimax" }, "unknown selection policy"},
	} {
		t.Run(test.name, func(t *testing.T) {
			settings := DefaultSettings()
			test.mutate(&settings)
			err := settings.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.wantErr)
		})
	}

	good := DefaultSettings()
	assert.NoError(t, good.Validate())
}

func TestBoxUpperCutoffDerivation(t *testing.T) {
	settings := DefaultSettings() // 7x7, cutoff -1
	assert.Equal(t, 17, settings.boxUpperCutoff())

	settings.BoxUpperCutoff = 9
	assert.Equal(t, 9, settings.boxUpperCutoff())

	settings.BoardWidth, settings.BoardHeight = 4, 4
	settings.BoxUpperCutoff = -1
	assert.Equal(t, 6, settings.boxUpperCutoff())
}
