// sokogen generates playable Sokoban levels with a Monte-Carlo Tree Search.
//
// With no arguments it runs a search with the default settings, prints the
// best level found and saves the level set under saved_levels/<seed>.txt.
// With "load <name>" it replays saved_levels/<name>.txt instead.
//
// Settings are passed as a configuration string, e.g.:
//
//	sokogen --config "board_size=7x7,timeout=30,policy=ucb1-tuned,seed=42"
package main

import (
	"flag"
	"fmt"

	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/janpfeifer/sokogen/internal/parameters"
	"github.com/janpfeifer/sokogen/internal/searchers/mcts"
	"github.com/janpfeifer/sokogen/internal/state"
	"github.com/janpfeifer/sokogen/internal/ui/cli"
)

var (
	flagConfig = flag.String("config", "", "Generator configuration, a comma-separated key=value list. "+
		"Known keys: board_size, start_position, timeout, simulation_count, depth_lower_cutoff, "+
		"box_lower_cutoff, box_upper_cutoff, bootstrap, bootstrap_count, bootstrap_delta, "+
		"add_good_levels, good_level_cut, level_set_size, remove_impossible, simple_moves, "+
		"tree_policy_next, ucb1_c, sp_mcts_d, arena, seed, rng, policy")
	flagPlay  = flag.Bool("play", false, "Replay the generated level set after the search finishes")
	flagQuiet = flag.Bool("quiet", false, "Only print the best level, no progress output")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		if args[0] != "load" || len(args) != 2 {
			klog.Exitf("usage: sokogen [flags] [load <name>] (run \"sokogen -help\" for flags)")
		}
		replay(args[1])
		return
	}
	generate()
}

// generate runs the search and presents its level set.
func generate() {
	settings, err := mcts.FromParams(parameters.NewFromConfigString(*flagConfig))
	if err != nil {
		klog.Exitf("Invalid --config: %v", err)
	}
	if err := settings.Validate(); err != nil {
		klog.Exitf("Invalid configuration: %v", err)
	}
	if !*flagQuiet {
		settings.Log()
	}

	search, err := mcts.New(settings)
	if err != nil {
		klog.Exitf("Failed to create search: %v", err)
	}
	decision := must.M1(settings.Decision()) // name already validated
	klog.Infof("using seed %d", search.Seed())

	var counter int
	switch {
	case settings.Timeout == 0:
		elapsed := search.RunCount(decision, settings.SimulationCount)
		counter = settings.SimulationCount
		klog.V(1).Infof("mcts duration: %s", elapsed)
	case settings.Bootstrap:
		search, counter, err = mcts.RunTimeoutAndBootstrap(search, decision, settings.Timeout)
		if err != nil {
			klog.Exitf("Bootstrap failed: %v", err)
		}
	default:
		counter = search.RunTimeout(decision, settings.Timeout)
	}

	levels := search.LevelSet(settings.LevelSetSize)
	if len(levels) == 0 {
		klog.Exitf("The search produced no finished levels.")
	}
	if !*flagQuiet {
		search.Summarize(counter).Log()
	}

	path, err := state.SaveLevelSet(search.Seed(), levels)
	if err != nil {
		klog.Exitf("Failed to save level set: %v", err)
	}
	fmt.Printf("saved %d levels to %s\n", len(levels), path)

	ui := cli.New(true, false)
	best := levels[len(levels)-1]
	ui.PrintLevel(best, len(levels)-1)
	if *flagPlay {
		if err := ui.Replay(levels); err != nil {
			klog.Exitf("Replay failed: %v", err)
		}
	}
}

// replay loads a saved level set and plays it interactively.
func replay(name string) {
	levels, err := state.LoadLevelSet(name)
	if err != nil {
		klog.Exitf("Failed to load level set %q: %+v", name, err)
	}
	ui := cli.New(true, false)
	if err := ui.Replay(levels); err != nil {
		klog.Exitf("Replay failed: %v", err)
	}
}
