// Package cli implements the terminal UI: level rendering and the
// interactive replay of saved level sets.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/janpfeifer/sokogen/internal/generics"
	"github.com/janpfeifer/sokogen/internal/state"
)

// UI renders levels and runs the replay loop.
type UI struct {
	color    bool
	centered bool
	reader   *bufio.Reader
}

// New returns a UI. color disables styling when false (e.g. for tests or
// piped output); centered centers blocks on the terminal width.
func New(color, centered bool) *UI {
	return &UI{
		color:    color,
		centered: centered,
		reader:   bufio.NewReader(os.Stdin),
	}
}

var (
	styleBlock  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleBox    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleGoal   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	stylePusher = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	styleBanner = lipgloss.NewStyle().
			Background(lipgloss.Color("10")).
			Foreground(lipgloss.Color("0")).
			Padding(0, 2)
)

func (ui *UI) styled(pawn state.Pawn) string {
	s := pawn.String()
	if !ui.color {
		return s
	}
	switch {
	case pawn.IsPusher():
		return stylePusher.Render(s)
	case pawn.IsBox():
		return styleBox.Render(s)
	case pawn.IsBlock():
		return styleBlock.Render(s)
	case pawn.IsGoal():
		return styleGoal.Render(s)
	}
	return s
}

// RenderGrid returns the grid as styled text.
func (ui *UI) RenderGrid(grid state.Grid) string {
	var sb strings.Builder
	for y := 0; y < grid.Height; y++ {
		for x := 0; x < grid.Width; x++ {
			sb.WriteString(ui.styled(grid.At(x, y)))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PrintLevel prints one level with its header line.
func (ui *UI) PrintLevel(level state.Level, index int) {
	ui.printBlock(fmt.Sprintf("index: %d, score: %2.4f", index, level.Score))
	ui.printBlock(ui.RenderGrid(level.Grid))
}

// printBlock writes a text block, centered on the terminal if configured.
func (ui *UI) printBlock(block string) {
	if !ui.centered {
		fmt.Print(block)
		if !strings.HasSuffix(block, "\n") {
			fmt.Println()
		}
		return
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		width = 0
	}
	for _, line := range strings.Split(strings.TrimRight(block, "\n"), "\n") {
		indent := generics.Clamp((width-lipgloss.Width(line))/2, 0, 1<<16)
		fmt.Printf("%s%s\n", strings.Repeat(" ", indent), line)
	}
}

// Replay plays through a level set interactively. Moves are read one line at
// a time: w/a/s/d step the pusher (several per line are fine), r resets the
// level, n and p switch levels, q quits.
func (ui *UI) Replay(levels []state.Level) error {
	if len(levels) == 0 {
		return fmt.Errorf("no levels to replay")
	}
	// Start at the last level, which is the best of a generated set.
	index := len(levels) - 1
	grid := levels[index].Grid.Clone()
	solved := false

	ui.PrintLevel(levels[index], index)
	for {
		fmt.Print("move (w/a/s/d), r=reset, n/p=level, q=quit> ")
		line, err := ui.reader.ReadString('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		for _, c := range strings.TrimSpace(strings.ToLower(line)) {
			switch c {
			case 'q':
				return nil
			case 'r':
				grid = levels[index].Grid.Clone()
				solved = false
			case 'n':
				index = generics.Clamp(index+1, 0, len(levels)-1)
				grid = levels[index].Grid.Clone()
				solved = false
			case 'p':
				index = generics.Clamp(index-1, 0, len(levels)-1)
				grid = levels[index].Grid.Clone()
				solved = false
			case 'w', 'a', 's', 'd':
				if solved {
					continue
				}
				pusher := grid.PusherPosition()
				grid.PawnMove(pusher.X, pusher.Y, moveKeys[c])
				if grid.IsSolved() {
					solved = true
				}
			}
		}
		ui.PrintLevel(state.Level{Grid: grid, Score: levels[index].Score}, index)
		if solved {
			if ui.color {
				ui.printBlock(styleBanner.Render("Solved!"))
			} else {
				ui.printBlock("Solved!")
			}
		}
	}
}

var moveKeys = map[rune]state.Direction{
	'w': state.Up,
	'd': state.Right,
	's': state.Down,
	'a': state.Left,
}
