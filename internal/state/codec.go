package state

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/janpfeifer/sokogen/internal/generics"
)

// SavedLevelsDir is where level sets are persisted, relative to the working
// directory.
const SavedLevelsDir = "saved_levels"

// ParseLevels reads a level set in the text format: each section starts with
// a "LEVEL <width> <height>" header followed by height rows of width cells,
// sections separated by blank lines. Errors are returned together with the
// sections that did parse. A section with a bad row is dropped at that row
// and reading resumes on the next line; a line that is not a "LEVEL" header
// with a positive size (such as a remaining row of a dropped section) ends
// the parse, and sections after it are not read.
func ParseLevels(r io.Reader) ([]Grid, error) {
	scanner := bufio.NewScanner(r)
	var grids []Grid
	var errs *multierror.Error
	lineNo := 0

	nextLine := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		lineNo++
		return scanner.Text(), true
	}

	for {
		line, ok := nextLine()
		if !ok {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		var width, height int
		if _, err := fmt.Sscanf(line, "LEVEL %d %d", &width, &height); err != nil {
			errs = multierror.Append(errs,
				errors.Wrapf(err, "line %d: expected \"LEVEL <width> <height>\", got %q", lineNo, line))
			break
		}
		if width <= 0 || height <= 0 {
			errs = multierror.Append(errs,
				errors.Errorf("line %d: invalid level size %dx%d", lineNo, width, height))
			break
		}
		grid := NewGrid(width, height)
		sectionOk := true
		for y := 0; y < height && sectionOk; y++ {
			row, ok := nextLine()
			if !ok {
				errs = multierror.Append(errs,
					errors.Errorf("line %d: level ends after %d of %d rows", lineNo, y, height))
				sectionOk = false
				break
			}
			if len(row) != width {
				errs = multierror.Append(errs,
					errors.Errorf("line %d: row has %d cells, want %d", lineNo, len(row), width))
				sectionOk = false
				break
			}
			for x, r := range row {
				pawn, ok := RuneToPawn[r]
				if !ok {
					errs = multierror.Append(errs,
						errors.Errorf("line %d: unknown cell character %q at column %d", lineNo, r, x+1))
					sectionOk = false
					break
				}
				grid.Set(x, y, pawn)
			}
		}
		if sectionOk {
			grids = append(grids, grid)
		}
	}
	if err := scanner.Err(); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, "reading level data"))
	}
	return grids, errs.ErrorOrNil()
}

// EncodeLevels writes grids in the text format understood by ParseLevels.
func EncodeLevels(w io.Writer, grids []Grid) error {
	for _, grid := range grids {
		if _, err := fmt.Fprintf(w, "LEVEL %d %d\n%s\n", grid.Width, grid.Height, grid); err != nil {
			return errors.Wrap(err, "writing level set")
		}
	}
	return nil
}

// LoadLevelSet reads saved_levels/<name>.txt and returns its levels.
// Loaded levels have no recorded score.
func LoadLevelSet(name string) ([]Level, error) {
	path := filepath.Join(SavedLevelsDir, name+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening level set %q", path)
	}
	defer f.Close()
	grids, err := ParseLevels(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing level set %q", path)
	}
	levels := make([]Level, len(grids))
	for i, grid := range grids {
		levels[i] = Level{Grid: grid, BoxCount: grid.BoxCount()}
	}
	return levels, nil
}

// SaveLevelSet writes levels to saved_levels/<seed>.txt, creating the
// directory if needed.
func SaveLevelSet(seed uint64, levels []Level) (string, error) {
	if err := os.MkdirAll(SavedLevelsDir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %q", SavedLevelsDir)
	}
	path := filepath.Join(SavedLevelsDir, fmt.Sprintf("%d.txt", seed))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "creating %q", path)
	}
	grids := generics.SliceMap(levels, func(l Level) Grid { return l.Grid })
	if err := EncodeLevels(f, grids); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", errors.Wrapf(err, "closing %q", path)
	}
	return path, nil
}
