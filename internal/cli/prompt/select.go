// Package prompt asks the numbered-list and yes/no questions of snapshot restore.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

var (
	ErrNoSnapshots = errors.New("no snapshots to select from")
	// ErrInvalidSelection is returned for a non-numeric or out-of-range answer.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrSelectionCancelled is returned when input ends before an answer.
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector asks line-oriented questions on a reader/writer pair.
type Selector struct {
	in  *bufio.Reader
	out io.Writer
}

// NewSelector reads answers from r and writes prompts to w.
func NewSelector(r io.Reader, w io.Writer) *Selector {
	return &Selector{in: bufio.NewReader(r), out: w}
}

// SelectSnapshot shows snaps as a numbered list and returns the chosen one.
// A single snapshot is returned without asking; an empty answer picks the
// first entry.
func (s *Selector) SelectSnapshot(snaps []snapshot.Info) (*snapshot.Info, error) {
	if len(snaps) == 0 {
		return nil, ErrNoSnapshots
	}

	if len(snaps) == 1 {
		return &snaps[0], nil
	}

	fmt.Fprintln(s.out, "Available snapshots:")
	for i, snap := range snaps {
		fmt.Fprintf(s.out, "  [%d] %s (%s, %d bytes)\n",
			i+1, snap.Name, snap.CreatedAt.Format("2006-01-02 15:04:05"), snap.Size)
	}
	fmt.Fprintf(s.out, "Select [1]: ")

	input, err := s.readLine()
	if err != nil {
		return nil, err
	}

	if input == "" {
		return &snaps[0], nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}

	if selection < 1 || selection > len(snaps) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(snaps))
	}

	return &snaps[selection-1], nil
}

// Confirm asks a yes/no question. Anything but y or yes is a no.
func (s *Selector) Confirm(question string) (bool, error) {
	fmt.Fprintf(s.out, "%s [y/N]: ", question)

	input, err := s.readLine()
	if err != nil {
		return false, err
	}

	switch strings.ToLower(input) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Selector) readLine() (string, error) {
	input, err := s.in.ReadString('\n')
	if err != nil {
		// A final line without newline still counts.
		if errors.Is(err, io.EOF) && strings.TrimSpace(input) != "" {
			return strings.TrimSpace(input), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrSelectionCancelled
		}
		return "", errors.Wrap(err, "reading selection")
	}
	return strings.TrimSpace(input), nil
}
