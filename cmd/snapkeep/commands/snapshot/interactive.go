package snapshot

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/thoreinstein/snapkeep/internal/cli/prompt"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

// pickSnapshot opens a fuzzy finder over snaps.
func pickSnapshot(snaps []snapshot.Info) (*snapshot.Info, error) {
	if len(snaps) == 0 {
		return nil, prompt.ErrNoSnapshots
	}

	idx, err := fuzzyfinder.Find(
		snaps,
		func(i int) string {
			return snaps[i].Name
		},
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			s := snaps[i]
			return fmt.Sprintf("Name:    %s\nCreated: %s\nSize:    %d bytes\nPath:    %s",
				s.Name,
				s.CreatedAt.Format("2006-01-02 15:04:05"),
				s.Size,
				s.Path,
			)
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, prompt.ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "interactive selection failed")
	}

	return &snaps[idx], nil
}
