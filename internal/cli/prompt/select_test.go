package prompt

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

func testSnapshots() []snapshot.Info {
	return []snapshot.Info{
		{Name: "backup_20240315_093000.db", CreatedAt: time.Date(2024, 3, 15, 9, 30, 0, 0, time.Local), Size: 10},
		{Name: "backup_20240310_101500.db", CreatedAt: time.Date(2024, 3, 10, 10, 15, 0, 0, time.Local), Size: 8},
	}
}

func TestSelectSnapshot_EmptyList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelector(strings.NewReader(""), &buf)

	_, err := s.SelectSnapshot(nil)
	if !errors.Is(err, ErrNoSnapshots) {
		t.Fatalf("expected ErrNoSnapshots, got: %v", err)
	}
}

func TestSelectSnapshot_SingleItem(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelector(strings.NewReader(""), &buf)

	snaps := testSnapshots()[:1]
	result, err := s.SelectSnapshot(snaps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != snaps[0].Name {
		t.Errorf("expected %q, got %q", snaps[0].Name, result.Name)
	}
	// Should not prompt for single item
	if buf.Len() > 0 {
		t.Errorf("expected no output for single item, got: %s", buf.String())
	}
}

func TestSelectSnapshot_ValidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantIdx int
	}{
		{name: "explicit first", input: "1\n", wantIdx: 0},
		{name: "explicit second", input: "2\n", wantIdx: 1},
		{name: "default on empty", input: "\n", wantIdx: 0},
		{name: "whitespace trimmed", input: "  2  \n", wantIdx: 1},
		{name: "no trailing newline", input: "2", wantIdx: 1},
	}

	snaps := testSnapshots()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelector(strings.NewReader(tt.input), &buf)

			result, err := s.SelectSnapshot(snaps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Name != snaps[tt.wantIdx].Name {
				t.Errorf("expected %q, got %q", snaps[tt.wantIdx].Name, result.Name)
			}
		})
	}
}

func TestSelectSnapshot_InvalidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "too low", input: "0\n", wantErr: "out of range"},
		{name: "too high", input: "3\n", wantErr: "out of range"},
		{name: "negative", input: "-1\n", wantErr: "out of range"},
		{name: "not a number", input: "abc\n", wantErr: "not a number"},
	}

	snaps := testSnapshots()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelector(strings.NewReader(tt.input), &buf)

			_, err := s.SelectSnapshot(snaps)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("expected ErrInvalidSelection, got: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestSelectSnapshot_Cancelled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelector(&eofReader{}, &buf)

	_, err := s.SelectSnapshot(testSnapshots())
	if !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got: %v", err)
	}
}

func TestSelectSnapshot_OutputFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelector(strings.NewReader("1\n"), &buf)

	if _, err := s.SelectSnapshot(testSnapshots()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Available snapshots:",
		"[1] backup_20240315_093000.db (2024-03-15 09:30:00, 10 bytes)",
		"[2] backup_20240310_101500.db (2024-03-10 10:15:00, 8 bytes)",
		"Select [1]:",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "maybe\n", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelector(strings.NewReader(tt.input), &buf)

			got, err := s.Confirm("Overwrite?")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(buf.String(), "Overwrite? [y/N]: ") {
				t.Errorf("missing prompt in output: %s", buf.String())
			}
		})
	}
}

func TestSelectThenConfirm_SharesInput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelector(strings.NewReader("2\ny\n"), &buf)

	result, err := s.SelectSnapshot(testSnapshots())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "backup_20240310_101500.db" {
		t.Errorf("unexpected selection %q", result.Name)
	}

	ok, err := s.Confirm("Restore?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected confirmation")
	}
}

func TestConfirm_Cancelled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelector(&eofReader{}, &buf)

	if _, err := s.Confirm("Restore?"); !errors.Is(err, ErrSelectionCancelled) {
		t.Fatalf("expected ErrSelectionCancelled, got: %v", err)
	}
}

// eofReader simulates immediate EOF (like Ctrl+D).
type eofReader struct{}

func (r *eofReader) Read(_ []byte) (int, error) {
	return 0, io.EOF
}
