package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

// setup creates an application directory with a data file and a backup
// directory holding the named snapshots, and returns a context carrying a
// config pointing at them.
func setup(t *testing.T, data string, snaps map[string]string) (context.Context, *config.Config) {
	t.Helper()
	root := t.TempDir()

	dataFile := filepath.Join(root, "app", "app.db")
	if err := os.MkdirAll(filepath.Dir(dataFile), 0o755); err != nil {
		t.Fatalf("creating app dir: %v", err)
	}
	if data != "" {
		if err := os.WriteFile(dataFile, []byte(data), 0o644); err != nil {
			t.Fatalf("writing data file: %v", err)
		}
	}

	backupDir := filepath.Join(root, "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatalf("creating backup dir: %v", err)
	}
	for name, content := range snaps {
		if err := os.WriteFile(filepath.Join(backupDir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing snapshot: %v", err)
		}
	}

	cfg := &config.Config{
		Database: config.DatabaseConfig{DBURL: "sqlite:///app.db"},
		Paths:    config.PathsConfig{AppDir: filepath.Join(root, "app"), BackupDir: backupDir},
		Backup:   config.BackupConfig{RetentionDays: 10},
	}

	t.Cleanup(func() {
		flags.SetDryRun(false)
		flags.SetReportPath("")
		listJSON = false
		restoreYes = false
	})

	ctx := logging.NewContext(context.Background(), logging.ForTest(t))
	return cli.NewContext(ctx, cfg), cfg
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestSnapshotList_Tabular(t *testing.T) {
	ctx, cfg := setup(t, "", map[string]string{
		"backup_20240301_101500.db": "old",
		"backup_20240314_080000.db": "new",
		"notes.txt":                 "not a snapshot",
	})
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local)

	var buf bytes.Buffer
	if err := runListWithWriter(ctx, &buf, afero.NewOsFs(), now); err != nil {
		t.Fatalf("list: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Snapshots in "+cfg.Paths.BackupDir) {
		t.Errorf("missing header:\n%s", output)
	}
	if strings.Contains(output, "notes.txt") {
		t.Errorf("non-snapshot listed:\n%s", output)
	}
	newIdx := strings.Index(output, "backup_20240314_080000.db")
	oldIdx := strings.Index(output, "backup_20240301_101500.db")
	if newIdx < 0 || oldIdx < 0 || newIdx > oldIdx {
		t.Errorf("expected newest first:\n%s", output)
	}
	if !strings.Contains(output, "14d (expired)") {
		t.Errorf("expected old snapshot marked expired:\n%s", output)
	}
	if !strings.Contains(output, "1d") {
		t.Errorf("expected age of newest snapshot:\n%s", output)
	}
}

func TestSnapshotList_JSON(t *testing.T) {
	ctx, _ := setup(t, "", map[string]string{
		"backup_20240301_101500.db": "old",
		"backup_20240314_080000.db": "new",
	})
	listJSON = true
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local)

	var buf bytes.Buffer
	if err := runListWithWriter(ctx, &buf, afero.NewOsFs(), now); err != nil {
		t.Fatalf("list: %v", err)
	}

	var entries []struct {
		Name    string `json:"name"`
		Size    int64  `json:"size"`
		AgeDays int    `json:"age_days"`
		Expired bool   `json:"expired"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("decoding JSON: %v\n%s", err, buf.String())
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "backup_20240314_080000.db" || entries[0].Expired {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].AgeDays != 14 || !entries[1].Expired {
		t.Errorf("unexpected second entry: %+v", entries[1])
	}
}

func TestSnapshotList_Empty(t *testing.T) {
	ctx, _ := setup(t, "", nil)

	var buf bytes.Buffer
	if err := runListWithWriter(ctx, &buf, afero.NewOsFs(), time.Now()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(buf.String(), "(no snapshots)") {
		t.Errorf("expected empty marker:\n%s", buf.String())
	}
}

func TestSnapshotCreate(t *testing.T) {
	ctx, cfg := setup(t, "0123456789", map[string]string{
		"backup_20000101_000000.db": "ancient",
	})

	var buf bytes.Buffer
	if err := runCreateWithWriter(ctx, &buf); err != nil {
		t.Fatalf("create: %v", err)
	}

	snaps, err := snapshot.List(afero.NewOsFs(), cfg.Paths.BackupDir)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	// create never prunes
	if len(snaps) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snaps))
	}
	if got := readFile(t, snaps[0].Path); got != "0123456789" {
		t.Errorf("snapshot content = %q", got)
	}
	if !strings.Contains(buf.String(), "✓ snapshot succeeded") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestSnapshotPrune_Days(t *testing.T) {
	today := time.Now().Format("20060102")
	ctx, cfg := setup(t, "", map[string]string{
		"backup_20000101_000000.db": "ancient",
		"backup_" + today + "_000000.db": "today",
	})

	var buf bytes.Buffer
	if err := runPruneWithWriter(ctx, &buf, 0); err != nil {
		t.Fatalf("prune: %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.Paths.BackupDir, "backup_20000101_000000.db")); !os.IsNotExist(err) {
		t.Error("expired snapshot still present")
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.BackupDir, "backup_"+today+"_000000.db")); err != nil {
		t.Errorf("today's snapshot removed: %v", err)
	}
	if !strings.Contains(buf.String(), "pruned:      1") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestSnapshotRestore(t *testing.T) {
	tests := []struct {
		name  string
		ref   string
		input string
		want  string
	}{
		{name: "by name", ref: "backup_20240301_101500.db", input: "y\n", want: "march first"},
		{name: "by timestamp", ref: "20240310_101500", input: "yes\n", want: "march tenth"},
		{name: "latest", ref: "latest", input: "y\n", want: "march tenth"},
		{name: "numbered prompt", ref: "", input: "2\ny\n", want: "march first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cfg := setup(t, "current", map[string]string{
				"backup_20240301_101500.db": "march first",
				"backup_20240310_101500.db": "march tenth",
			})

			var buf bytes.Buffer
			if err := runRestoreWithIO(ctx, strings.NewReader(tt.input), &buf, tt.ref, nil); err != nil {
				t.Fatalf("restore: %v\n%s", err, buf.String())
			}

			dataFile := filepath.Join(cfg.Paths.AppDir, "app.db")
			if got := readFile(t, dataFile); got != tt.want {
				t.Errorf("data file = %q, want %q", got, tt.want)
			}
			if !strings.Contains(buf.String(), "safety copy:") {
				t.Errorf("expected safety snapshot in output:\n%s", buf.String())
			}
		})
	}
}

func TestSnapshotRestore_Picker(t *testing.T) {
	ctx, cfg := setup(t, "current", map[string]string{
		"backup_20240301_101500.db": "march first",
		"backup_20240310_101500.db": "march tenth",
	})
	restoreYes = true

	var offered []string
	pick := func(snaps []snapshot.Info) (*snapshot.Info, error) {
		for _, s := range snaps {
			offered = append(offered, s.Name)
		}
		return &snaps[1], nil
	}

	var buf bytes.Buffer
	if err := runRestoreWithIO(ctx, strings.NewReader(""), &buf, "", pick); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if len(offered) != 2 || offered[0] != "backup_20240310_101500.db" {
		t.Errorf("picker offered %v", offered)
	}
	if got := readFile(t, filepath.Join(cfg.Paths.AppDir, "app.db")); got != "march first" {
		t.Errorf("data file = %q", got)
	}
}

func TestSnapshotRestore_Declined(t *testing.T) {
	ctx, cfg := setup(t, "current", map[string]string{
		"backup_20240301_101500.db": "march first",
	})

	var buf bytes.Buffer
	err := runRestoreWithIO(ctx, strings.NewReader("n\n"), &buf, "latest", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errors.ExitCode(err); code != errors.ExitUser {
		t.Errorf("exit code = %d, want %d", code, errors.ExitUser)
	}
	if got := readFile(t, filepath.Join(cfg.Paths.AppDir, "app.db")); got != "current" {
		t.Errorf("data file changed to %q", got)
	}
}

func TestSnapshotRestore_Unknown(t *testing.T) {
	ctx, _ := setup(t, "current", map[string]string{
		"backup_20240301_101500.db": "march first",
	})
	restoreYes = true

	err := runRestoreWithIO(ctx, strings.NewReader(""), &bytes.Buffer{}, "20990101_000000", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, errors.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
	if code := errors.ExitCode(err); code != errors.ExitUser {
		t.Errorf("exit code = %d, want %d", code, errors.ExitUser)
	}
}

func TestSnapshotRestore_NoSnapshots(t *testing.T) {
	ctx, _ := setup(t, "current", nil)

	err := runRestoreWithIO(ctx, strings.NewReader(""), &bytes.Buffer{}, "", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if code := errors.ExitCode(err); code != errors.ExitUser {
		t.Errorf("exit code = %d, want %d", code, errors.ExitUser)
	}
}
