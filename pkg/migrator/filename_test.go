package migrator

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func touch(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte("-- +migrate up\n"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC)
	if got := Filename(now, 2, "CreateUsers"); got != "20240309.070501_0_2_CreateUsers.sql" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestParseFilename(t *testing.T) {
	created, counter, name, ok := parseFilename("20240309.070501_0_12_CreateUsers.sql")
	if !ok {
		t.Fatal("expected a migration file")
	}
	if counter != 12 || name != "CreateUsers" {
		t.Errorf("unexpected counter %d or name %q", counter, name)
	}
	if created.Format(timestampLayout) != "20240309.070501" {
		t.Errorf("unexpected timestamp %s", created)
	}
	for _, base := range []string{"README.md", "20240309_0_1_A.sql", "20240309.070501_0_1_A.txt", "create.sql"} {
		if _, _, _, ok := parseFilename(base); ok {
			t.Errorf("%s: expected no match", base)
		}
	}
}

func TestFilename_UTC(t *testing.T) {
	now := time.Date(2024, 3, 9, 9, 5, 1, 0, time.FixedZone("CEST", 2*60*60))
	if got := Filename(now, 0, "CreateUsers"); got != "20240309.070501_0_0_CreateUsers.sql" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestParseFilename_RoundTrip(t *testing.T) {
	// 02:30 on this date does not exist in zones that skip an hour for DST.
	base := "20240310.023000_0_0_CreateUsers"
	created, counter, name, ok := parseFilename(base + ".sql")
	if !ok {
		t.Fatal("expected a migration file")
	}
	mig := &Migration{Name: name, Counter: counter, Created: created}
	if mig.Key() != base {
		t.Errorf("expected key %s, got %s", base, mig.Key())
	}
}

func TestNextCounter(t *testing.T) {
	dir := "/migrations"
	tests := []struct {
		name     string
		files    []string
		expected int
	}{
		{"empty directory", nil, 0},
		{"other names only", []string{"20240101.000000_0_4_CreatePosts.sql"}, 0},
		{"single match", []string{"20240101.000000_0_0_CreateUsers.sql"}, 1},
		{"highest counter wins", []string{
			"20240101.000000_0_0_CreateUsers.sql",
			"20240102.000000_0_3_CreateUsers.sql",
			"20240103.000000_0_1_CreateUsers.sql",
		}, 4},
		{"prefix of another name", []string{"20240101.000000_0_7_XCreateUsers.sql"}, 0},
		{"wrong extension", []string{"20240101.000000_0_7_CreateUsers.php"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if err := fs.MkdirAll(dir, 0o755); err != nil {
				t.Fatal(err)
			}
			for _, f := range tt.files {
				touch(t, fs, filepath.Join(dir, f))
			}
			got, err := NextCounter(fs, dir, "CreateUsers")
			if err != nil {
				t.Fatalf("NextCounter: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestNextCounter_MissingDirectory(t *testing.T) {
	got, err := NextCounter(afero.NewMemMapFs(), "/nowhere", "CreateUsers")
	if err != nil {
		t.Fatalf("NextCounter: %v", err)
	}
	if got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
