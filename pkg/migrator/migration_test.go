package migrator

import (
	"strings"
	"testing"
	"time"
)

// TestConvertLineEnding verifies each supported target newline.
func TestConvertLineEnding(t *testing.T) {
	content := "line one\nline two\r\nlinethree\rlinefour"
	tests := []struct {
		lineEnding string
		expected   string
	}{
		{"LF", "line one\nline two\nlinethree\nlinefour"},
		{"CR", "line one\rline two\rlinethree\rlinefour"},
		{"CRLF", "line one\r\nline two\r\nlinethree\r\nlinefour"},
		{"crlf", "line one\r\nline two\r\nlinethree\r\nlinefour"},
	}
	for _, tt := range tests {
		got, err := convertLineEnding(content, tt.lineEnding)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.lineEnding, err)
		}
		if got != tt.expected {
			t.Errorf("%s: expected %q, got %q", tt.lineEnding, tt.expected, got)
		}
	}
}

// TestConvertLineEnding_Invalid verifies that an invalid newline type returns an error.
func TestConvertLineEnding_Invalid(t *testing.T) {
	if _, err := convertLineEnding("line one\nline two", "INVALID"); err == nil {
		t.Errorf("Expected an error for invalid newline type, got nil")
	}
}

// TestChecksum_Newline checks that files differing only in line endings share a
// checksum once a newline is configured.
func TestChecksum_Newline(t *testing.T) {
	lf, err := checksum("a\nb\n", "LF")
	if err != nil {
		t.Fatal(err)
	}
	crlf, err := checksum("a\r\nb\r\n", "LF")
	if err != nil {
		t.Fatal(err)
	}
	if lf != crlf {
		t.Errorf("expected equal checksums, got %s and %s", lf, crlf)
	}
	raw, err := checksum("a\r\nb\r\n", "")
	if err != nil {
		t.Fatal(err)
	}
	if raw == lf {
		t.Errorf("expected raw checksum to differ without newline conversion")
	}
	if len(raw) != 32 {
		t.Errorf("expected 32 hex characters, got %q", raw)
	}
}

func TestParseBody(t *testing.T) {
	content := renderBody("App", "OrmAbc", "logs", "CREATE TABLE a (id INTEGER);", "DROP TABLE a;")
	m := &Migration{}
	if err := parseBody(m, content); err != nil {
		t.Fatalf("parseBody: %v", err)
	}
	if m.Namespace != "App" || m.ID != "OrmAbc" || m.Database != "logs" {
		t.Errorf("unexpected header: %+v", m)
	}
	if m.Up != "CREATE TABLE a (id INTEGER);" {
		t.Errorf("unexpected up section %q", m.Up)
	}
	if m.Down != "DROP TABLE a;" {
		t.Errorf("unexpected down section %q", m.Down)
	}
}

func TestParseBody_Errors(t *testing.T) {
	tests := map[string]string{
		"no markers":      "-- namespace: App\nCREATE TABLE a (id INTEGER);\n",
		"down before up":  "-- +migrate down\nDROP TABLE a;\n-- +migrate up\n",
		"only header":     "-- id: OrmX\n",
		"empty migration": "",
	}
	for name, content := range tests {
		if err := parseBody(&Migration{}, content); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestSortMigrations(t *testing.T) {
	early := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)
	migs := []*Migration{
		{Name: "B", Created: late},
		{Name: "Z", Created: early, Counter: 1},
		{Name: "B", Created: early},
		{Name: "A", Created: early},
	}
	sortMigrations(migs)
	var got []string
	for _, m := range migs {
		got = append(got, m.Key())
	}
	want := []string{
		"20240101.100000_0_0_A",
		"20240101.100000_0_0_B",
		"20240101.100000_0_1_Z",
		"20240101.110000_0_0_B",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMigrationState(t *testing.T) {
	created := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	m := &Migration{Name: "CreateUsers", Created: created}
	if s := m.State(); s.Status != StatusPending || s.Name != "CreateUsers" || !s.TimeCreated.Equal(created) {
		t.Errorf("unexpected pending state %+v", s)
	}
	at := created.Add(time.Minute)
	m.setExecuted(at)
	if s := m.State(); s.Status != StatusExecuted || !s.TimeExecuted.Equal(at) {
		t.Errorf("unexpected executed state %+v", s)
	}
	if StatusExecuted.String() != "executed" || StatusPending.String() != "pending" {
		t.Errorf("unexpected status strings")
	}
}
