package enum_test

import (
	"testing"

	"github.com/bcomnes/cyclekit/pkg/enum"
)

func TestCommandNames(t *testing.T) {
	names := enum.CommandNames()
	if len(names) != 6 {
		t.Fatalf("expected 6 command names, got %d", len(names))
	}
	seen := map[enum.CommandName]struct{}{}
	for _, n := range names {
		if _, ok := seen[n]; ok {
			t.Fatalf("duplicate command name %s", n)
		}
		seen[n] = struct{}{}
	}
	if enum.RunMigration.String() != "cycle:migrator:run" {
		t.Errorf("unexpected run migration name %q", enum.RunMigration)
	}
}

func TestParseSchemaProperty(t *testing.T) {
	data := []struct {
		in      string
		want    *enum.SchemaProperty
		wantErr bool
	}{
		{in: "", want: nil},
		{in: "  ", want: nil},
		{in: "0", want: ptr(enum.SyncTables)},
		{in: "Sync_Tables", want: ptr(enum.SyncTables)},
		{in: "1", want: ptr(enum.GenerateMigrations)},
		{in: "generate_migrations", want: ptr(enum.GenerateMigrations)},
		{in: "2", wantErr: true},
		{in: "sync", wantErr: true},
	}
	for _, d := range data {
		got, err := enum.ParseSchemaProperty(d.in)
		if d.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", d.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", d.in, err)
		}
		switch {
		case d.want == nil && got != nil:
			t.Errorf("%q: expected nil, got %s", d.in, *got)
		case d.want != nil && (got == nil || *got != *d.want):
			t.Errorf("%q: expected %s, got %v", d.in, *d.want, got)
		}
	}
}

func ptr(p enum.SchemaProperty) *enum.SchemaProperty {
	return &p
}
