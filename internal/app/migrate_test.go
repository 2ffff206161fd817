package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestRunRequiresKnownCommand(t *testing.T) {
	if err := Run(context.Background(), nil); err == nil {
		t.Fatal("expected error without a command")
	}
	if err := Run(context.Background(), []string{"explode"}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_content.sql", "0001_registrations.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "archive.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := listMigrations(dir)
	if err != nil {
		t.Fatalf("list migrations: %v", err)
	}
	want := []string{"0001_registrations.sql", "0002_content.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}

	if _, err := listMigrations(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestPendingMigrationsAndStatus(t *testing.T) {
	all := []string{"0001.sql", "0002.sql", "0003.sql"}
	applied := map[string]struct{}{"0001.sql": {}}

	if got := pendingMigrations(all, applied); !reflect.DeepEqual(got, []string{"0002.sql", "0003.sql"}) {
		t.Fatalf("unexpected pending %v", got)
	}

	var out bytes.Buffer
	printStatus(&out, all, applied)
	want := "[x] 0001.sql\n[ ] 0002.sql\n[ ] 0003.sql\n"
	if out.String() != want {
		t.Fatalf("expected %q got %q", want, out.String())
	}
}

func TestSeedFileName(t *testing.T) {
	if got := seedFileName("dev"); got != "dev_seed.sql" {
		t.Fatalf("expected dev_seed.sql got %s", got)
	}
	if got := seedFileName("custom.sql"); got != "custom.sql" {
		t.Fatalf("expected custom.sql got %s", got)
	}
}

func TestResolveDir(t *testing.T) {
	if got, _ := resolveDir("/srv/migrations"); got != "/srv/migrations" {
		t.Fatalf("expected absolute path unchanged got %s", got)
	}
	wd, _ := os.Getwd()
	if got, _ := resolveDir("migrations"); got != filepath.Join(wd, "migrations") {
		t.Fatalf("expected path relative to working directory got %s", got)
	}
}

func TestMigrationBackoff(t *testing.T) {
	if got := migrationBackoff(1); got != migrationBaseBackoff {
		t.Fatalf("expected base backoff got %s", got)
	}
	if got := migrationBackoff(2); got != 2*migrationBaseBackoff {
		t.Fatalf("expected doubled backoff got %s", got)
	}
	if got := migrationBackoff(10); got != 3*time.Second {
		t.Fatalf("expected capped backoff got %s", got)
	}
}

func TestShouldRetryMigration(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: context.DeadlineExceeded, want: true},
		{err: &pgconn.PgError{Code: "40001"}, want: true},
		{err: &pgconn.PgError{Code: "42601"}, want: false},
		{err: errors.New("syntax error"), want: false},
	}

	for _, tt := range tests {
		if got := shouldRetryMigration(tt.err); got != tt.want {
			t.Fatalf("shouldRetryMigration(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
