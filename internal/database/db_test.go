package database

import (
	"strings"
	"testing"
)

func TestBuildDSN(t *testing.T) {
	t.Parallel()

	t.Run("with password", func(t *testing.T) {
		dsn := buildDSN("app", "secret", "db", "3306", "tickets")
		if !strings.HasPrefix(dsn, "app:secret@tcp(db:3306)/tickets?") {
			t.Fatalf("unexpected dsn %q", dsn)
		}
	})

	t.Run("without password", func(t *testing.T) {
		dsn := buildDSN("app", "", "db", "3306", "tickets")
		if !strings.HasPrefix(dsn, "app@tcp(db:3306)/tickets?") {
			t.Fatalf("unexpected dsn %q", dsn)
		}
	})

	// The repositories read RowsAffected after conditional UPDATEs and
	// treat zero as not-found.  That is only correct when the driver
	// counts matched rows, so the flag must never fall out of the DSN:
	// without it, flushing an unchanged left_seats value would surface
	// as a spurious ErrTicketInfoNotFound.
	t.Run("matched-rows counting is enabled", func(t *testing.T) {
		dsn := buildDSN("app", "secret", "db", "3306", "tickets")
		if !strings.Contains(dsn, "clientFoundRows=true") {
			t.Fatalf("dsn %q must set clientFoundRows=true", dsn)
		}
	})

	t.Run("utc time parsing is enabled", func(t *testing.T) {
		dsn := buildDSN("app", "secret", "db", "3306", "tickets")
		if !strings.Contains(dsn, "parseTime=true") || !strings.Contains(dsn, "loc=UTC") {
			t.Fatalf("dsn %q must parse times in UTC", dsn)
		}
	})
}
