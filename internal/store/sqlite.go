// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Opens the database, applies pragmas, and creates the lease schema

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	logger = logger.With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// The busy timeout must ride in the DSN so every pooled connection
	// gets it, not only the one a db.Exec happens to land on.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS leases (
			id                    TEXT PRIMARY KEY,
			landlord_id           TEXT NOT NULL,
			tenant_id             TEXT NOT NULL,
			property_id           TEXT NOT NULL,
			status                TEXT NOT NULL,

			start_date            TEXT,
			end_date              TEXT,
			rent_amount           INTEGER NOT NULL DEFAULT 0,
			rent_frequency        TEXT NOT NULL DEFAULT 'monthly',
			security_deposit      INTEGER,
			utilities_included    TEXT NOT NULL DEFAULT '[]',
			utilities_tenant_paid TEXT NOT NULL DEFAULT '[]',
			late_fee              INTEGER NOT NULL DEFAULT 0,
			grace_period_days     INTEGER NOT NULL DEFAULT 0,
			terms_extra           TEXT NOT NULL DEFAULT '{}',
			custom_clauses        TEXT NOT NULL DEFAULT '[]',

			screening_status      TEXT NOT NULL DEFAULT 'pending',
			credit_score          INTEGER NOT NULL DEFAULT 0,
			income_verified       INTEGER NOT NULL DEFAULT 0,
			references_verified   INTEGER NOT NULL DEFAULT 0,
			submitted_at          TEXT,
			reviewed_at           TEXT,
			reviewed_by           TEXT NOT NULL DEFAULT '',
			review_notes          TEXT NOT NULL DEFAULT '',

			renewal_status        TEXT NOT NULL DEFAULT 'not_due',
			renewal_offered_at    TEXT,
			renewal_respond_by    TEXT,
			renewal_new_rent      INTEGER NOT NULL DEFAULT 0,
			renewal_new_end_date  TEXT,
			renewal_notice_id     TEXT NOT NULL DEFAULT '',

			deposit_status        TEXT NOT NULL DEFAULT 'pending',

			is_locked             INTEGER NOT NULL DEFAULT 0,
			locked_at             TEXT,
			is_deleted            INTEGER NOT NULL DEFAULT 0,
			deleted_at            TEXT,
			created_at            TEXT NOT NULL,
			updated_at            TEXT NOT NULL,
			version               INTEGER NOT NULL DEFAULT 1,

			CHECK (status IN (
				'pending_request', 'under_review', 'approved', 'rejected',
				'draft', 'sent_to_tenant', 'changes_requested', 'sent_to_landlord',
				'signed_by_landlord', 'fully_executed', 'active', 'renewal_pending',
				'notice_given', 'move_out_scheduled', 'expired', 'terminated',
				'cancelled'
			)),
			CHECK (deposit_status IN (
				'pending', 'paid', 'held', 'returned', 'partially_returned',
				'pending_refund'
			))
		);

		CREATE INDEX IF NOT EXISTS idx_leases_landlord ON leases(landlord_id);
		CREATE INDEX IF NOT EXISTS idx_leases_tenant ON leases(tenant_id);
		CREATE INDEX IF NOT EXISTS idx_leases_property ON leases(property_id);
		CREATE INDEX IF NOT EXISTS idx_leases_status ON leases(status);

		CREATE TABLE IF NOT EXISTS lease_status_history (
			lease_id      TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			seq           INTEGER NOT NULL,
			status        TEXT NOT NULL,
			changed_by    TEXT NOT NULL,
			reason        TEXT NOT NULL DEFAULT '',
			changed_at    TEXT NOT NULL,
			metadata_json TEXT,

			PRIMARY KEY (lease_id, seq)
		);

		CREATE TABLE IF NOT EXISTS lease_signatures (
			lease_id   TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			party      TEXT NOT NULL,
			signed_at  TEXT NOT NULL,
			mode       TEXT NOT NULL,
			data       TEXT NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',

			PRIMARY KEY (lease_id, party),
			CHECK (party IN ('landlord', 'tenant')),
			CHECK (mode IN ('draw', 'type', 'upload'))
		);

		CREATE TABLE IF NOT EXISTS lease_messages (
			id               TEXT NOT NULL,
			lease_id         TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			seq              INTEGER NOT NULL,
			from_user        TEXT NOT NULL,
			text             TEXT NOT NULL,
			attachments_json TEXT NOT NULL DEFAULT '[]',
			sent_at          TEXT NOT NULL,
			read_by_json     TEXT NOT NULL DEFAULT '[]',

			PRIMARY KEY (lease_id, seq)
		);

		CREATE TABLE IF NOT EXISTS lease_requested_changes (
			id               TEXT NOT NULL,
			lease_id         TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			seq              INTEGER NOT NULL,
			requested_by     TEXT NOT NULL,
			changes_json     TEXT NOT NULL DEFAULT '{}',
			requested_at     TEXT NOT NULL,
			resolved         INTEGER NOT NULL DEFAULT 0,
			resolved_at      TEXT,
			resolution_notes TEXT NOT NULL DEFAULT '',

			PRIMARY KEY (lease_id, seq)
		);

		CREATE TABLE IF NOT EXISTS lease_inspections (
			lease_id           TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			kind               TEXT NOT NULL,
			seq                INTEGER NOT NULL,
			scheduled_at       TEXT,
			conducted_at       TEXT,
			conducted_by       TEXT NOT NULL DEFAULT '',
			report             TEXT NOT NULL DEFAULT '',
			photos_json        TEXT NOT NULL DEFAULT '[]',
			signed_by_landlord INTEGER NOT NULL DEFAULT 0,
			signed_by_tenant   INTEGER NOT NULL DEFAULT 0,
			damages_json       TEXT NOT NULL DEFAULT '[]',

			PRIMARY KEY (lease_id, kind, seq),
			CHECK (kind IN ('move_in', 'move_out', 'periodic'))
		);

		CREATE TABLE IF NOT EXISTS lease_notices (
			id             TEXT NOT NULL,
			lease_id       TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			seq            INTEGER NOT NULL,
			type           TEXT NOT NULL,
			given_by       TEXT NOT NULL,
			given_at       TEXT NOT NULL,
			effective_date TEXT,
			reason         TEXT NOT NULL DEFAULT '',
			acknowledged   INTEGER NOT NULL DEFAULT 0,

			PRIMARY KEY (lease_id, seq),
			CHECK (type IN ('renewal', 'termination', 'rent_increase', 'other'))
		);

		CREATE TABLE IF NOT EXISTS lease_deposit_transactions (
			id          TEXT NOT NULL,
			lease_id    TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			seq         INTEGER NOT NULL,
			amount      INTEGER NOT NULL,
			type        TEXT NOT NULL,
			date        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			proof       TEXT NOT NULL DEFAULT '',

			PRIMARY KEY (lease_id, seq),
			CHECK (type IN ('deposit', 'return', 'deduction'))
		);

		CREATE TABLE IF NOT EXISTS lease_addenda (
			id         TEXT NOT NULL,
			lease_id   TEXT NOT NULL REFERENCES leases(id) ON DELETE CASCADE,
			seq        INTEGER NOT NULL,
			title      TEXT NOT NULL,
			body       TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			created_at TEXT NOT NULL,

			PRIMARY KEY (lease_id, seq)
		);

		CREATE TABLE IF NOT EXISTS audit_log (
			audit_id    TEXT PRIMARY KEY,
			actor_id    TEXT NOT NULL,
			action      TEXT NOT NULL,
			target_type TEXT NOT NULL,
			target_id   TEXT NOT NULL,
			ts          TEXT NOT NULL,
			detail_json TEXT,

			CHECK (action IN (
				'soft_delete_lease',
				'restore_lease',
				'permanent_delete_lease'
			))
		);

		CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_log(actor_id);
		CREATE INDEX IF NOT EXISTS idx_audit_target ON audit_log(target_type, target_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// timeFormat is how timestamps are stored: RFC 3339 with sub-second
// precision, always UTC, so lexical order is chronological order.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := parseTime(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
