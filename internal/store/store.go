package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking (PRAGMA user_version):
// 0 - never initialized, or created by a tool that does not set the version
// 1 - all six tables present
const currentSchemaVersion = 1

// Store provides durable storage for grocery price history.
// Uses SQLite with WAL mode so reads can run beside a write.
type Store struct {
	db        *sqlx.DB
	checkRefs bool
	log       *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithReferenceChecks controls whether writes verify that the referenced
// store or item exists. Enabled by default.
func WithReferenceChecks(enabled bool) Option {
	return func(s *Store) { s.checkRefs = enabled }
}

// WithLogger sets the logger used for debug output. Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open creates or opens a SQLite database at the given path and initializes
// its schema.
//
// The database is configured with:
//   - WAL mode for reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement off (see package doc)
//
// The settings travel in the DSN, so every connection the pool opens carries
// them.
//
// This function is idempotent - safe to call on every process start.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, &Error{Code: CodeStorageUnavailable, Op: "open", Message: path, Err: err}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &Error{Code: CodeStorageUnavailable, Op: "open", Message: path, Err: err}
	}

	// SQLite has a single writer; one connection avoids SQLITE_BUSY between
	// our own operations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, checkRefs: true, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize creates the schema if the store has never been initialized.
//
// The check happens once for the whole store (PRAGMA user_version), not per
// table. Tables are created with IF NOT EXISTS, so files written by older
// tools, or left half-created by an earlier failed attempt, initialize
// cleanly.
func (s *Store) Initialize(ctx context.Context) error {
	return s.withTx(ctx, "initialize", func(tx *sqlx.Tx) error {
		var version int
		if err := tx.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
			return fmt.Errorf("get user_version: %w", err)
		}
		if version >= currentSchemaVersion {
			s.log.Debug("database present", "schema_version", version)
			return nil
		}

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
		s.log.Info("database initialized", "schema_version", currentSchemaVersion)
		return nil
	})
}

// openConnection acquires a dedicated connection for one operation.
func (s *Store) openConnection(ctx context.Context, op string) (*sqlx.Conn, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, &Error{Code: CodeStorageUnavailable, Op: op, Message: "acquire connection", Err: err}
	}
	return conn, nil
}

// closeConnection returns conn to the pool.
func (s *Store) closeConnection(conn *sqlx.Conn) {
	if err := conn.Close(); err != nil {
		s.log.Warn("close connection", "error", err)
	}
}

// withTx runs fn as one unit of work: acquire a connection, begin, run,
// commit, release. fn's error rolls the transaction back.
func (s *Store) withTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	return s.run(ctx, op, nil, fn)
}

// withReadTx is withTx for queries.
func (s *Store) withReadTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	return s.run(ctx, op, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, op string, opts *sql.TxOptions, fn func(tx *sqlx.Tx) error) error {
	conn, err := s.openConnection(ctx, op)
	if err != nil {
		return err
	}
	defer s.closeConnection(conn)

	tx, err := conn.BeginTxx(ctx, opts)
	if err != nil {
		return classify(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(tx); err != nil {
		return classify(op, err)
	}

	if err := tx.Commit(); err != nil {
		return classify(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// connParams are the per-connection settings passed to go-sqlite3.
const connParams = "_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=0"

// dsn appends connParams to path.
func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + connParams
	}
	return path + "?" + connParams
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.Get(&value, fmt.Sprintf("PRAGMA %s", name)); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
