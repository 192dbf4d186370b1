// Package store provides SQLite-backed storage for grocery price history.
//
// The store holds two kinds of records:
//   - Reference data: STORES, ITEMS, STORETAGS, ITEMTAGS. Created on first
//     reference with insert-if-absent, never updated or deleted.
//   - Events: PRICES and COUPONS. Append-only, one row per logical key
//     (date + item for prices, expiration date for coupons). The first write
//     for a key wins; later writes for the same key are absorbed.
//
// # Unit of Work
//
// Every exported operation acquires its own connection, runs exactly one
// transaction, and releases the connection before returning. Nothing is
// shared across calls, so each operation is independently idempotent and
// safe to retry. A crash between AddStore and AddItem leaves the store
// without the item; re-running both is the recovery.
//
// # Duplicates
//
// Duplicate keys are handled in SQL with ON CONFLICT DO NOTHING, never by
// catching constraint faults. Any constraint error that still reaches Go is
// therefore a genuine violation and is reported.
//
// # References
//
// The schema declares foreign keys against non-unique parent columns
// (ITEMS.NAME, ITEMS.BRAND). SQLite rejects writes to such tables with
// "foreign key mismatch" when enforcement is on, so foreign_keys stays OFF
// and references are checked in Go instead. WithReferenceChecks(false)
// disables the check and records dangling references as older data files
// did.
//
// # Database Configuration
//
//   - WAL mode: readers see a snapshot while a write is in flight
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for external writers up to 5 seconds
//   - foreign_keys=OFF (see above)
//
// These are set through the DSN, so they hold on every pooled connection.
//
// # Existing Files
//
// Opening a data file written by an older tool changes its header in two
// ways: PRAGMA user_version is stamped to 1 once the tables are confirmed,
// and journal_mode=WAL is persistent, so the file stays in WAL mode (with
// -wal and -shm side files) after the store is closed. Table layouts and
// rows are not altered. A tool that needs rollback-journal mode can run
// PRAGMA journal_mode=DELETE on the closed file.
package store
