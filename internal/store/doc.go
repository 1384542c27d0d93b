// Package store provides SQLite-backed durable key-value storage for the
// client's local state.
//
// The only state the client keeps across restarts is small and opaque
// (today: the authenticated session), so the schema is a single table of
// key/value rows. Values are stored as BLOBs exactly as given; callers
// own their encoding.
//
// # Database Configuration
//
//   - WAL mode: readers are not blocked by the writer
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//
// Schema changes are tracked with PRAGMA user_version and applied by
// runMigrations on Open.
package store
