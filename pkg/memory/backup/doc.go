// Package backup protects the storage file with scheduled and on-demand
// snapshots under a tiered retention policy.
//
// A snapshot is a raw copy of the storage file named
// memory_<YYYYMMDDHHMMSS>.db in a directory owned exclusively by the
// Manager. Before copying, the Manager asks the store to checkpoint its
// WAL so the copy captures every committed write.
//
// Retention buckets snapshots by age - within one day, one week, four
// weeks, twelve months - and keeps a configurable number of the newest
// snapshots in each tier (24/7/4/12 by default). Snapshots that age past
// the monthly window are never purged automatically. A non-tiered mode
// keeps a fixed count across all ages instead.
//
// The Scheduler drives periodic backups; Stop cancels cooperatively and
// waits for an in-flight backup to finish.
package backup
