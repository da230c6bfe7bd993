// Capsule is a persistent memory store for conversational agents.
//
// It records free-text notes and per-user relationship state in SQLite,
// keeps a full-text index over notes in sync via triggers, and protects
// the storage file with tiered automatic backups.
//
// Usage:
//
//	# Start the daemon (backup scheduler + admin API)
//	capsule run
//
//	# Start with a custom configuration file
//	capsule run --config /path/to/config.yaml
//
//	# Store and search notes from the command line
//	capsule note add "prefers tea over coffee" --category preference
//	capsule note search tea
//
//	# Inspect and restore backups
//	capsule backup list
//	capsule backup restore memory_20260831120000.db
package main

func main() {
	Execute()
}
