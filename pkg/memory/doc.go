// Package memory defines the core data model for the Capsule memory store:
// free-text notes, per-user relationship records, and backup snapshots.
//
// # Data Model
//
// Two entity families are persisted:
//
//  1. Note - an immutable free-text memory entry with category, tags,
//     importance, and an optional owning user.
//  2. Relationship - a mutable record accumulating the agent's impression
//     of a person, keyed by user ID plus optional group/platform qualifiers.
//
// Snapshots describe point-in-time copies of the storage file managed by
// the backup subsystem.
//
// # Invariants
//
//   - Note content is required and importance is always clamped to [1,10].
//   - Relationship intimacy is always clamped to [0,100]; fresh records
//     start from a baseline of 50 before any delta is applied.
//   - Relationship updates merge: supplied fields overwrite, omitted fields
//     keep their stored values, and a replaced nickname is appended to the
//     alias history.
//
// The package also carries the error taxonomy shared by the storage and
// backup subsystems. Errors wrap their cause and support errors.Is/As.
package memory
