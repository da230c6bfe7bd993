// Package server provides the admin HTTP API for the memory store.
//
// The API exposes notes, relationships, stats, and backup management
// under /api, plus /healthz and optionally /metrics. List endpoints
// return a pagination envelope with items, total, page, limit, and
// total_pages fields. The server depends only on the RecordStore and
// BackupManager interfaces so handlers can be tested against fakes.
package server
