// Package metrics exposes Prometheus instrumentation for the record
// store and backup subsystems. The Collector is wired into storage and
// backup through their Observer interfaces so neither package imports
// Prometheus directly.
package metrics
