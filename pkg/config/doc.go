// Package config loads and validates the process configuration from a
// YAML file, with defaults applied for anything unset and CAPSULE_*
// environment variables taking precedence over file values.
//
// There is no process-wide configuration singleton: the run command
// loads a Config once and hands it to each subsystem explicitly. The
// Watcher provides debounced hot-reload of settings that are safe to
// change at runtime, such as backup retention counts.
package config
