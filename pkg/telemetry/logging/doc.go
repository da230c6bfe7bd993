// Package logging configures structured logging for the process on top
// of log/slog. Components obtain their loggers from the installed
// default with a "component" attribute rather than passing loggers
// through every constructor.
package logging
