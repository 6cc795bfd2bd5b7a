// Package logging builds the slog loggers used across pictor and holds
// the standardized attribute keys for stage and bag fields.
package logging
