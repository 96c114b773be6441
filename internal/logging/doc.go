// Package logging builds the slog loggers used across tomp4: a pretty
// console handler, a JSON handler for log files, a fanout handler for
// duplicating records into several sinks, and a stream hub that mirrors
// every record to attached observers.
package logging
