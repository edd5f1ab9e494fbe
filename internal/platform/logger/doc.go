// Package logger configures the application's structured slog logging
// and provides helpers for carrying a request-scoped logger through
// context.
package logger
