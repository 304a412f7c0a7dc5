package types

// Logger defines the structured logging interface used throughout the service.
// Arguments after msg are alternating key/value pairs, as with log/slog.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}
