// Package logging defines the structured-logging interface used across
// modelcreator and its log/slog implementation.
package logging

import "context"

// Attribute keys shared by every component, so the lines of one
// submission can be followed from upload to the stored record.
const (
	KeyModelID = "model_id"
	KeyJobID   = "job_id"
	KeyPhase   = "phase"
	KeyError   = "error"
)

// Logger is a context-aware, structured logger. The variadic args are
// key/value pairs:
//
//	log.Info(ctx, "archive uploaded", "key", key, "url", url)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}

// ForModel scopes l to one model record.
func ForModel(l Logger, modelID string) Logger {
	return l.With(KeyModelID, modelID)
}

// ForJob scopes l to one remote training job.
func ForJob(l Logger, jobID string) Logger {
	return l.With(KeyJobID, jobID)
}
