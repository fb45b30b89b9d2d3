package logger

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

type logger struct{}

const (
	// TypeKey is the attribute holding the event type of a record
	TypeKey = "type"
	// DataKey is the group holding the structured payload of a record
	DataKey = "data"
)

// NewLogger creates a new slog.Logger instance.
// If handlers are provided, the first handler in the slice is used; otherwise,
// a default JSON event handler writing to os.Stderr is used. The level of the
// default handler is read from the LOG_LEVEL environment variable.
func NewLogger(h ...slog.Handler) *slog.Logger {
	var handler slog.Handler
	if len(h) > 0 {
		handler = h[0]
	} else {
		handler = NewEventHandler(os.Stderr, getLevel(os.Getenv("LOG_LEVEL")))
	}
	return slog.New(handler)
}

// NewEventHandler returns a JSON handler that writes one event per line
// in the form {timestamp, level, message, type, data}.
func NewEventHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	})
}

// Type returns the attribute tagging a record with the given event type
func Type(event string) slog.Attr {
	return slog.String(TypeKey, event)
}

// Data groups the given key/value pairs under the data key of a record
func Data(args ...any) slog.Attr {
	return slog.Group(DataKey, args...)
}

// NewContextWithLogger creates a new context based on the provided parent context.
// It embeds a logger into this new context, which is a child of the logger from the parent context.
// The child logger inherits settings from the parent and is grouped under the provided childName.
// It also returns a cancel function to cancel the new context.
func NewContextWithLogger(parent context.Context, childName ...string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	log := FromContext(parent)
	if len(childName) > 0 && childName[0] != "" {
		log = log.With("component", childName[0])
	}
	return IntoContext(ctx, log), cancel
}

// IntoContext embeds the provided slog.Logger into the given context and returns the modified context.
// This function is used for passing loggers through context, allowing for context-aware logging.
func IntoContext(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, logger{}, log)
}

// FromContext extracts the slog.Logger from the provided context.
// If the context does not have a logger, it returns a new logger with the default configuration.
// This function is useful for retrieving loggers from context in different parts of an application.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(logger{}).(*slog.Logger); ok {
			return logger
		}
	}
	return NewLogger()
}

// Middleware takes the logger from the context and injects it into the request context
func Middleware(ctx context.Context) func(http.Handler) http.Handler {
	log := FromContext(ctx)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqCtx := IntoContext(r.Context(), log)
			next.ServeHTTP(w, r.WithContext(reqCtx))
		})
	}
}

// getLevel takes a level string and maps it to the corresponding slog.Level
// Returns the level if no mapped level is found it returns info level
func getLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
