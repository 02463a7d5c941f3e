// Package logging provides structured logging for the marble simulation.
// It wraps Go's standard slog package so every component logs JSON with the
// same level control, run ID tagging and number formatting.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// LevelEnv names the environment variable that selects the log level.
const LevelEnv = "MARBLES_LOG_LEVEL"

// Logger wraps slog.Logger with run ID support.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger writing JSON to stderr. Stdout is left to the
// terminal renderer. The level comes from MARBLES_LOG_LEVEL
// (DEBUG, INFO, WARN, ERROR) and defaults to INFO.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stderr)
}

// NewLoggerWithWriter creates a Logger writing JSON to w.
func NewLoggerWithWriter(w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       getLogLevelFromEnv(),
		ReplaceAttr: sanitizeAttributes,
	})
	return &Logger{slog.New(runIDHandler{handler})}
}

// Discard returns a Logger that drops everything. Used as the default for
// components constructed without one.
func Discard() *Logger {
	return &Logger{slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// runIDHandler stamps every record logged with a run-tagged context.
type runIDHandler struct {
	slog.Handler
}

func (h runIDHandler) Handle(ctx context.Context, r slog.Record) error {
	if runID := GetRunID(ctx); runID != "" {
		r.AddAttrs(slog.String("run_id", runID))
	}
	return h.Handler.Handle(ctx, r)
}

func (h runIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return runIDHandler{h.Handler.WithAttrs(attrs)}
}

func (h runIDHandler) WithGroup(name string) slog.Handler {
	return runIDHandler{h.Handler.WithGroup(name)}
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.InfoContext(ctx, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.WarnContext(ctx, msg, args...)
}

// Error logs at error level with err under the "error" key.
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.ErrorContext(ctx, msg, args...)
}

// Debug logs at debug level. Per-tick callers rely on it being cheap when disabled.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.DebugContext(ctx, msg, args...)
}

type runIDKey struct{}

// WithRunID tags ctx with a run ID, generating one when id is empty.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = GenerateRunID()
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

// GetRunID returns the run ID in ctx, or "".
func GetRunID(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GenerateRunID creates a random 16 character hex ID.
func GenerateRunID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// getLogLevelFromEnv parses LevelEnv the way slog.Level.UnmarshalText
// does, also accepting WARNING. Anything unparseable means INFO.
func getLogLevelFromEnv() slog.Level {
	name := strings.ToUpper(strings.TrimSpace(os.Getenv(LevelEnv)))
	if name == "WARNING" {
		name = "WARN"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// sanitizeAttributes keeps the JSON valid when a diverging body produces
// NaN or Inf, and prints vectors as short arrays.
func sanitizeAttributes(groups []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindFloat64:
		f := a.Value.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return slog.String(a.Key, fmt.Sprint(f))
		}
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case mgl64.Vec3:
			return slog.String(a.Key, FormatVec3(v))
		case mgl64.Vec4:
			return slog.String(a.Key, FormatVec3(v.Vec3()))
		}
	}
	return a
}

// FormatVec3 renders v as "[x y z]" with three decimals.
func FormatVec3(v mgl64.Vec3) string {
	return fmt.Sprintf("[%.3f %.3f %.3f]", v[0], v[1], v[2])
}

// WrapError wraps an error with additional context information.
func WrapError(err error, context string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		context = fmt.Sprintf(context, args...)
	}
	return fmt.Errorf("%s: %w", context, err)
}
