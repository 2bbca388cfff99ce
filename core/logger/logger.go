package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	log  *slog.Logger
	once sync.Once
)

// Init configures the package logger. Production environments get JSON
// output, everything else a human-readable text handler.
func Init(env string) {
	once.Do(func() {
		var handler slog.Handler
		if strings.EqualFold(env, "production") {
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
		} else {
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
		}
		log = slog.New(handler)
	})
}

func get() *slog.Logger {
	if log == nil {
		Init("development")
	}
	return log
}

func Debug(msg string, args ...any) {
	get().Debug(msg, normalize(args)...)
}

func Info(msg string, args ...any) {
	get().Info(msg, normalize(args)...)
}

func Warn(msg string, args ...any) {
	get().Warn(msg, normalize(args)...)
}

func Error(msg string, args ...any) {
	get().Error(msg, normalize(args)...)
}

// normalize tolerates the bare-error call shape logger.Error("Tag:Error:", err)
// used throughout the services alongside key/value pairs.
func normalize(args []any) []any {
	if len(args) == 1 {
		if err, ok := args[0].(error); ok {
			return []any{"error", err}
		}
		return []any{"detail", args[0]}
	}
	return args
}
