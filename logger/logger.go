package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	defaultLogger *slog.Logger
	once          sync.Once
)

// Initialize 设置结构化日志
// 终端被 TUI 占用，所以日志写到 w (通常是日志文件)；只有第一次调用生效
func Initialize(w io.Writer, level slog.Level) {
	once.Do(func() {
		if w == nil {
			w = os.Stderr
		}
		handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: false,
		})
		defaultLogger = slog.New(handler)
	})
}

// Get 返回默认 logger，未初始化时写 stderr
func Get() *slog.Logger {
	Initialize(os.Stderr, slog.LevelInfo)
	return defaultLogger
}

// ParseLevel 把配置里的字符串转成 slog.Level，无法识别时用 info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

// With 返回带固定字段的 logger
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
