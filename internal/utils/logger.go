package utils

import (
	"fmt"
	"log"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"
)

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	DebugMode      bool
	CurrentLevel   LogLevel = LevelWarn
	ShowRaylibInfo bool
)

// Output is the logger every level writes to. Tests swap it for a buffer-backed one.
var Output = log.Default()

const (
	ansiReset   = "\033[0m"
	ansiMagenta = "\033[35m"
)

var levels = [...]struct {
	name  string
	color string
}{
	LevelDebug: {"DEBUG", "\033[36m"},
	LevelInfo:  {"INFO", "\033[34m"},
	LevelWarn:  {"WARN", "\033[33m"},
	LevelError: {"ERROR", "\033[31m"},
}

func (l LogLevel) valid() bool { return l >= LevelDebug && l <= LevelError }

func (l LogLevel) String() string {
	if !l.valid() {
		return "UNKNOWN"
	}
	return levels[l].name
}

// ParseLevel maps a config/flag value onto a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		name = "WARN"
	}
	for l, meta := range levels {
		if meta.name == name {
			return LogLevel(l), nil
		}
	}
	return LevelWarn, fmt.Errorf("unknown log level %q", s)
}

func logMessage(level LogLevel, format string, v ...interface{}) {
	if level < CurrentLevel {
		return
	}
	emit(level, format, v...)
}

func emit(level LogLevel, format string, v ...interface{}) {
	color := ""
	if level.valid() {
		color = levels[level].color
	}
	Output.Printf(color+"["+level.String()+"]"+ansiReset+" "+format, v...)
}

func Info(format string, v ...interface{})  { logMessage(LevelInfo, format, v...) }
func Debug(format string, v ...interface{}) { logMessage(LevelDebug, format, v...) }
func Warn(format string, v ...interface{})  { logMessage(LevelWarn, format, v...) }
func Error(format string, v ...interface{}) { logMessage(LevelError, format, v...) }

// RaylibLogCallback forwards raylib trace output into the leveled logger.
// Install it with rl.SetTraceLogCallback before the window opens.
func RaylibLogCallback(level int, text string) {
	line := ansiMagenta + "[RAYLIB] " + ansiReset + text
	switch rl.TraceLogLevel(level) {
	case rl.LogTrace, rl.LogDebug:
		Debug("%s", line)
	case rl.LogInfo:
		// INFO is chatty (one line per GL object) but useful when chasing driver issues.
		if ShowRaylibInfo || CurrentLevel <= LevelInfo {
			emit(LevelInfo, "%s", line)
		}
	case rl.LogWarning:
		Warn("%s", line)
	case rl.LogError, rl.LogFatal:
		Error("%s", line)
	}
}
