// Package logger writes one JSON object per line. The process installs a
// single logger with Init; until then every call is a no-op, which keeps
// package tests quiet.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var levelRank = map[LogLevel]int{LevelInfo: 0, LevelWarn: 1, LevelError: 2}

// ParseLevel maps LOG_LEVEL values to a level; unknown values mean info.
func ParseLevel(raw string) LogLevel {
	switch l := LogLevel(strings.ToLower(strings.TrimSpace(raw))); l {
	case LevelWarn, LevelError:
		return l
	case "warning":
		return LevelWarn
	default:
		return LevelInfo
	}
}

type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Component string                 `json:"component,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	UserID    *string                `json:"user_id,omitempty"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type Logger struct {
	mu        sync.Mutex
	out       io.Writer
	component string
	min       LogLevel
	color     bool
}

var globalLogger *Logger

// New builds a logger writing to out (stdout when nil). Colors are used only
// when out is a terminal.
func New(out io.Writer, component string, min LogLevel) *Logger {
	if out == nil {
		out = os.Stdout
	}
	return &Logger{out: out, component: component, min: min, color: isTerminal(out)}
}

// Init installs the process-wide logger tagged with component ("api",
// "worker"). LOG_LEVEL sets the lowest level written.
func Init(component string) {
	globalLogger = New(os.Stdout, component, ParseLevel(os.Getenv("LOG_LEVEL")))
}

// SetOutput installs an info-level logger on w, mainly for tests.
func SetOutput(w io.Writer) {
	globalLogger = New(w, "", LevelInfo)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func (l *Logger) write(entry LogEntry) {
	if levelRank[entry.Level] < levelRank[l.min] {
		return
	}
	entry.Timestamp = time.Now().UTC()
	entry.Component = l.component

	line, err := json.Marshal(entry)
	if err != nil {
		line = []byte(fmt.Sprintf(`{"level":%q,"action":%q,"error":"unserializable details"}`, entry.Level, entry.Action))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.color {
		fmt.Fprintf(l.out, "%s\n", line)
		return
	}
	code := "36"
	switch entry.Level {
	case LevelError:
		code = "31"
	case LevelWarn:
		code = "33"
	}
	fmt.Fprintf(l.out, "\033[%sm%s\033[0m\n", code, line)
}

func emit(entry LogEntry) {
	if globalLogger != nil {
		globalLogger.write(entry)
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func Info(action string, details map[string]interface{}) {
	emit(LogEntry{Level: LevelInfo, Action: action, Details: details})
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	emit(LogEntry{Level: LevelInfo, UserID: &userID, Action: action, Details: details})
}

func Warn(action string, details map[string]interface{}) {
	emit(LogEntry{Level: LevelWarn, Action: action, Details: details})
}

func WarnWithUser(userID string, action string, details map[string]interface{}) {
	emit(LogEntry{Level: LevelWarn, UserID: &userID, Action: action, Details: details})
}

func Error(action string, err error, details map[string]interface{}) {
	emit(LogEntry{Level: LevelError, Action: action, Details: details, Error: errText(err)})
}

func ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	emit(LogEntry{Level: LevelError, UserID: &userID, Action: action, Details: details, Error: errText(err)})
}
