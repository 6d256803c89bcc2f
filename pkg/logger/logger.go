// Package logger provides leveled, component-scoped logging for the relay
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// LogLevel represents a logging level
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns string representation of log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses a level name, defaulting to INFO
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

var levelColors = map[LogLevel]*color.Color{
	DEBUG: color.New(color.FgHiBlack),
	INFO:  color.New(color.FgCyan),
	WARN:  color.New(color.FgYellow, color.Bold),
	ERROR: color.New(color.FgRed, color.Bold),
}

var (
	// all loggers share one level and one write lock so lines never interleave
	mu          sync.Mutex
	globalLevel = INFO
	sharedFile  *os.File
	exitFunc    = os.Exit
)

// Logger writes leveled lines tagged with a component name
type Logger struct {
	component string
	console   io.Writer
	file      *os.File
}

// Package-level loggers, one per subsystem
var (
	Server = New("SERVER")
	Relay  = New("RELAY")
	Game   = New("GAME")
	Auth   = New("AUTH")
	Client = New("CLIENT")
)

// New creates a logger for the given component writing to the colour-aware stdout
func New(component string) *Logger {
	return &Logger{
		component: component,
		console:   color.Output,
	}
}

// SetGlobalLogLevel sets the minimum level for every logger
func SetGlobalLogLevel(level LogLevel) {
	mu.Lock()
	defer mu.Unlock()
	globalLevel = level
}

// GlobalLogLevel returns the current minimum level
func GlobalLogLevel() LogLevel {
	mu.Lock()
	defer mu.Unlock()
	return globalLevel
}

// SetOutput replaces the console writer. A nil writer silences console output.
func (l *Logger) SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	l.console = w
}

// SetFile mirrors this logger's output into the file at path
func (l *Logger) SetFile(path string) error {
	file, err := openLogFile(path)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if l.file != nil && l.file != sharedFile {
		l.file.Close()
	}
	l.file = file
	return nil
}

// InitializeFileLogging mirrors every package-level logger into dir/chat-relay.log
func InitializeFileLogging(dir string) error {
	file, err := openLogFile(filepath.Join(dir, "chat-relay.log"))
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if sharedFile != nil {
		sharedFile.Close()
	}
	sharedFile = file
	for _, l := range []*Logger{Server, Relay, Game, Auth, Client} {
		if l.file == nil {
			l.file = file
		}
	}
	return nil
}

// Close releases any log files held by the package
func Close() {
	mu.Lock()
	defer mu.Unlock()
	for _, l := range []*Logger{Server, Relay, Game, Auth, Client} {
		if l.file != nil && l.file != sharedFile {
			l.file.Close()
		}
		l.file = nil
	}
	if sharedFile != nil {
		sharedFile.Close()
		sharedFile = nil
	}
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return file, nil
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if level < globalLevel {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	msg := fmt.Sprintf(format, args...)
	tag := "[" + level.String() + "]"

	if l.console != nil {
		fmt.Fprintf(l.console, "%s %s [%s] %s\n", timestamp, levelColors[level].Sprint(tag), l.component, msg)
	}
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %s [%s] %s\n", timestamp, tag, l.component, msg)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn logs a warning
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error logs an error
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// Fatal logs an error and terminates the process
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
	exitFunc(1)
}
