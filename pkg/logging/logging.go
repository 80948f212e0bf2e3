// pkg/logging/logging.go - timestamped session logging for DFIR Updater
//
// Every run gets its own YYYY-MM-DD-HHMMss directory under the configured log
// path holding a plain-text update.log and a JSON-lines events.jsonl, so a
// responder can hand the whole directory over with the workstation.

package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/windowsadmins/dfirupdater/pkg/config"
	"github.com/windowsadmins/dfirupdater/pkg/version"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string onto a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// LogEntry is one structured line in events.jsonl.
type LogEntry struct {
	Time       int64                  `json:"time"`
	Timestamp  string                 `json:"timestamp"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component"`
	PID        int64                  `json:"pid"`
	Hostname   string                 `json:"hostname"`
	Version    string                 `json:"version"`
	SessionID  string                 `json:"session_id"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// LoggerConfig holds configuration for the session logger
type LoggerConfig struct {
	BaseDir       string   // Base logging directory
	Component     string   // Binary name recorded on every entry
	Level         LogLevel // Lowest level written
	KeepSessions  int      // Session directories retained, newest first
	EnableJSON    bool     // Write events.jsonl
	EnableConsole bool     // Mirror the text log to stdout
}

// Logger encapsulates the logging functionality with timestamped directories.
type Logger struct {
	mu       sync.RWMutex
	logger   *log.Logger
	logLevel LogLevel
	logFile  *os.File
	jsonFile *os.File
	config   LoggerConfig

	sessionID    string
	sessionStart time.Time
	logDir       string
	hostname     string
	colors       bool
}

var (
	instance *Logger
	once     sync.Once
)

// Init initializes the singleton Logger based on the provided configuration.
// It must be called before any logging functions are used.
func Init(cfg *config.Configuration, component string, console bool) error {
	level := ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = LevelDebug
	}
	return InitWithConfig(LoggerConfig{
		BaseDir:       cfg.LogPath,
		Component:     component,
		Level:         level,
		KeepSessions:  20,
		EnableJSON:    true,
		EnableConsole: console,
	})
}

// InitWithConfig initializes the logger with explicit LoggerConfig
func InitWithConfig(logCfg LoggerConfig) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLoggerWithConfig(logCfg)
	})
	return initErr
}

// newLoggerWithConfig creates a new Logger instance with explicit configuration.
func newLoggerWithConfig(cfg LoggerConfig) (*Logger, error) {
	sessionStart := time.Now()

	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base log directory: %w", err)
	}

	// Format: YYYY-MM-DD-HHMMss
	logDir := filepath.Join(cfg.BaseDir, sessionStart.Format("2006-01-02-150405"))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create timestamped log directory %s: %w", logDir, err)
	}

	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	l := &Logger{
		config:       cfg,
		logLevel:     cfg.Level,
		sessionID:    uuid.NewString(),
		sessionStart: sessionStart,
		logDir:       logDir,
		hostname:     hostname,
	}

	var err error
	l.logFile, err = os.OpenFile(filepath.Join(logDir, "update.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open main log file: %w", err)
	}
	if cfg.EnableJSON {
		l.jsonFile, err = os.OpenFile(filepath.Join(logDir, "events.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			l.logFile.Close()
			return nil, fmt.Errorf("failed to open JSON log file: %w", err)
		}
	}

	if cfg.EnableConsole {
		l.logger = log.New(io.MultiWriter(os.Stdout, l.logFile), "", 0)
	} else {
		l.logger = log.New(l.logFile, "", 0)
	}

	if cfg.KeepSessions > 0 {
		l.performCleanup()
	}
	return l, nil
}

// performCleanup removes the oldest session directories beyond KeepSessions.
func (l *Logger) performCleanup() {
	entries, err := os.ReadDir(l.config.BaseDir)
	if err != nil {
		return
	}

	var logDirs []string
	for _, entry := range entries {
		// YYYY-MM-DD-HHMMss
		if entry.IsDir() && len(entry.Name()) == 17 && strings.Count(entry.Name(), "-") == 3 {
			logDirs = append(logDirs, entry.Name())
		}
	}

	sort.Sort(sort.Reverse(sort.StringSlice(logDirs)))
	for i := l.config.KeepSessions; i < len(logDirs); i++ {
		os.RemoveAll(filepath.Join(l.config.BaseDir, logDirs[i])) // best effort
	}
}

// CloseLogger closes all log files if they're open.
func CloseLogger() {
	if instance == nil {
		return
	}
	instance.close()
}

func (l *Logger) close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		l.logFile.Close()
		l.logFile = nil
	}
	if l.jsonFile != nil {
		l.jsonFile.Close()
		l.jsonFile = nil
	}
}

// logMessage is the core logging method that writes to all configured outputs
func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level > l.logLevel || l.logFile == nil {
		return
	}

	properties := make(map[string]interface{})
	for i := 0; i+1 < len(keyValues); i += 2 {
		properties[fmt.Sprintf("%v", keyValues[i])] = fmt.Sprintf("%v", keyValues[i+1])
	}

	now := time.Now()
	entry := LogEntry{
		Time:       now.Unix(),
		Timestamp:  now.Format(time.RFC3339),
		Level:      level.String(),
		Message:    message,
		Component:  l.config.Component,
		PID:        int64(os.Getpid()),
		Hostname:   l.hostname,
		Version:    version.Version().Version,
		SessionID:  l.sessionID,
		Properties: properties,
	}

	l.writeMainLog(entry, keyValues)
	if l.jsonFile != nil {
		l.writeJSON(entry)
	}
}

// writeMainLog writes to update.log in the traditional one-line format
func (l *Logger) writeMainLog(entry LogEntry, keyValues []interface{}) {
	ts := time.Unix(entry.Time, 0).Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %-5s %s", ts, entry.Level, entry.Message)

	for i := 0; i+1 < len(keyValues); i += 2 {
		line += fmt.Sprintf(" %v=%v", keyValues[i], keyValues[i+1])
	}

	if entry.Level == "ERROR" {
		line = "\n----------------------------------------\n" + line
	}
	l.logger.Println(line)
}

func (l *Logger) writeJSON(v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		l.jsonFile.Write(append(data, '\n'))
	}
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	if instance == nil {
		return
	}
	instance.logMessage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	if instance == nil {
		return
	}
	instance.logMessage(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	if instance == nil {
		return
	}
	instance.logMessage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	if instance == nil {
		return
	}
	instance.logMessage(LevelError, message, keyValues...)
}

// GetCurrentLogDir returns the session directory, or "" before Init.
func GetCurrentLogDir() string {
	if instance == nil {
		return ""
	}
	return instance.logDir
}

// GetSessionID returns the session identifier, or "" before Init.
func GetSessionID() string {
	if instance == nil {
		return ""
	}
	return instance.sessionID
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
)

// New creates a console Logger for operator-facing CLI output.
func New(verbose bool) *Logger {
	output := os.Stdout
	if !verbose {
		output = os.Stderr
	}
	colors := term.IsTerminal(int(output.Fd())) && enableColors(output)
	return &Logger{
		logger:   log.New(output, "", 0),
		logLevel: LevelInfo,
		colors:   colors,
	}
}

// SetOutput changes the output destination and disables colors.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetOutput(w)
	l.colors = false
}

func (l *Logger) colorPrintf(color, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ts := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	if !l.colors {
		l.logger.Printf("[%s] %s", ts, msg)
		return
	}
	l.logger.Printf("%s[%s] %s%s", color, ts, msg, colorReset)
}

// Printf prints a regular message.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] %s", ts, fmt.Sprintf(format, v...))
}

// Info prints an informational message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.Printf(format, v...)
}

// Success prints a success message in green.
func (l *Logger) Success(format string, v ...interface{}) {
	l.colorPrintf(colorGreen, format, v...)
}

// Error prints an error message in red.
func (l *Logger) Error(format string, v ...interface{}) {
	l.colorPrintf(colorRed, format, v...)
}

// Warning prints a warning message in yellow.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.colorPrintf(colorYellow, format, v...)
}

// Debug prints a debug message in blue.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.colorPrintf(colorBlue, format, v...)
}

// Fatal prints an error message in red and exits.
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Error(format, v...)
	CloseLogger()
	os.Exit(1)
}
