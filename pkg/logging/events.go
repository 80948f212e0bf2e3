// pkg/logging/events.go - structured session events for post-incident review

package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// LogEvent represents an individual action within a session
type LogEvent struct {
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Level     string                 `json:"level"`
	EventType string                 `json:"event_type"` // status_check, update, validate
	Package   string                 `json:"package,omitempty"`
	Version   string                 `json:"version,omitempty"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"` // started, completed, failed
	Message   string                 `json:"message"`
	Duration  *time.Duration         `json:"duration,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

// SessionSummary provides high-level session metrics
type SessionSummary struct {
	Checked   int      `json:"checked"`
	Updates   int      `json:"updates"`
	Successes int      `json:"successes"`
	Failures  int      `json:"failures"`
	Programs  []string `json:"programs,omitempty"`
}

// LogSession is written to session.json when a session ends.
type LogSession struct {
	SessionID   string                 `json:"session_id"`
	Component   string                 `json:"component"`
	RunType     string                 `json:"run_type"` // check, update, validate, gui
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Status      string                 `json:"status"`
	Summary     SessionSummary         `json:"summary"`
	Environment map[string]interface{} `json:"environment"`
}

// EventOption customises a LogEvent before it is written.
type EventOption func(*LogEvent)

// WithPackage attaches the program name and version.
func WithPackage(name, version string) EventOption {
	return func(e *LogEvent) {
		e.Package = name
		e.Version = version
	}
}

// WithDuration records how long the action took.
func WithDuration(d time.Duration) EventOption {
	return func(e *LogEvent) {
		e.Duration = &d
	}
}

// WithError records a failure and raises the level to ERROR.
func WithError(err error) EventOption {
	return func(e *LogEvent) {
		if err != nil {
			e.Error = err.Error()
			e.Level = "ERROR"
		}
	}
}

// WithContext adds a free-form key.
func WithContext(key string, value interface{}) EventOption {
	return func(e *LogEvent) {
		if e.Context == nil {
			e.Context = make(map[string]interface{})
		}
		e.Context[key] = value
	}
}

// LogEvent appends an event to events.jsonl.
func (l *Logger) LogEvent(eventType, action, status, message string, opts ...EventOption) error {
	event := LogEvent{
		SessionID: l.sessionID,
		Timestamp: time.Now(),
		Level:     "INFO",
		EventType: eventType,
		Action:    action,
		Status:    status,
		Message:   message,
	}
	for _, opt := range opts {
		opt(&event)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.jsonFile == nil {
		return fmt.Errorf("event log is not open")
	}
	l.writeJSON(event)
	return nil
}

// EndSession writes session.json with the summary for this run.
func (l *Logger) EndSession(runType, status string, summary SessionSummary) error {
	session := LogSession{
		SessionID: l.sessionID,
		Component: l.config.Component,
		RunType:   runType,
		StartTime: l.sessionStart,
		EndTime:   time.Now(),
		Status:    status,
		Summary:   summary,
		Environment: map[string]interface{}{
			"hostname": l.hostname,
			"os":       runtime.GOOS,
			"arch":     runtime.GOARCH,
			"pid":      os.Getpid(),
		},
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(l.logDir, "session.json"), data, 0644)
}
