package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeToolCall        EventType = "tool_call"
	EventTypeToolResult      EventType = "tool_result"
	EventTypeLLM             EventType = "llm"
	EventTypeRetry           EventType = "retry"
	EventTypeSchemaViolation EventType = "schema_violation"
	EventTypeDegraded        EventType = "degraded"
	EventTypeCost            EventType = "cost"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger writes structured JSONL events. With a file path it appends to the
// file and rotates it past maxSize; with an injected writer (tests) it just
// writes.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	path    string
	maxSize int64
}

// NewLogger returns a file-backed logger writing to <dir>/events.jsonl.
func NewLogger(dir string) *Logger {
	return &Logger{
		path:    filepath.Join(dir, "events.jsonl"),
		maxSize: 10 * 1024 * 1024, // 10MB
	}
}

// NewLoggerWithWriter returns a logger writing to w, without rotation.
func NewLoggerWithWriter(w io.Writer) *Logger {
	return &Logger{out: w}
}

// Log emits a structured JSON event. A nil logger is a no-op so callers can
// skip wiring one up.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("failed to marshal event: %v", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out != nil {
		fmt.Fprintln(l.out, string(data))
		return
	}
	l.writeToFile(data)
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.path)
	if err == nil && info.Size() > l.maxSize {
		l.rotate()
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotate() {
	// Simple rotation: keep one .old file
	oldPath := l.path + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.path, oldPath)
}

// Helper methods for common events

func (l *Logger) LogToolCall(sessionID, tool, args string) {
	l.Log(Event{
		Type:      EventTypeToolCall,
		SessionID: sessionID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogToolResult(sessionID, tool, result string) {
	l.Log(Event{
		Type:      EventTypeToolResult,
		SessionID: sessionID,
		Data: map[string]string{
			"tool":   tool,
			"result": result,
		},
	})
}

func (l *Logger) LogLLM(sessionID, response string, toolCalls any) {
	l.Log(Event{
		Type:      EventTypeLLM,
		SessionID: sessionID,
		Data: map[string]any{
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}

func (l *Logger) LogRetry(sessionID string, attempt int, cause string) {
	l.Log(Event{
		Type:      EventTypeRetry,
		SessionID: sessionID,
		Data: map[string]any{
			"attempt": attempt,
			"cause":   cause,
		},
	})
}

func (l *Logger) LogSchemaViolation(sessionID, raw, cause string) {
	l.Log(Event{
		Type:      EventTypeSchemaViolation,
		SessionID: sessionID,
		Data: map[string]string{
			"raw":   raw,
			"cause": cause,
		},
	})
}

func (l *Logger) LogDegraded(sessionID, reason string) {
	l.Log(Event{
		Type:      EventTypeDegraded,
		SessionID: sessionID,
		Data:      map[string]string{"reason": reason},
	})
}

func (l *Logger) LogCost(sessionID string, promptTokens, completionTokens int) {
	l.Log(Event{
		Type:      EventTypeCost,
		SessionID: sessionID,
		Data: map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	})
}
