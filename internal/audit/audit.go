// Package audit provides an append-only audit trail for authentication and
// trade events.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Authentication events
	EventTokenIssued EventType = "TOKEN_ISSUED"
	EventAuthFailed  EventType = "AUTH_FAILED"

	// Trade events
	EventTradeRecorded EventType = "TRADE_RECORDED"
	EventTradeRejected EventType = "TRADE_REJECTED"
)

// Event represents a single audit log entry, written as one JSON line.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	EventType EventType `json:"event_type"`
	BrokerID  string    `json:"broker_id,omitempty"`
	Ticker    string    `json:"ticker,omitempty"`
	TradeID   string    `json:"trade_id,omitempty"`
	Success   bool      `json:"success"`
	ErrorMsg  string    `json:"error,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
}

// Logger writes audit events to a rotated, compressed log file. A nil
// Logger discards all events, so callers never need to guard their calls.
type Logger struct {
	writer    *lumberjack.Logger
	mu        sync.Mutex
	sessionID string
}

// Config holds audit logger configuration.
type Config struct {
	LogDir     string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultConfig returns the default audit configuration.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		LogDir:     filepath.Join(home, ".config", "londonstock", "audit"),
		MaxSize:    50,
		MaxBackups: 30,
		MaxAge:     365,
	}
}

// NewLogger creates a new audit logger.
func NewLogger(cfg Config) (*Logger, error) {
	// Restricted permissions; the trail carries broker identities
	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	writer := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogDir, "audit.log"),
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}

	return &Logger{
		writer:    writer,
		sessionID: uuid.NewString(),
	}, nil
}

// Log writes an audit event. Failures to write are returned but callers
// typically only log them; auditing never blocks the request path.
func (l *Logger) Log(event Event) error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	event.Timestamp = time.Now().UTC()
	event.SessionID = l.sessionID

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing audit event: %w", err)
	}
	if _, err := l.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.writer.Close()
}
