package logger

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

type Logger interface {
	Info(action, message, requestID string, details map[string]interface{})
	Debug(action, message, requestID string, details map[string]interface{})
	Error(action, message, requestID string, details map[string]interface{}, err error)
}

type level int

const (
	levelDebug level = iota
	levelInfo
	levelError
)

var levelNames = map[level]string{
	levelDebug: "DEBUG",
	levelInfo:  "INFO",
	levelError: "ERROR",
}

func parseLevel(s string) level {
	switch s {
	case "debug", "DEBUG":
		return levelDebug
	case "error", "ERROR":
		return levelError
	default:
		return levelInfo
	}
}

type jsonLogger struct {
	service  string
	hostname string
	min      level
	out      io.Writer
	mu       sync.Mutex
}

// New returns a structured JSON logger writing to stdout. Entries below the
// configured level are dropped.
func New(service, minLevel string) Logger {
	hostname, _ := os.Hostname()
	return &jsonLogger{
		service:  service,
		hostname: hostname,
		min:      parseLevel(minLevel),
		out:      os.Stdout,
	}
}

func (l *jsonLogger) Info(action, message, requestID string, details map[string]interface{}) {
	l.log(levelInfo, action, message, requestID, details, nil)
}

func (l *jsonLogger) Debug(action, message, requestID string, details map[string]interface{}) {
	l.log(levelDebug, action, message, requestID, details, nil)
}

func (l *jsonLogger) Error(action, message, requestID string, details map[string]interface{}, err error) {
	l.log(levelError, action, message, requestID, details, err)
}

func (l *jsonLogger) log(lv level, action, message, requestID string, details map[string]interface{}, err error) {
	if lv < l.min {
		return
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     levelNames[lv],
		Service:   l.service,
		Hostname:  l.hostname,
		RequestID: requestID,
		Action:    action,
		Message:   message,
		Details:   details,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	json.NewEncoder(l.out).Encode(entry)
}
