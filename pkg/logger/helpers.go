package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs an outbound HTTP request on log
func LogRequest(log Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		orGlobal(log).ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		orGlobal(log).WarnWithFields("HTTP request client error", fields)
	default:
		orGlobal(log).DebugWithFields("HTTP request completed", fields)
	}
}

// LogItemProgress logs a stored item with the run's completion percentage
func LogItemProgress(log Logger, index, total int, name string, tags int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(index+1) / float64(total) * 100
	}

	orGlobal(log).WithFields(map[string]interface{}{
		"index":      index,
		"total":      total,
		"name":       name,
		"tags":       tags,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Item stored")
}

// LogItemFailure logs a failed attempt at an item
func LogItemFailure(log Logger, index int, consecutive int, err error) {
	orGlobal(log).WithFields(map[string]interface{}{
		"index":       index,
		"consecutive": consecutive,
	}).WithError(err).Warn("Item fetch failed")
}

// LogPause logs a deliberate sleep of the run loop
func LogPause(log Logger, reason string, d time.Duration) {
	orGlobal(log).WithFields(map[string]interface{}{
		"reason":   reason,
		"duration": d,
	}).Info("Pausing")
}

// LogComponentStart logs when a component starts
func LogComponentStart(log Logger, component string, config map[string]interface{}) {
	l := orGlobal(log).WithField("component", component)

	if len(config) > 0 {
		l = l.WithFields(config)
	}

	l.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(log Logger, component string, reason string) {
	orGlobal(log).WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

func orGlobal(log Logger) Logger {
	if log == nil {
		return GetLogger()
	}
	return log
}

// NewNopLogger creates a no-operation logger
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}
