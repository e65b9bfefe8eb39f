package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LokiLogger is the application logger. Entries always go to stdout as JSON
// and are additionally pushed to Loki when a Loki URL is configured.
type LokiLogger struct {
	Logger      *otelzap.Logger
	ServiceName string
	lokiURL     string
	httpClient  *http.Client
}

type LokiLogEntry struct {
	Streams []LokiStream `json:"streams"`
}

type LokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

func NewLokiLogger(serviceName, lokiURL string, development bool) (*LokiLogger, error) {
	config := zap.NewProductionConfig()

	if development {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"
	config.InitialFields = map[string]any{"service": serviceName}

	zapLogger, err := config.Build()

	if err != nil {
		return nil, fmt.Errorf("failed to create zap logger: %w", err)
	}

	logger := &LokiLogger{
		Logger:      otelzap.New(zapLogger, otelzap.WithMinLevel(zapcore.InfoLevel)),
		ServiceName: serviceName,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}

	if lokiURL != "" {
		logger.lokiURL = strings.TrimRight(lokiURL, "/") + "/loki/api/v1/push"
	}

	return logger, nil
}

func (l *LokiLogger) Sync() error {
	return l.Logger.Sync()
}

func (l *LokiLogger) PushEnabled() bool {
	return l.lokiURL != ""
}

// Push ships one entry to Loki. It is a no-op without a Loki URL and
// swallows transport errors after logging them locally.
func (l *LokiLogger) Push(ctx context.Context, level zapcore.Level, msg string, fields map[string]any) {
	if !l.PushEnabled() {
		return
	}

	line := map[string]any{
		"timestamp": time.Now().Format(time.RFC3339Nano),
		"level":     level.String(),
		"message":   msg,
		"service":   l.ServiceName,
	}

	span := trace.SpanFromContext(ctx)

	if span.SpanContext().IsValid() {
		line["trace_id"] = span.SpanContext().TraceID().String()
		line["span_id"] = span.SpanContext().SpanID().String()
	}

	for key, value := range fields {
		line[key] = value
	}

	encoded, err := json.Marshal(line)

	if err != nil {
		l.Logger.Ctx(ctx).Error("Failed to marshal log line", zap.Error(err))
		return
	}

	entry := LokiLogEntry{
		Streams: []LokiStream{
			{
				Stream: map[string]string{
					"service": l.ServiceName,
					"level":   level.String(),
				},
				Values: [][]string{
					{fmt.Sprintf("%d", time.Now().UnixNano()), string(encoded)},
				},
			},
		},
	}

	if err := l.send(entry); err != nil {
		l.Logger.Debug("Failed to push log to Loki", zap.Error(err))
	}
}

func (l *LokiLogger) send(entry LokiLogEntry) error {
	body, err := json.Marshal(entry)

	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, l.lokiURL, bytes.NewReader(body))

	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("loki responded %s", resp.Status)
	}

	return nil
}
