// Package leads persists qualified leads captured by the agent.
package leads

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/autostream-x/autostream-agent/logger"
)

// Sink receives a completed lead exactly once per conversation. The
// returned string is a human-readable confirmation shown to the user.
type Sink interface {
	Submit(ctx context.Context, name, email, platform string) (string, error)
}

// CSVSink appends leads to a CSV file, writing the header row on
// first use.
type CSVSink struct {
	Path string

	mu  sync.Mutex
	log *logger.Logger
}

var csvHeader = []string{"timestamp", "name", "email", "platform"}

// NewCSVSink creates a sink writing to the file at path. The file is
// created on the first Submit.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{
		Path: path,
		log:  logger.Component("leads"),
	}
}

// Submit appends one lead row. Safe for concurrent use.
func (s *CSVSink) Submit(ctx context.Context, name, email, platform string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open lead store: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat lead store: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return "", fmt.Errorf("write lead header: %w", err)
		}
	}
	row := []string{time.Now().Format(time.RFC3339), name, email, platform}
	if err := w.Write(row); err != nil {
		return "", fmt.Errorf("write lead row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush lead store: %w", err)
	}

	s.log.Infof("lead captured name=%s platform=%s", name, platform)
	return "Lead captured successfully.", nil
}
