package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bnema/agent-network/internal/ports"
	"github.com/rs/zerolog"
)

const (
	logDirMode  = 0o700
	logFileMode = 0o600
)

// Log appends one JSON object per event. Several processes may append to the
// same file; O_APPEND keeps each line intact.
type Log struct {
	logger zerolog.Logger
	closer io.Closer
}

var _ ports.AuditLog = (*Log)(nil)

func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), logDirMode); err != nil {
		return nil, fmt.Errorf("create audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFileMode)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	log := New(file)
	log.closer = file
	return log, nil
}

func New(w io.Writer) *Log {
	return &Log{logger: zerolog.New(w).With().Timestamp().Logger()}
}

func (l *Log) Append(_ context.Context, event ports.AuditEvent, fields map[string]any) {
	l.logger.Log().Str("event", string(event)).Fields(fields).Send()
}

func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
