package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReportSink persists exported reports
type ReportSink interface {
	Name() string
	// Store writes data under name and returns where it can be found
	Store(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// LocalSink writes reports into a directory
type LocalSink struct {
	dir string
}

func NewLocalSink(dir string) (*LocalSink, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("report directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &LocalSink{dir: dir}, nil
}

func (s *LocalSink) Name() string { return "local" }

func (s *LocalSink) Store(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + name)[1:]
	if clean == "" {
		return "", fmt.Errorf("invalid report name %q", name)
	}

	path := filepath.Join(s.dir, clean)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
