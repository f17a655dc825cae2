package repository

import (
	"context"

	"go-creative-analyzer/internal/raster"
)

// CreativeRepository turns client payloads into decoded creatives
type CreativeRepository interface {
	// Load decodes a data URI (or bare base64) payload
	Load(ctx context.Context, payload string) (*Creative, error)
}

// ReportRepository persists rendered reports
type ReportRepository interface {
	// Save stores a report for requestID and returns its location
	Save(ctx context.Context, requestID string, html []byte) (string, error)

	// Enabled reports whether a sink is configured
	Enabled() bool
}

// Creative is a validated, decoded upload
type Creative struct {
	Data     []byte
	MimeType string
	Format   string
	Digest   string
	Image    *raster.Image
}
