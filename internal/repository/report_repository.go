package repository

import (
	"context"
	"fmt"
	"time"

	"go-creative-analyzer/internal/storage"
)

const reportContentType = "text/html; charset=utf-8"

// SinkReportRepository stores reports through a storage sink under
// reports/<yyyy>/<mm>/<dd>/<request id>.html
type SinkReportRepository struct {
	sink storage.ReportSink
	now  func() time.Time
}

// NewSinkReportRepository wraps sink. A nil sink yields a disabled repository.
func NewSinkReportRepository(sink storage.ReportSink) *SinkReportRepository {
	return &SinkReportRepository{sink: sink, now: time.Now}
}

func (r *SinkReportRepository) Enabled() bool {
	return r.sink != nil
}

func (r *SinkReportRepository) Save(ctx context.Context, requestID string, html []byte) (string, error) {
	if r.sink == nil {
		return "", ErrSinkDisabled
	}
	if requestID == "" {
		return "", ErrEmptyRequestID
	}

	name := fmt.Sprintf("reports/%s/%s.html", r.now().UTC().Format("2006/01/02"), requestID)
	return r.sink.Store(ctx, name, reportContentType, html)
}
