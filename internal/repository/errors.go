package repository

import "errors"

var (
	// ErrSinkDisabled is returned when a report is saved without a configured sink
	ErrSinkDisabled = errors.New("report sink disabled")

	// ErrEmptyRequestID indicates a report save without a request id
	ErrEmptyRequestID = errors.New("request id is required")
)
