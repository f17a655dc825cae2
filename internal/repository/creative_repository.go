package repository

import (
	"context"

	"go-creative-analyzer/internal/analyzer"
	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/validation"
)

// UploadCreativeRepository loads creatives from inline uploads
type UploadCreativeRepository struct {
	validator *validation.UploadValidator
}

// NewUploadCreativeRepository creates a repository enforcing validator
func NewUploadCreativeRepository(validator *validation.UploadValidator) CreativeRepository {
	if validator == nil {
		validator = validation.NewUploadValidator()
	}
	return &UploadCreativeRepository{validator: validator}
}

func (r *UploadCreativeRepository) Load(ctx context.Context, payload string) (*Creative, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, mime, err := raster.DecodeDataURI(payload)
	if err != nil {
		return nil, err
	}
	if err := r.validator.ValidateUpload(mime, data); err != nil {
		return nil, err
	}

	width, height, _, err := raster.DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if err := r.validator.ValidateDimensions(width, height); err != nil {
		return nil, err
	}

	img, format, err := raster.Decode(data)
	if err != nil {
		return nil, err
	}

	return &Creative{
		Data:     data,
		MimeType: mime,
		Format:   format,
		Digest:   analyzer.Digest(data),
		Image:    img,
	}, nil
}
