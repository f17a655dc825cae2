package validation

import (
	"fmt"
	"net/http"
	"strings"

	apperrors "go-creative-analyzer/internal/errors"
)

// DefaultMaxUploadBytes is the largest accepted encoded image
const DefaultMaxUploadBytes = 5 * 1024 * 1024

// DefaultMaxPixels caps the decoded canvas; small encodings can declare huge images
const DefaultMaxPixels = 40_000_000

// UploadValidator handles uploaded image validation logic
type UploadValidator struct {
	allowedTypes []string
	maxBytes     int64
	maxPixels    int64
}

// NewUploadValidator creates a validator accepting PNG and JPEG up to 5MB
func NewUploadValidator() *UploadValidator {
	return &UploadValidator{
		allowedTypes: []string{"image/png", "image/jpeg"},
		maxBytes:     DefaultMaxUploadBytes,
		maxPixels:    DefaultMaxPixels,
	}
}

// NewUploadValidatorWithOptions creates an upload validator with custom options
func NewUploadValidatorWithOptions(types []string, maxBytes int64) *UploadValidator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &UploadValidator{
		allowedTypes: types,
		maxBytes:     maxBytes,
		maxPixels:    DefaultMaxPixels,
	}
}

// WithMaxPixels sets the largest accepted width*height. Non-positive keeps the default.
func (v *UploadValidator) WithMaxPixels(maxPixels int64) *UploadValidator {
	if maxPixels > 0 {
		v.maxPixels = maxPixels
	}
	return v
}

// MaxPixels returns the configured pixel limit
func (v *UploadValidator) MaxPixels() int64 {
	return v.maxPixels
}

// ValidateDimensions rejects canvases that are empty or larger than the pixel limit.
// It runs on the header, before any pixel buffer is allocated.
func (v *UploadValidator) ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image dimensions must be positive, got %dx%d", width, height), nil)
	}
	if int64(width)*int64(height) > v.maxPixels {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image is %dx%d, the limit is %d pixels", width, height, v.maxPixels), nil)
	}
	return nil
}

// MaxBytes returns the configured size limit
func (v *UploadValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the declared type, the size and the sniffed content
// type of an encoded image. declared may be empty when the client sent bare base64.
func (v *UploadValidator) ValidateUpload(declared string, data []byte) error {
	if len(data) == 0 {
		return apperrors.NewInvalidInputError("image cannot be empty", nil)
	}

	if int64(len(data)) > v.maxBytes {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image is %d bytes, the limit is %d", len(data), v.maxBytes), nil)
	}

	declared = strings.ToLower(strings.TrimSpace(declared))
	if declared == "image/jpg" {
		declared = "image/jpeg"
	}
	if declared != "" && !v.isTypeAllowed(declared) {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("unsupported image type %q, only PNG and JPEG are accepted", declared), nil)
	}

	sniffed := http.DetectContentType(data)
	if !v.isTypeAllowed(sniffed) {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image content is %q, only PNG and JPEG are accepted", sniffed), nil)
	}

	if declared != "" && declared != sniffed {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("declared type %q does not match content %q", declared, sniffed), nil)
	}

	return nil
}

// isTypeAllowed checks if the mime type is in the allowed list
func (v *UploadValidator) isTypeAllowed(mime string) bool {
	for _, allowed := range v.allowedTypes {
		if mime == allowed {
			return true
		}
	}
	return false
}
