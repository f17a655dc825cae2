package raster

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"

	// Register decoders
	_ "image/jpeg"

	apperrors "go-creative-analyzer/internal/errors"
)

// BytesPerPixel is the stride of one RGBA pixel in Image.Pix
const BytesPerPixel = 4

// Image is an owned RGBA raster, row-major, 4 bytes per pixel.
// It is treated as immutable once constructed.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// New validates the raster invariants and wraps pix without copying
func New(width, height int, pix []uint8) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("image dimensions must be positive, got %dx%d", width, height), nil)
	}
	if len(pix) != width*height*BytesPerPixel {
		return nil, apperrors.NewInvalidInputError(
			fmt.Sprintf("pixel buffer length %d does not match %dx%d", len(pix), width, height), nil)
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

// FromImage copies any decoded image into a zero-origin RGBA raster
func FromImage(img image.Image) (*Image, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, apperrors.NewImageDecodeError("decoded image is empty", nil)
	}

	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return &Image{Width: b.Dx(), Height: b.Dy(), Pix: rgba.Pix}, nil
}

// DecodeConfig reads only the image header and reports its dimensions and format
func DecodeConfig(data []byte) (int, int, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", apperrors.NewImageDecodeError("failed to read image header", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// Decode turns encoded PNG or JPEG bytes into a raster
func Decode(data []byte) (*Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewImageDecodeError("failed to decode image", err)
	}
	r, err := FromImage(img)
	if err != nil {
		return nil, "", err
	}
	return r, format, nil
}

// ToImage exposes the raster as an *image.RGBA sharing the same buffer
func (r *Image) ToImage() *image.RGBA {
	return &image.RGBA{
		Pix:    r.Pix,
		Stride: r.Width * BytesPerPixel,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// Clone returns a deep copy
func (r *Image) Clone() *Image {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Image{Width: r.Width, Height: r.Height, Pix: pix}
}

// PixelCount returns width*height
func (r *Image) PixelCount() int {
	return r.Width * r.Height
}

// Luminance returns the Rec.601 luma of the i-th pixel in scan order
func (r *Image) Luminance(i int) float64 {
	o := i * BytesPerPixel
	return 0.299*float64(r.Pix[o]) + 0.587*float64(r.Pix[o+1]) + 0.114*float64(r.Pix[o+2])
}

// EncodePNG encodes the raster as PNG bytes
func (r *Image) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.ToImage()); err != nil {
		return nil, apperrors.NewInternalError("failed to encode png", err)
	}
	return buf.Bytes(), nil
}

// DataURI encodes the raster as a base64 PNG data URI
func (r *Image) DataURI() (string, error) {
	data, err := r.EncodePNG()
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURI splits "data:<mime>;base64,<payload>" into bytes and the
// declared mime type. A bare base64 string is accepted with an empty mime.
func DecodeDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, "", apperrors.NewInvalidInputError("image payload is empty", nil)
	}

	payload, mime := s, ""
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, "", apperrors.NewInvalidInputError("malformed data URI", nil)
		}
		meta := s[len("data:"):comma]
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", apperrors.NewInvalidInputError("data URI must be base64 encoded", nil)
		}
		mime = strings.ToLower(strings.TrimSuffix(meta, ";base64"))
		payload = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders drop padding
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", apperrors.NewInvalidInputError("image payload is not valid base64", err)
		}
	}
	return data, mime, nil
}
