// Package report renders an analysis as a self-contained HTML document.
package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"time"

	"github.com/nfnt/resize"

	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

const (
	// FileName is the attachment name of a rendered report
	FileName = "creative-analysis-report.html"
	// ContentType of a rendered report
	ContentType = "text/html; charset=utf-8"
	// DefaultThumbnailSize bounds the longer edge of the embedded preview
	DefaultThumbnailSize = 320
)

var (
	hotspotColor = color.RGBA{R: 255, G: 64, B: 64, A: 255}
	elementColor = color.RGBA{R: 40, G: 120, B: 255, A: 255}
)

// Input is everything a report shows. Verdict and Layout are optional.
type Input struct {
	Analysis    *models.Analysis
	Image       *raster.Image
	Verdict     *models.BenchmarkVerdict
	Layout      []models.LayoutSuggestion
	GeneratedAt time.Time
}

type view struct {
	RequestID   string
	GeneratedAt time.Time
	Width       int
	Height      int
	Thumbnail   template.URL
	Contrast    models.ContrastResult
	Hotspots    []models.Hotspot
	Timeline    models.AttentionTimeline
	Elements    []models.DetectedElement
	Verdict     *models.BenchmarkVerdict
	Layout      []models.LayoutSuggestion
}

// Renderer turns analyses into HTML reports
type Renderer struct {
	tmpl      *template.Template
	thumbSize uint
}

func NewRenderer(thumbSize uint) *Renderer {
	if thumbSize == 0 {
		thumbSize = DefaultThumbnailSize
	}
	return &Renderer{
		tmpl: template.Must(template.New("report").Funcs(template.FuncMap{
			"elementDetail": elementDetail,
		}).Parse(reportTemplate)),
		thumbSize: thumbSize,
	}
}

// Render produces the HTML document for in
func (r *Renderer) Render(in Input) ([]byte, error) {
	if in.Analysis == nil {
		return nil, apperrors.NewInvalidInputError("report requires an analysis", nil)
	}

	v := view{
		RequestID:   in.Analysis.RequestID,
		GeneratedAt: in.GeneratedAt,
		Width:       in.Analysis.Width,
		Height:      in.Analysis.Height,
		Contrast:    in.Analysis.Contrast,
		Hotspots:    in.Analysis.Heatmap.Hotspots,
		Timeline:    in.Analysis.Timeline,
		Elements:    in.Analysis.Elements,
		Verdict:     in.Verdict,
		Layout:      in.Layout,
	}
	if v.GeneratedAt.IsZero() {
		v.GeneratedAt = time.Now()
	}

	if in.Image != nil {
		uri, err := r.thumbnail(in.Image, in.Analysis)
		if err != nil {
			return nil, err
		}
		v.Thumbnail = uri
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return nil, apperrors.NewInternalError("failed to render report", err)
	}
	return buf.Bytes(), nil
}

// thumbnail scales img so its longer edge fits thumbSize, marks hotspots and
// element boxes, and returns it as a PNG data URI.
func (r *Renderer) thumbnail(img *raster.Image, a *models.Analysis) (template.URL, error) {
	var src image.Image = img.ToImage()
	scale := 1.0

	if uint(img.Width) > r.thumbSize || uint(img.Height) > r.thumbSize {
		w, h := thumbnailSize(img.Width, img.Height, r.thumbSize)
		src = resize.Resize(w, h, src, resize.Bilinear)
		if img.Width >= img.Height {
			scale = float64(w) / float64(img.Width)
		} else {
			scale = float64(h) / float64(img.Height)
		}
	}

	canvas := image.NewRGBA(image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, src.Bounds().Min, draw.Src)
	Overlay(canvas, a, scale)

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return "", apperrors.NewInternalError("failed to encode thumbnail", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// thumbnailSize fits the longer edge to limit. The shorter edge keeps the
// aspect ratio but never drops below one pixel.
func thumbnailSize(width, height int, limit uint) (uint, uint) {
	long, short := width, height
	if height > width {
		long, short = height, width
	}
	s := uint(math.Round(float64(short) * float64(limit) / float64(long)))
	if s < 1 {
		s = 1
	}
	if width >= height {
		return limit, s
	}
	return s, limit
}

// Overlay draws element boxes and hotspot markers onto dst. scale maps
// analysis coordinates to dst pixels.
func Overlay(dst *image.RGBA, a *models.Analysis, scale float64) {
	for _, el := range a.Elements {
		if el.Box == nil {
			continue
		}
		rect := image.Rect(
			int(float64(el.Box.X)*scale),
			int(float64(el.Box.Y)*scale),
			int(float64(el.Box.X+el.Box.Width)*scale),
			int(float64(el.Box.Y+el.Box.Height)*scale),
		)
		outline(dst, rect, elementColor)
	}

	for _, h := range a.Heatmap.Hotspots {
		cx, cy := int(float64(h.X)*scale), int(float64(h.Y)*scale)
		marker := image.Rect(cx-3, cy-3, cx+4, cy+4).Intersect(dst.Bounds())
		draw.Draw(dst, marker, image.NewUniform(hotspotColor), image.Point{}, draw.Src)
	}
}

func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

func elementDetail(el models.DetectedElement) string {
	switch {
	case el.Box != nil:
		return fmt.Sprintf("box %d,%d %d×%d", el.Box.X, el.Box.Y, el.Box.Width, el.Box.Height)
	case el.Score != nil && el.Area != "":
		return fmt.Sprintf("visibility %d, %s", *el.Score, el.Area)
	case el.Score != nil:
		return fmt.Sprintf("visibility %d", *el.Score)
	default:
		return "-"
	}
}
