package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-creative-analyzer/internal/raster"
	"go-creative-analyzer/pkg/models"
)

func createTestImage(width, height int, c color.Color) *raster.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	r, _ := raster.FromImage(img)
	return r
}

func intPtr(v int) *int { return &v }

func sampleAnalysis() *models.Analysis {
	return &models.Analysis{
		RequestID: "req-1",
		Width:     400,
		Height:    400,
		Contrast: models.ContrastResult{
			Score:       62,
			Tier:        models.TierMedium,
			Suggestions: []string{"first", "second"},
		},
		Heatmap: models.HeatmapResult{
			Hotspots: []models.Hotspot{
				{X: 100, Y: 50, Intensity: 9.5, Rank: 1},
				{X: 300, Y: 350, Intensity: 7.25, Rank: 2},
			},
		},
		Elements: []models.DetectedElement{
			{Type: "Headline", Score: intPtr(85), Area: "top-center"},
			{Type: "CTA Button", Box: &models.BoundingBox{X: 200, Y: 300, Width: 150, Height: 50}},
		},
		Timeline: models.AttentionTimeline{
			InitialFocus: "top-left region (95% focus)",
			ScanPath:     "Z-pattern movement through content",
			FinalResting: "bottom-right region (73% focus)",
		},
	}
}

func parse(t *testing.T, html []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		t.Fatalf("parse report: %v", err)
	}
	return doc
}

func TestRender_Sections(t *testing.T) {
	r := NewRenderer(0)
	verdict := &models.BenchmarkVerdict{
		Profile:  "socialMedia",
		Platform: "instagram",
		Passes:   false,
		Metrics: map[string]models.MetricCheck{
			models.MetricContrast:  {Value: 62, Meets: false, Benchmark: 65},
			models.MetricAttention: {Value: 2, Meets: true, Benchmark: 1},
		},
	}
	layout := []models.LayoutSuggestion{
		{Element: models.DetectedElement{Type: "CTA Button"}, X: 200, Y: 300, NewX: 200, NewY: 280},
	}

	out, err := r.Render(Input{
		Analysis:    sampleAnalysis(),
		Image:       createTestImage(400, 400, color.White),
		Verdict:     verdict,
		Layout:      layout,
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := parse(t, out)

	if got := doc.Find("#request-id").Text(); got != "req-1" {
		t.Errorf("request id = %q", got)
	}
	if got := doc.Find("#contrast-score").Text(); got != "62" {
		t.Errorf("contrast score = %q", got)
	}
	if got := doc.Find("#contrast-tier").Text(); got != "medium" {
		t.Errorf("tier = %q", got)
	}
	if n := doc.Find("#suggestions li").Length(); n != 2 {
		t.Errorf("suggestions = %d, want 2", n)
	}
	if n := doc.Find("#hotspots tbody tr").Length(); n != 2 {
		t.Errorf("hotspot rows = %d, want 2", n)
	}
	if got := doc.Find("#hotspots tbody tr").First().Find("td").Last().Text(); got != "9.50" {
		t.Errorf("first intensity = %q", got)
	}
	if got := doc.Find("#timeline .initial").Text(); got != "top-left region (95% focus)" {
		t.Errorf("initial focus = %q", got)
	}
	if got := doc.Find("#elements tbody tr").Eq(0).Find("td").Eq(1).Text(); got != "visibility 85, top-center" {
		t.Errorf("score element detail = %q", got)
	}
	if got := doc.Find("#elements tbody tr").Eq(1).Find("td").Eq(1).Text(); !strings.HasPrefix(got, "box 200,300") {
		t.Errorf("box element detail = %q", got)
	}
	if !doc.Find("#benchmark").HasClass("fail") {
		t.Error("expected failing benchmark class")
	}
	if got := doc.Find(`#metrics tr[data-metric="attention"] td.pass`).Length(); got != 1 {
		t.Errorf("attention metric pass cells = %d, want 1", got)
	}
	if got := doc.Find("#layout tbody tr td").Eq(2).Text(); got != "(200, 280)" {
		t.Errorf("layout target = %q", got)
	}

	src, ok := doc.Find("img#thumbnail").Attr("src")
	if !ok || !strings.HasPrefix(src, "data:image/png;base64,") {
		t.Errorf("thumbnail src = %.40q", src)
	}
}

func TestRender_OptionalSections(t *testing.T) {
	a := sampleAnalysis()
	a.Heatmap.Hotspots = nil

	out, err := NewRenderer(0).Render(Input{Analysis: a})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := parse(t, out)

	if doc.Find("#benchmark").Length() != 0 {
		t.Error("benchmark section rendered without a verdict")
	}
	if doc.Find("#layout").Length() != 0 {
		t.Error("layout section rendered without suggestions")
	}
	if doc.Find("img#thumbnail").Length() != 0 {
		t.Error("thumbnail rendered without an image")
	}
	if doc.Find("#hotspots tr.empty").Length() != 1 {
		t.Error("expected empty hotspot row")
	}
}

func TestRender_EscapesText(t *testing.T) {
	a := sampleAnalysis()
	a.Elements = []models.DetectedElement{{Type: "<script>alert(1)</script>"}}

	out, err := NewRenderer(0).Render(Input{Analysis: a})
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(out, []byte("<script>alert")) {
		t.Error("element type was not escaped")
	}
	if got := parse(t, out).Find("#elements tbody td").First().Text(); got != "<script>alert(1)</script>" {
		t.Errorf("element type text = %q", got)
	}
}

func TestRender_RequiresAnalysis(t *testing.T) {
	if _, err := NewRenderer(0).Render(Input{}); err == nil {
		t.Error("expected error without analysis")
	}
}

func TestThumbnail_Bounded(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"landscape", 640, 320, 160, 80},
		{"portrait", 200, 800, 40, 160},
		{"small kept", 100, 50, 100, 50},
		{"thin strip", 4000, 1, 160, 1},
		{"thin column", 1, 4000, 1, 160},
	}

	r := NewRenderer(160)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sampleAnalysis()
			a.Width, a.Height = tt.width, tt.height

			uri, err := r.thumbnail(createTestImage(tt.width, tt.height, color.Black), a)
			if err != nil {
				t.Fatalf("thumbnail() error = %v", err)
			}
			data, _, err := raster.DecodeDataURI(string(uri))
			if err != nil {
				t.Fatalf("decode data uri: %v", err)
			}
			img, _, err := raster.Decode(data)
			if err != nil {
				t.Fatalf("decode png: %v", err)
			}
			if img.Width != tt.wantW || img.Height != tt.wantH {
				t.Errorf("thumbnail = %dx%d, want %dx%d", img.Width, img.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestRender_ExtremeAspectRatios(t *testing.T) {
	sizes := [][2]int{{4000, 1}, {1, 4000}, {2000, 2}}

	r := NewRenderer(0)
	for _, sz := range sizes {
		t.Run(fmt.Sprintf("%dx%d", sz[0], sz[1]), func(t *testing.T) {
			a := sampleAnalysis()
			a.Width, a.Height = sz[0], sz[1]

			html, err := r.Render(Input{Analysis: a, Image: createTestImage(sz[0], sz[1], color.White)})
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if !bytes.Contains(html, []byte("data:image/png;base64,")) {
				t.Error("report is missing the thumbnail")
			}
		})
	}
}

func TestOverlay_MarksHotspotsAndBoxes(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 400, 400))
	Overlay(dst, sampleAnalysis(), 1)

	if got := dst.RGBAAt(100, 50); got != hotspotColor {
		t.Errorf("hotspot pixel = %v", got)
	}
	if got := dst.RGBAAt(200, 300); got != elementColor {
		t.Errorf("box corner pixel = %v", got)
	}
	if got := dst.RGBAAt(250, 320); got != (color.RGBA{}) {
		t.Errorf("box interior should stay untouched, got %v", got)
	}
}
