package layout

import (
	"testing"

	"go-creative-analyzer/pkg/models"
)

func boxed(typ string, x, y int) models.DetectedElement {
	return models.DetectedElement{Type: typ, Box: &models.BoundingBox{X: x, Y: y, Width: 10, Height: 10}}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestSuggest_BoxStub(t *testing.T) {
	o := NewOptimizer(DefaultStep)
	elements := []models.DetectedElement{
		boxed("Logo", 50, 30),
		boxed("Headline", 150, 120),
		boxed("CTA Button", 200, 300), // on the vertical centre line
	}

	got := o.Suggest(400, 400, elements)
	want := [][2]int{{70, 50}, {170, 140}, {200, 280}}

	if len(got) != len(want) {
		t.Fatalf("Expected %d suggestions, got %d", len(want), len(got))
	}
	for i, s := range got {
		if s.NewX != want[i][0] || s.NewY != want[i][1] {
			t.Errorf("%s: got (%d,%d), want (%d,%d)", s.Element.Type, s.NewX, s.NewY, want[i][0], want[i][1])
		}
		if s.Element.Type != elements[i].Type {
			t.Errorf("suggestion %d out of order", i)
		}
	}
}

func TestSuggest_DisplacementBounded(t *testing.T) {
	o := NewOptimizer(15)
	for x := 0; x < 101; x += 7 {
		for y := 0; y < 57; y += 5 {
			s := o.Suggest(101, 57, []models.DetectedElement{boxed("e", x, y)})[0]
			if abs(s.NewX-s.X) > 15 || abs(s.NewY-s.Y) > 15 {
				t.Fatalf("(%d,%d) moved to (%d,%d)", x, y, s.NewX, s.NewY)
			}
			if s.NewX < 0 || s.NewX >= 101 || s.NewY < 0 || s.NewY >= 57 {
				t.Fatalf("(%d,%d) left the canvas: (%d,%d)", x, y, s.NewX, s.NewY)
			}
		}
	}
}

func TestSuggest_CentreAndEdges(t *testing.T) {
	o := NewOptimizer(DefaultStep)

	centre := o.Suggest(100, 100, []models.DetectedElement{boxed("c", 50, 50)})[0]
	if centre.NewX != 50 || centre.NewY != 50 {
		t.Errorf("Expected centred element to stay, got (%d,%d)", centre.NewX, centre.NewY)
	}

	// On a tiny canvas the nudge is clamped
	small := o.Suggest(10, 10, []models.DetectedElement{boxed("s", 1, 9)})[0]
	if small.NewX != 9 || small.NewY != 0 {
		t.Errorf("Expected clamped target (9,0), got (%d,%d)", small.NewX, small.NewY)
	}
}

func TestSuggest_ScoreElements(t *testing.T) {
	o := NewOptimizer(DefaultStep)
	score := 85
	elements := []models.DetectedElement{
		{Type: "Headline", Score: &score, Area: "top-center"},
		{Type: "Unplaced", Score: &score},
	}

	got := o.Suggest(600, 600, elements)
	if len(got) != 1 {
		t.Fatalf("Expected unplaced element to be skipped, got %d suggestions", len(got))
	}
	s := got[0]
	if s.X != 300 || s.Y != 100 {
		t.Errorf("Expected anchor (300,100), got (%d,%d)", s.X, s.Y)
	}
	if s.NewX != 300 || s.NewY != 120 {
		t.Errorf("Expected target (300,120), got (%d,%d)", s.NewX, s.NewY)
	}
}

func TestNewOptimizer_ZeroStep(t *testing.T) {
	o := NewOptimizer(0)
	s := o.Suggest(100, 100, []models.DetectedElement{boxed("e", 10, 90)})[0]
	if s.NewX != 10 || s.NewY != 90 {
		t.Errorf("Expected no movement with step 0, got (%d,%d)", s.NewX, s.NewY)
	}
	if NewOptimizer(-1).Step() != DefaultStep {
		t.Error("Expected negative step to fall back to default")
	}
}
