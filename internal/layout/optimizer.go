// Package layout proposes element repositioning.
//
// The optimizer is a naive centring baseline: every element is nudged one
// fixed step toward the canvas centre on each axis. It does not weigh the
// attention map.
package layout

import (
	"go-creative-analyzer/pkg/models"
)

// DefaultStep is the nudge distance in pixels
const DefaultStep = 20

// Optimizer nudges elements toward the canvas centre
type Optimizer struct {
	step int
}

func NewOptimizer(step int) *Optimizer {
	if step < 0 {
		step = DefaultStep
	}
	return &Optimizer{step: step}
}

// Step returns the configured nudge distance
func (o *Optimizer) Step() int {
	return o.step
}

// Suggest returns one suggestion per element, in input order. Box elements
// are anchored at their top-left corner; score elements at the centre of
// their area cell. Elements with neither are skipped. An element already on
// the centre line of an axis does not move on that axis, and targets stay
// inside the canvas.
func (o *Optimizer) Suggest(width, height int, elements []models.DetectedElement) []models.LayoutSuggestion {
	suggestions := make([]models.LayoutSuggestion, 0, len(elements))
	for _, el := range elements {
		x, y, ok := anchor(el, width, height)
		if !ok {
			continue
		}
		suggestions = append(suggestions, models.LayoutSuggestion{
			Element: el,
			X:       x,
			Y:       y,
			NewX:    o.nudge(x, width),
			NewY:    o.nudge(y, height),
		})
	}
	return suggestions
}

func (o *Optimizer) nudge(pos, extent int) int {
	// Compare doubled values so odd extents keep an exact centre
	twice, mid := 2*pos, extent
	next := pos
	switch {
	case twice < mid:
		next = pos + o.step
	case twice > mid:
		next = pos - o.step
	}
	if next < 0 {
		next = 0
	}
	if extent > 0 && next > extent-1 {
		next = extent - 1
	}
	return next
}

func anchor(el models.DetectedElement, width, height int) (int, int, bool) {
	if el.Box != nil {
		return el.Box.X, el.Box.Y, true
	}
	if el.Area != "" {
		return models.AreaCenter(el.Area, width, height)
	}
	return 0, 0, false
}
