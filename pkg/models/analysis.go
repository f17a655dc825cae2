package models

import "time"

// SuggestionTier names a static contrast suggestion set
type SuggestionTier string

const (
	TierHigh   SuggestionTier = "high"
	TierMedium SuggestionTier = "medium"
	TierLow    SuggestionTier = "low"
)

// ContrastResult is the output of the contrast analyzer
type ContrastResult struct {
	Score       int               `json:"score"`
	Tier        SuggestionTier    `json:"tier"`
	Suggestions []string          `json:"suggestions"`
	Elements    []DetectedElement `json:"elements"`
}

// BoundingBox is a pixel-space rectangle anchored at its top-left corner
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DetectedElement is a visual element reported by a detector. A detector
// fills either Score (with an optional Area label) or Box, never both.
type DetectedElement struct {
	Type  string       `json:"type"`
	Score *int         `json:"score,omitempty"`
	Area  string       `json:"area,omitempty"`
	Box   *BoundingBox `json:"box,omitempty"`
}

// HeatPoint is one stride-grid sample of the attention map
type HeatPoint struct {
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Value float64 `json:"value"`
}

// Hotspot is a ranked peak of predicted attention
type Hotspot struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Intensity float64 `json:"intensity"`
	Rank      int     `json:"rank"`
}

// AttentionTimeline describes where the eye goes first, how it scans and where it rests
type AttentionTimeline struct {
	InitialFocus string `json:"initialFocus"`
	ScanPath     string `json:"scanPath"`
	FinalResting string `json:"finalResting"`
}

// HeatmapResult is the output of the attention model
type HeatmapResult struct {
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Stride   int               `json:"stride"`
	Max      float64           `json:"max"`
	Points   []HeatPoint       `json:"points"`
	Hotspots []Hotspot         `json:"hotSpots"`
	Timeline AttentionTimeline `json:"timeline"`
}

// Analysis is the merged result of one analysis run
type Analysis struct {
	RequestID         string            `json:"requestId"`
	Timestamp         time.Time         `json:"timestamp"`
	ProcessingTimeSec float64           `json:"processingTimeSec"`
	Width             int               `json:"width"`
	Height            int               `json:"height"`
	Contrast          ContrastResult    `json:"contrast"`
	Heatmap           HeatmapResult     `json:"heatmap"`
	Elements          []DetectedElement `json:"elements"`
	Timeline          AttentionTimeline `json:"timeline"`
}

// LayoutSuggestion proposes a new anchor position for an element
type LayoutSuggestion struct {
	Element DetectedElement `json:"element"`
	X       int             `json:"x"`
	Y       int             `json:"y"`
	NewX    int             `json:"newX"`
	NewY    int             `json:"newY"`
}
