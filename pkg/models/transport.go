package models

// ActionAnalyze is the only message action understood by the pipeline
const ActionAnalyze = "analyze"

// AnalysisMessage is the message-style pipeline entry point. Image is a
// base64 data URI (or bare base64) of a PNG or JPEG.
type AnalysisMessage struct {
	Action string `json:"action" binding:"required" validate:"required,oneof=analyze"`
	Image  string `json:"image" binding:"required" validate:"required"`
}

// AnalysisMessageResponse mirrors the pipeline response shape
type AnalysisMessageResponse struct {
	RequestID string            `json:"requestId"`
	Contrast  ContrastResult    `json:"contrast"`
	Heatmap   HeatmapResult     `json:"heatmap"`
	Elements  []DetectedElement `json:"elements"`
	Timeline  AttentionTimeline `json:"timeline"`
}

// ImageRequest carries a single encoded image
type ImageRequest struct {
	Image string `json:"image" binding:"required" validate:"required"`
}

// ContrastFixResponse carries the stretched image and its fresh contrast result
type ContrastFixResponse struct {
	Image    string         `json:"image"`
	Contrast ContrastResult `json:"contrast"`
}

// LayoutResponse lists repositioning suggestions for an analysed image
type LayoutResponse struct {
	Width       int                `json:"width"`
	Height      int                `json:"height"`
	Step        int                `json:"step"`
	Suggestions []LayoutSuggestion `json:"suggestions"`
}

// BenchmarkRequest evaluates an already computed result against a profile
type BenchmarkRequest struct {
	ContrastScore int       `json:"contrastScore" validate:"gte=0,lte=100"`
	Hotspots      []Hotspot `json:"hotspots" validate:"max=3,dive"`
	Profile       string    `json:"profile" validate:"required"`
	Platform      string    `json:"platform,omitempty"`
}

// ReportRequest asks for a full analysis rendered as an HTML document
type ReportRequest struct {
	Image    string `json:"image" binding:"required" validate:"required"`
	Profile  string `json:"profile,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Type    string `json:"type,omitempty"`
	Branch  string `json:"branch,omitempty"`
	Cause   string `json:"cause,omitempty"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}
