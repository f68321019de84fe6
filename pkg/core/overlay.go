package core

// OverlayPriority orders overlay groups on the host renderer.
type OverlayPriority string

const OverlayPriorityCultureBorder OverlayPriority = "CULTURE_BORDER"

// BorderStyle describes how a border overlay is drawn.
// PrimaryColor is linear RGBA in the 0..1 range.
type BorderStyle struct {
	Style        string     `json:"style"`
	PrimaryColor [4]float64 `json:"primaryColor"`
}
