package core

import (
	"encoding/json"
	"time"
)

// ItemType identifies the kind of map tack being placed (city center, improvement, wonder...).
type ItemType string

// ClassType is the constructible class an ItemType resolves to.
type ClassType string

// Plot is a single map cell addressed by grid coordinates.
type Plot struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PlacementCandidate is what is being considered for placement, and where.
type PlacementCandidate struct {
	X        int
	Y        int
	ItemType ItemType
}

// ValidityVerdict is the validity oracle's answer for a candidate.
// Fields other than preventPlacement are opaque and carried through untouched.
type ValidityVerdict struct {
	PreventPlacement bool
	Extra            map[string]any
}

const preventPlacementKey = "preventPlacement"

// MarshalJSON flattens Extra next to preventPlacement.
func (v ValidityVerdict) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(v.Extra)+1)
	for k, val := range v.Extra {
		out[k] = val
	}
	out[preventPlacementKey] = v.PreventPlacement
	return json.Marshal(out)
}

// UnmarshalJSON accepts any JSON object. A missing or non-boolean
// preventPlacement is treated as false.
func (v *ValidityVerdict) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v.PreventPlacement = false
	v.Extra = nil
	for k, val := range raw {
		if k == preventPlacementKey {
			if b, ok := val.(bool); ok {
				v.PreventPlacement = b
			}
			continue
		}
		if v.Extra == nil {
			v.Extra = make(map[string]any, len(raw))
		}
		v.Extra[k] = val
	}
	return nil
}

// YieldPreview is the yield oracle's projection for a candidate.
// A nil preview means "no preview" and encodes as an empty object.
type YieldPreview map[string]any

// MarshalJSON encodes a nil preview as {}.
func (p YieldPreview) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(p))
}

// Snapshot is the combined verdict/preview pushed to the display surface.
type Snapshot struct {
	ValidStatus  ValidityVerdict `json:"validStatus"`
	YieldDetails YieldPreview    `json:"yieldDetails"`
}

// MapTack is the placement record emitted on commit.
type MapTack struct {
	ID           uint            `json:"id,omitempty"`
	X            int             `json:"x"`
	Y            int             `json:"y"`
	Type         ItemType        `json:"type"`
	ClassType    ClassType       `json:"classType"`
	ValidStatus  ValidityVerdict `json:"validStatus"`
	YieldDetails YieldPreview    `json:"yieldDetails"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// ModeContext is supplied by whoever switches into an interface mode.
type ModeContext struct {
	Type ItemType `json:"type"`
}
