// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/dmt-mods/placement/internal/model"
	"github.com/dmt-mods/placement/pkg/core"
)

// toJSON encodes v for a JSON column, falling back to fallback on error.
func toJSON(v any, fallback string) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(data)
}

// CoreToMapTack converts a core.MapTack to a GORM model.MapTack.
func CoreToMapTack(t core.MapTack, sessionID string) model.MapTack {
	return model.MapTack{
		ID:               t.ID,
		CreatedAt:        t.CreatedAt,
		SessionID:        sessionID,
		X:                t.X,
		Y:                t.Y,
		Position:         model.NewPoint(t.X, t.Y),
		Type:             string(t.Type),
		ClassType:        string(t.ClassType),
		PreventPlacement: t.ValidStatus.PreventPlacement,
		ValidStatus:      toJSON(t.ValidStatus, `{"preventPlacement":false}`),
		YieldDetails:     toJSON(t.YieldDetails, `{}`),
	}
}

// MapTackToCore converts a GORM model.MapTack to a core.MapTack.
// Undecodable JSON columns are left at their zero value.
func MapTackToCore(m model.MapTack) core.MapTack {
	out := core.MapTack{
		ID:        m.ID,
		X:         m.X,
		Y:         m.Y,
		Type:      core.ItemType(m.Type),
		ClassType: core.ClassType(m.ClassType),
		CreatedAt: m.CreatedAt,
	}
	if len(m.ValidStatus) > 0 {
		_ = json.Unmarshal(m.ValidStatus, &out.ValidStatus)
	} else {
		out.ValidStatus.PreventPlacement = m.PreventPlacement
	}
	if len(m.YieldDetails) > 0 {
		var preview core.YieldPreview
		if err := json.Unmarshal(m.YieldDetails, &preview); err == nil && len(preview) > 0 {
			out.YieldDetails = preview
		}
	}
	return out
}

// MapTacksToCore converts a slice of GORM map tacks.
func MapTacksToCore(ms []model.MapTack) []core.MapTack {
	out := make([]core.MapTack, len(ms))
	for i, m := range ms {
		out[i] = MapTackToCore(m)
	}
	return out
}
