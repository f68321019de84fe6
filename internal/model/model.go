package model

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []any{
	&MapTack{},
}

// Point is a plot position stored as a WKB point. Postgres gets a PostGIS
// geometry column, every other dialect a blob.
type Point struct {
	geom.Point
}

// NewPoint builds a Point from plot coordinates.
func NewPoint(x, y int) Point {
	pt, err := geom.XY{X: float64(x), Y: float64(y)}.AsPoint()
	if err != nil {
		// only NaN and Inf are rejected, which ints cannot produce
		return Point{}
	}
	return Point{pt}
}

// Plot returns the plot coordinates, or 0,0 for an empty point.
func (p Point) Plot() (int, int) {
	c, ok := p.Coordinates()
	if !ok {
		return 0, 0
	}
	return int(c.XY.X), int(c.XY.Y)
}

func (Point) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "geometry(Point)"
	}
	return "blob"
}

// MapTack is a committed placement.
//
// SQF Command: :MAPTACK:ADD: (echoed to the host)
type MapTack struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	CreatedAt time.Time `json:"createdAt" gorm:"index:idx_maptack_created_at"`
	SessionID string    `json:"sessionId" gorm:"size:36;index:idx_maptack_session_id"` // Extension session that placed the tack

	X        int   `json:"x"`
	Y        int   `json:"y"`
	Position Point `json:"position"` // Same plot as X/Y, for spatial queries

	Type             string         `json:"type" gorm:"size:128;index:idx_maptack_type"`
	ClassType        string         `json:"classType" gorm:"size:64"`
	PreventPlacement bool           `json:"preventPlacement" gorm:"default:false"` // Copied out of ValidStatus for filtering
	ValidStatus      datatypes.JSON `json:"validStatus"`
	YieldDetails     datatypes.JSON `json:"yieldDetails"`
}

func (*MapTack) TableName() string {
	return "map_tacks"
}
