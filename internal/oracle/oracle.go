// Package oracle answers the placement machine's questions by querying the
// host. Transport failures never reach the machine: they are logged and
// mapped to the most conservative answer.
package oracle

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dmt-mods/placement/internal/cache"
	"github.com/dmt-mods/placement/internal/placement"
	"github.com/dmt-mods/placement/pkg/core"
)

const (
	QueryValidity   = ":VALIDITY:"
	QueryYield      = ":YIELD:"
	QueryCityCenter = ":IS:CITYCENTER:"
	QueryClassType  = ":CLASSTYPE:"
	QueryPlotIndex  = ":PLOT:INDEX:"
	QueryPlotRadius = ":PLOT:RADIUS:"
)

// ReasonUnavailable is set on verdicts synthesized after a failed query.
const ReasonUnavailable = "oracle unavailable"

// Querier asks the host a synchronous question.
type Querier interface {
	Query(function string, args ...any) (string, error)
}

func query[T any](q Querier, function string, args ...any) (T, error) {
	var out T
	reply, err := q.Query(function, args...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(reply), &out); err != nil {
		return out, fmt.Errorf("decoding %s reply: %w", function, err)
	}
	return out, nil
}

// Validity is a host-backed placement.ValidityOracle.
type Validity struct {
	q      Querier
	logger *slog.Logger
}

var _ placement.ValidityOracle = (*Validity)(nil)

func NewValidity(q Querier, logger *slog.Logger) *Validity {
	return &Validity{q: q, logger: orDefault(logger)}
}

// Evaluate returns a preventing verdict when the host cannot be asked.
func (v *Validity) Evaluate(x, y int, itemType core.ItemType) core.ValidityVerdict {
	verdict, err := query[core.ValidityVerdict](v.q, QueryValidity, x, y, itemType)
	if err != nil {
		v.logger.Error("Validity query failed", "x", x, "y", y, "itemType", itemType, "error", err)
		return core.ValidityVerdict{
			PreventPlacement: true,
			Extra:            map[string]any{"reason": ReasonUnavailable},
		}
	}
	return verdict
}

// Yield is a host-backed placement.YieldOracle.
type Yield struct {
	q      Querier
	logger *slog.Logger
}

var _ placement.YieldOracle = (*Yield)(nil)

func NewYield(q Querier, logger *slog.Logger) *Yield {
	return &Yield{q: q, logger: orDefault(logger)}
}

// Evaluate returns no preview when the host cannot be asked.
func (y *Yield) Evaluate(px, py int, itemType core.ItemType) core.YieldPreview {
	preview, err := query[core.YieldPreview](y.q, QueryYield, px, py, itemType)
	if err != nil {
		y.logger.Error("Yield query failed", "x", px, "y", py, "itemType", itemType, "error", err)
		return nil
	}
	return preview
}

// Classifier is a host-backed placement.Classifier. Answers are memoized
// per item type since game rules do not change mid-session.
type Classifier struct {
	q          Querier
	logger     *slog.Logger
	cityCenter *cache.Memo[core.ItemType, bool]
	classes    *cache.Memo[core.ItemType, core.ClassType]
}

var _ placement.Classifier = (*Classifier)(nil)

func NewClassifier(q Querier, logger *slog.Logger) *Classifier {
	return &Classifier{
		q:          q,
		logger:     orDefault(logger),
		cityCenter: cache.NewMemo[core.ItemType, bool](),
		classes:    cache.NewMemo[core.ItemType, core.ClassType](),
	}
}

func (c *Classifier) IsCityCenter(itemType core.ItemType) bool {
	return c.cityCenter.GetOrLoad(itemType, func(t core.ItemType) (bool, bool) {
		v, err := query[bool](c.q, QueryCityCenter, t)
		if err != nil {
			c.logger.Error("City center query failed", "itemType", t, "error", err)
			return false, false
		}
		return v, true
	})
}

func (c *Classifier) ClassTypeOf(itemType core.ItemType) core.ClassType {
	return c.classes.GetOrLoad(itemType, func(t core.ItemType) (core.ClassType, bool) {
		v, err := query[core.ClassType](c.q, QueryClassType, t)
		if err != nil {
			c.logger.Error("Class type query failed", "itemType", t, "error", err)
			return "", false
		}
		return v, true
	})
}

// Geometry is a placement.MapGeometry. With a known map width plot indices
// are computed locally; radius lookups always go to the host since they
// depend on map wrapping.
type Geometry struct {
	q      Querier
	width  int
	logger *slog.Logger
}

var _ placement.MapGeometry = (*Geometry)(nil)

func NewGeometry(q Querier, mapWidth int, logger *slog.Logger) *Geometry {
	return &Geometry{q: q, width: mapWidth, logger: orDefault(logger)}
}

func (g *Geometry) PlotIndex(x, y int) int {
	if x < 0 || y < 0 {
		return placement.NoTarget
	}
	if g.width > 0 {
		if x >= g.width {
			return placement.NoTarget
		}
		return y*g.width + x
	}
	idx, err := query[int](g.q, QueryPlotIndex, x, y)
	if err != nil {
		g.logger.Error("Plot index query failed", "x", x, "y", y, "error", err)
		return placement.NoTarget
	}
	if idx < 0 {
		return placement.NoTarget
	}
	return idx
}

func (g *Geometry) PlotsInRadius(x, y, radius int) []int {
	plots, err := query[[]int](g.q, QueryPlotRadius, x, y, radius)
	if err != nil {
		g.logger.Error("Plot radius query failed", "x", x, "y", y, "radius", radius, "error", err)
		return nil
	}
	return plots
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l.With("component", "oracle")
}
