package placement

import "github.com/dmt-mods/placement/pkg/core"

// evaluation is the verdict and preview for one candidate. It can only be
// built through the constructors below, so a preview never sits next to a
// preventing verdict.
type evaluation struct {
	candidate *core.PlacementCandidate
	verdict   core.ValidityVerdict
	preview   core.YieldPreview
}

func prevented(c core.PlacementCandidate, v core.ValidityVerdict) evaluation {
	return evaluation{candidate: &c, verdict: v}
}

func allowed(c core.PlacementCandidate, v core.ValidityVerdict, p core.YieldPreview) evaluation {
	if v.PreventPlacement {
		return prevented(c, v)
	}
	return evaluation{candidate: &c, verdict: v, preview: p}
}

func (e evaluation) snapshot() core.Snapshot {
	return core.Snapshot{ValidStatus: e.verdict, YieldDetails: e.preview}
}
