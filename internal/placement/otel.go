package placement

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/dmt-mods/placement/internal/placement"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
