package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/confagenda/server/internal/observability"
)

// MetricsOverviewResponse represents the overview response of engine metrics
type MetricsOverviewResponse struct {
	*observability.MetricsSnapshot
	SuccessRate float64 `json:"successRate"`
}

// GetMetricsOverview returns the per-operation counters of the agenda engine
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		MetricsSnapshot: snapshot,
		SuccessRate:     snapshot.SuccessRate(),
	})
}
