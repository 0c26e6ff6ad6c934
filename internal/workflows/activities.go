package workflows

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/usecases"
)

// InvalidChartInputError is the application error type for requests that
// can never succeed.
const InvalidChartInputError = "InvalidChartInput"

// ChartActivities holds the activity implementations for the chart batch
// workflow.
type ChartActivities struct {
	Charts *usecases.ChartService
}

// ComputeChart builds and archives one chart.
func (a *ChartActivities) ComputeChart(ctx context.Context, req ChartBatchRequest) (ChartSummary, error) {
	chart, err := a.Charts.BuildChart(ctx, req.Birth, req.Geo)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidBirthMoment) || errors.Is(err, domain.ErrInvalidCoordinate) {
			return ChartSummary{}, temporal.NewNonRetryableApplicationError(err.Error(), InvalidChartInputError, err)
		}
		return ChartSummary{}, err
	}

	summary := ChartSummary{ChartID: chart.ID.String(), Complete: chart.HasHouses() || req.Geo == nil || !req.Birth.TimeKnown}
	for _, p := range chart.Positions {
		if !p.OK {
			summary.FailedBodies = append(summary.FailedBodies, p.Body.Code())
			summary.Complete = false
		}
	}

	activity.GetLogger(ctx).Info("chart computed", "chart_id", summary.ChartID, "complete", summary.Complete)
	return summary, nil
}
