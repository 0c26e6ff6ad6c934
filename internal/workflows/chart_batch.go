package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/astrochart/internal/core/domain"
)

// ChartBatchRequest is one chart in a batch.
type ChartBatchRequest struct {
	Label string                `json:"label,omitempty"`
	Birth domain.BirthMoment    `json:"birth"`
	Geo   *domain.GeoCoordinate `json:"geo,omitempty"`
}

// ChartBatchInput is the input for the chart batch workflow.
type ChartBatchInput struct {
	Requests []ChartBatchRequest `json:"requests"`
}

// ChartSummary is what the ComputeChart activity returns.
type ChartSummary struct {
	ChartID      string   `json:"chart_id"`
	Complete     bool     `json:"complete"`
	FailedBodies []string `json:"failed_bodies,omitempty"`
}

// ChartBatchFailure records a request that produced no chart.
type ChartBatchFailure struct {
	Index int    `json:"index"`
	Label string `json:"label,omitempty"`
	Error string `json:"error"`
}

// ChartBatchResult is the output of the chart batch workflow. Charts holds
// one entry per successful request, in request order.
type ChartBatchResult struct {
	Charts   []ChartSummary      `json:"charts"`
	Failures []ChartBatchFailure `json:"failures"`
}

// maxInFlight bounds how many ComputeChart activities run at once.
const maxInFlight = 16

// ChartBatchWorkflow computes and archives a chart per request. A request
// that fails after retries is recorded as a failure; it never fails the
// batch.
func ChartBatchWorkflow(ctx workflow.Context, input ChartBatchInput) (*ChartBatchResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting chart batch workflow", "requests", len(input.Requests))

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{InvalidChartInputError},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	result := &ChartBatchResult{
		Charts:   []ChartSummary{},
		Failures: []ChartBatchFailure{},
	}

	for start := 0; start < len(input.Requests); start += maxInFlight {
		end := min(start+maxInFlight, len(input.Requests))

		futures := make([]workflow.Future, 0, end-start)
		for _, req := range input.Requests[start:end] {
			futures = append(futures, workflow.ExecuteActivity(ctx, "ComputeChart", req))
		}

		for i, f := range futures {
			idx := start + i
			var summary ChartSummary
			if err := f.Get(ctx, &summary); err != nil {
				logger.Warn("chart request failed", "index", idx, "error", err)
				result.Failures = append(result.Failures, ChartBatchFailure{
					Index: idx,
					Label: input.Requests[idx].Label,
					Error: err.Error(),
				})
				continue
			}
			result.Charts = append(result.Charts, summary)
		}
	}

	logger.Info("Chart batch finished", "charts", len(result.Charts), "failures", len(result.Failures))
	return result, nil
}
