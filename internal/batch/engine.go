// Package batch applies one directory operation to many targets,
// strictly one at a time, and aggregates per-item outcomes.
package batch

import (
	"context"
	"log/slog"
	"math"

	"github.com/aulanet-io/ad-console/internal/logging"
)

// Item is one batch target. Payload carries per-item data (a CSV row's
// user record, for instance); only Identifier appears in results.
type Item struct {
	Identifier string
	Payload    any
}

// ItemError records one failed item.
type ItemError struct {
	Identifier   string `json:"identifier"`
	ErrorMessage string `json:"errorMessage"`
}

// ItemSuccess records one succeeded item.
type ItemSuccess struct {
	Identifier string `json:"identifier"`
}

// Result is the aggregate outcome of a batch run.
// len(Succeeded)+len(Errors) == Completed <= Total holds at all times.
type Result struct {
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
	Succeeded []ItemSuccess `json:"success"`
	Errors    []ItemError   `json:"errors"`
	Canceled  bool          `json:"canceled,omitempty"`
}

// Op performs the operation for a single item. A non-nil error marks
// the item failed; the run continues with the next item regardless.
type Op func(ctx context.Context, item Item) error

// ProgressFunc receives the percentage complete (0..100) after each
// item finishes.
type ProgressFunc func(percent int)

// Engine runs batches sequentially. Sequential execution is the
// backpressure contract with the script backend: the directory must
// never see two concurrent mutating calls.
type Engine struct {
	log *slog.Logger
}

// NewEngine creates a batch engine.
func NewEngine() *Engine {
	return &Engine{log: logging.Component("batch")}
}

// Run attempts every item exactly once, in input order. The progress
// sink fires after each item and ends at exactly 100. An empty item
// list resolves immediately and the sink is never invoked. When ctx is
// canceled between items the run stops, the result is marked Canceled
// and remaining items are left unattempted.
func (e *Engine) Run(ctx context.Context, items []Item, op Op, sink ProgressFunc) Result {
	res := Result{
		Total:     len(items),
		Succeeded: []ItemSuccess{},
		Errors:    []ItemError{},
	}
	if len(items) == 0 {
		return res
	}

	for _, item := range items {
		if ctx.Err() != nil {
			res.Canceled = true
			e.log.Warn("batch canceled", "completed", res.Completed, "total", res.Total)
			return res
		}

		if err := op(ctx, item); err != nil {
			res.Errors = append(res.Errors, ItemError{
				Identifier:   item.Identifier,
				ErrorMessage: err.Error(),
			})
		} else {
			res.Succeeded = append(res.Succeeded, ItemSuccess{Identifier: item.Identifier})
		}
		res.Completed++

		if sink != nil {
			sink(percent(res.Completed, res.Total))
		}
	}

	e.log.Info("batch complete",
		"total", res.Total, "succeeded", len(res.Succeeded), "failed", len(res.Errors))
	return res
}

func percent(completed, total int) int {
	return int(math.Round(float64(completed) / float64(total) * 100))
}
