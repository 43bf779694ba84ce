package pipeline

import (
	"context"
	"fmt"

	"github.com/maskrelay/maskrelay/internal/logger"
	"go.uber.org/zap"
)

// Executor runs configured stages strictly sequentially over a text
// accumulator. It keeps no state between runs beyond the registry; one
// externally supplied session identifier is authoritative for a whole run.
type Executor struct {
	registry *Registry
	logger   *logger.Logger
}

// NewExecutor creates a new pipeline executor
func NewExecutor(registry *Registry, log *logger.Logger) *Executor {
	return &Executor{
		registry: registry,
		logger:   log,
	}
}

// Run applies each step of the stage to the text in declared order. A
// disabled or empty stage returns the text unchanged. A step failure aborts
// the run; steps never get skipped for any other reason.
func (e *Executor) Run(ctx context.Context, stage Stage, text, sessionID string) (string, error) {
	if !stage.Enabled || len(stage.Pipeline) == 0 {
		return text, nil
	}

	for i, step := range stage.Pipeline {
		handler := e.registry.Resolve(step.Server, step.Tool)

		out, err := handler.Apply(ctx, text, sessionID, step)
		if err != nil {
			return text, fmt.Errorf("step %d (%s.%s) failed: %w", i, step.Server, step.Tool, err)
		}
		text = out

		e.logger.Debug("Pipeline step applied",
			zap.Int("step", i),
			zap.String("server", step.Server),
			zap.String("tool", step.Tool),
		)
	}

	return text, nil
}
