package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/csvharvest/internal/model"
)

// Step is one stage of a harvest run.
// Each step receives the report filled in by the steps before it.
//
// Design decision: We use an interface rather than function types because:
// 1. Steps carry their own collaborators (harvester, store)
// 2. Name() gives every log record and the report a stable step label
type Step interface {
	// Do executes the step.
	// Per-link failures are recorded in the report and do not return an
	// error; an error means the remaining steps cannot run.
	Do(ctx context.Context, report *model.HarvestReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order against one HarvestReport.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, log records are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in sequence and stamps report.FinishedAt when done.
//
// Cancellation is checked before each step; a step that is already running
// handles ctx itself. On cancellation, before or during a step,
// report.TimedOut is set and the cancellation error is returned.
//
// The first step error stops the run: a failed step leaves nothing for the
// next one to work on. The error is also recorded in the report.
func (p *Pipeline) Execute(ctx context.Context, report *model.HarvestReport) error {
	defer func() {
		report.FinishedAt = time.Now()
	}()

	p.logger.Debug("pipeline started", "run", report.RunID, "steps", p.StepNames())

	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"run", report.RunID,
				"reason", err,
			)
			report.TimedOut = true
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"run", report.RunID,
		)

		if err := step.Do(ctx, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"run", report.RunID,
				"error", err,
			)

			report.Error = err
			report.ErrorMessage = err.Error()
			if ctx.Err() != nil {
				report.TimedOut = true
			}
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"run", report.RunID,
		)

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
