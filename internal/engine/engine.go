// Package engine runs a rule set over a data model and persists the
// resulting violation report.
//
// A pass is all or nothing: rules run in order against the same read-only
// data model and the first rule error, or cancellation of the context,
// aborts the pass before anything is written. Each pass gets a fresh authority cache, so external lookups are
// never reused across passes.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emo-bon/dqc/internal/authority"
	"github.com/emo-bon/dqc/internal/core"
	"github.com/emo-bon/dqc/internal/logging"
	"github.com/emo-bon/dqc/internal/rules"
)

// Sink receives the violations of a successful pass.
type Sink interface {
	Write(ctx context.Context, runID string, violations []rules.Violation) error
}

// Engine executes rule sets and writes their reports.
type Engine struct {
	reportPath string
	sinks      []Sink
}

// New creates an engine writing its CSV report to reportPath and, after the
// report, to every sink.
func New(reportPath string, sinks ...Sink) *Engine {
	return &Engine{reportPath: reportPath, sinks: sinks}
}

// Result summarizes a successful pass.
type Result struct {
	RunID      string
	Violations []rules.Violation
	ReportPath string
	Repairable int
	Duration   time.Duration
}

// Execute runs every rule of rs in order and concatenates their violations.
// It stops at the first rule error.
func Execute(ctx context.Context, rs rules.RuleSet, model *core.DataModel) ([]rules.Violation, error) {
	env := rules.Env{Model: model, Authority: authority.NewCache()}

	violations := []rules.Violation{}
	for _, rule := range rs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pass cancelled before rule %s: %w", rule.Name(), err)
		}
		logger := logging.WithFields(ctx, "rule", rule.Name())
		start := time.Now()

		found, err := rule.Check(ctx, env)
		if err != nil {
			logger.Error("rule failed", "error", err)
			return nil, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}

		logger.Debug("rule finished", "violations", len(found), "duration", time.Since(start))
		violations = append(violations, found...)
	}

	logging.FromContext(ctx).Info("rule set executed",
		"rules", len(rs),
		"violations", len(violations),
		"authority_lookups", env.Authority.Calls(),
		"authority_unresolved", env.Authority.Unresolved(),
	)
	return violations, nil
}

// Run executes rs and persists the report. The run ID is taken from ctx or
// generated when ctx has none.
func (e *Engine) Run(ctx context.Context, rs rules.RuleSet, model *core.DataModel) (*Result, error) {
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	start := time.Now()

	violations, err := Execute(ctx, rs, model)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pass cancelled, report not written: %w", err)
	}

	if err := WriteReportFile(e.reportPath, violations); err != nil {
		return nil, err
	}
	for _, sink := range e.sinks {
		if err := sink.Write(ctx, runID, violations); err != nil {
			return nil, fmt.Errorf("report sink: %w", err)
		}
	}

	res := &Result{
		RunID:      runID,
		Violations: violations,
		ReportPath: e.reportPath,
		Duration:   time.Since(start),
	}
	for _, v := range violations {
		if v.HasRepair() {
			res.Repairable++
		}
	}

	logging.FromContext(ctx).Info("report written",
		"path", e.reportPath,
		"violations", len(violations),
		"repairable", res.Repairable,
		"duration", res.Duration,
	)
	return res, nil
}
