package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/surveyqc/internal/domain"
	"github.com/shaiso/surveyqc/internal/engine"
	"github.com/shaiso/surveyqc/internal/rules"
	"github.com/shaiso/surveyqc/internal/steps"
	"github.com/shaiso/surveyqc/internal/telemetry"
)

// Runner выполняет планы очистки.
type Runner struct {
	registry *steps.Registry
	rules    *rules.Rules
	metrics  *telemetry.Metrics
	logger   *slog.Logger
}

// Config — конфигурация Runner.
type Config struct {
	// Registry — реестр шагов (default: steps.DefaultRegistry()).
	Registry *steps.Registry

	// Rules — словарь видов (default: rules.Default()).
	Rules *rules.Rules

	// Metrics — метрики; nil отключает запись.
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	registry := cfg.Registry
	if registry == nil {
		registry = steps.DefaultRegistry()
	}

	r := cfg.Rules
	if r == nil {
		r = rules.Default()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		registry: registry,
		rules:    r,
		metrics:  cfg.Metrics,
		logger:   logger,
	}
}

// Result — результат прохода.
type Result struct {
	// Table — очищенная таблица (nil, если проход прерван).
	Table *domain.Table

	// Run — запись о проходе, всегда заполнена.
	Run *domain.QCRun
}

// Run выполняет план над сырой таблицей.
//
// source — путь к входному файлу, попадает в запись о проходе.
// Даже при ошибке возвращается Result с Run в статусе FAILED.
func (r *Runner) Run(ctx context.Context, plan *domain.Plan, raw *domain.RawTable, source string) (*Result, error) {
	if plan == nil {
		plan = engine.DefaultPlan()
	}

	run := domain.NewQCRun(plan.Name, source)
	result := &Result{Run: run}
	logger := telemetry.WithRunID(r.logger, run.ID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	if raw == nil {
		return result, r.fail(run, logger, ErrNoInput)
	}
	run.InputRows = raw.Len()

	if err := engine.Validate(plan); err != nil {
		return result, r.fail(run, logger, fmt.Errorf("%w: %w", ErrInvalidPlan, err))
	}

	table, err := domain.NewTable(raw)
	if err != nil {
		return result, r.fail(run, logger, err)
	}

	logger.Info("cleaning started",
		"plan", plan.Name,
		"source", source,
		"rows", run.InputRows,
		"steps", len(plan.Steps),
	)

	for i := range plan.Steps {
		def := &plan.Steps[i]

		next, res, err := r.runStep(ctx, def, table)
		if err != nil {
			return result, r.fail(run, logger, fmt.Errorf("%w: %s: %w", ErrStepFailed, def.ID, err))
		}

		run.Steps = append(run.Steps, res)
		table = next
	}

	run.MarkSucceeded(table.Len())
	result.Table = table

	if r.metrics != nil {
		r.metrics.ObserveRun(string(run.Status), run.InputRows, run.OutputRows)
	}

	logger.Info("cleaning succeeded",
		"input_rows", run.InputRows,
		"output_rows", run.OutputRows,
		"duration", run.Duration(),
	)

	return result, nil
}

// runStep выполняет один шаг плана. Логгер прохода берётся из ctx.
func (r *Runner) runStep(ctx context.Context, def *domain.StepDef, table *domain.Table) (*domain.Table, domain.StepResult, error) {
	step, err := r.registry.Get(def.Type)
	if err != nil {
		return nil, domain.StepResult{}, err
	}

	stepLogger := telemetry.WithStepID(telemetry.FromContext(ctx), def.ID, def.Type)
	ctx = telemetry.WithLogger(ctx, stepLogger)
	req := steps.NewRequest(def.ID, def.Config, table, r.rules, stepLogger)

	start := time.Now()
	resp, err := step.Execute(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, domain.StepResult{}, err
	}

	if r.metrics != nil {
		r.metrics.ObserveStep(def.Type, elapsed, resp.Counters)
	}

	stepLogger.Debug("step completed",
		"rows", resp.Table.Len(),
		"counters", resp.Counters,
		"duration", elapsed,
	)

	return resp.Table, domain.StepResult{
		StepID:   def.ID,
		Type:     def.Type,
		Counters: resp.Counters,
		Duration: elapsed,
	}, nil
}

// fail переводит проход в статус FAILED.
func (r *Runner) fail(run *domain.QCRun, logger *slog.Logger, err error) error {
	run.MarkFailed(err.Error())

	if r.metrics != nil {
		r.metrics.ObserveRun(string(run.Status), run.InputRows, 0)
	}

	logger.Warn("cleaning failed",
		"error", err,
		"completed_steps", len(run.Steps),
	)

	return err
}
