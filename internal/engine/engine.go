package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"compensation-engine/internal/calculators"
	"compensation-engine/internal/model"
	"compensation-engine/internal/paramtable"
)

// Resolver looks up the parameter table row for a case.
type Resolver interface {
	Resolve(year int, region string, residency model.Residency) (*paramtable.Row, error)
}

// Engine evaluates cases against the parameter tables. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	tables      Resolver
	calculators []calculators.Calculator
	logger      *zap.Logger
	now         func() time.Time
}

func New(tables Resolver, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tables:      tables,
		calculators: calculators.All(),
		logger:      logger,
		now:         time.Now,
	}
}

// Evaluate runs every applicable calculator for c and aggregates the
// results. Errors from the table store and calculators are returned
// unchanged (wrapped) so callers can inspect them with errors.As.
func (e *Engine) Evaluate(c *model.Case) (*model.ComputationResult, error) {
	row, err := e.tables.Resolve(c.TableYear(), c.Region, c.Residency)
	if err != nil {
		return nil, err
	}

	var (
		items []model.LineItem
		notes []model.CalculationMessage
	)
	for _, calc := range e.calculators {
		if !calc.Applies(c) {
			continue
		}
		item, msgs, err := calc.Compute(c, row)
		if err != nil {
			return nil, fmt.Errorf("compute %s: %w", calc.Category(), err)
		}
		items = append(items, item)
		notes = append(notes, msgs...)
	}
	if len(items) == 0 {
		return nil, &model.ComputationError{Reason: "case has no compensable items"}
	}

	res, err := Aggregate(c, row.Version, items, notes...)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("case evaluated",
		zap.String("result_id", res.ResultID),
		zap.String("table_version", res.TableVersion),
		zap.Int("items", len(res.Items)),
		zap.String("grand_total", res.GrandTotal.StringFixed(2)),
	)
	return res, nil
}

// EvaluateRequest validates an input record and evaluates it.
func (e *Engine) EvaluateRequest(req *model.CaseRequest) (*model.ComputationResult, error) {
	c, err := req.ToCase(e.now())
	if err != nil {
		return nil, err
	}
	return e.Evaluate(c)
}

// Process evaluates a request and wraps the result with calculation
// metadata. The metadata carries the only non-deterministic values.
func (e *Engine) Process(req *model.CaseRequest) (*model.CalculationResponse, error) {
	start := time.Now()

	res, err := e.EvaluateRequest(req)
	if err != nil {
		return nil, err
	}

	return &model.CalculationResponse{
		CalculationMetadata: Metadata(start),
		CalculationResult:   res,
	}, nil
}

// Metadata returns response metadata for a calculation started at start.
func Metadata(start time.Time) model.CalculationMetadata {
	elapsed := time.Since(start)
	now := time.Now().UTC()
	return model.CalculationMetadata{
		CalculationID:          uuid.New().String(),
		CalculationStartedAt:   now.Add(-elapsed).Format(time.RFC3339),
		CalculationCompletedAt: now.Format(time.RFC3339),
		CalculationDurationMs:  elapsed.Milliseconds(),
		CalculationOutcome:     model.OutcomeSuccess,
	}
}
