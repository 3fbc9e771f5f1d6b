package engine

import (
	"slices"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
)

// resultNamespace scopes deterministic result IDs.
var resultNamespace = uuid.MustParse("6f1d1c62-3a59-4d0e-9b7e-1f0a3c2d8e41")

// Aggregate combines line items into a ComputationResult. The exact sum of
// the items is multiplied by the liability ratio once; only sub-totals and
// the grand total are rounded (half-up, 2 places). Identical input yields
// an identical result.
func Aggregate(c *model.Case, tableVersion string, items []model.LineItem, notes ...model.CalculationMessage) (*model.ComputationResult, error) {
	if c == nil {
		return nil, &model.ComputationError{Reason: "no case"}
	}

	seen := make(map[model.Category]bool, len(items))
	for _, it := range items {
		if it.Category.Rank() < 0 {
			return nil, &model.ComputationError{Category: it.Category, Reason: "unknown category"}
		}
		if seen[it.Category] {
			return nil, &model.ComputationError{Category: it.Category, Reason: "duplicate line item"}
		}
		if it.Amount.IsNegative() {
			return nil, &model.ComputationError{Category: it.Category, Reason: "negative amount " + it.Amount.String()}
		}
		seen[it.Category] = true
	}

	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b model.LineItem) int {
		return a.Category.Rank() - b.Category.Rank()
	})

	groupSums := make(map[model.Group]decimal.Decimal)
	exact := decimal.Zero
	for _, it := range ordered {
		g := it.Category.Group()
		groupSums[g] = groupSums[g].Add(it.Amount)
		exact = exact.Add(it.Amount)
	}

	var subtotals []model.Subtotal
	for _, g := range model.GroupOrder {
		sum, ok := groupSums[g]
		if !ok {
			continue
		}
		subtotals = append(subtotals, model.Subtotal{Group: g, Label: g.Label(), Amount: sum.Round(2)})
	}

	messages := make([]model.CalculationMessage, len(notes))
	for i, m := range notes {
		m.ID = i
		messages[i] = m
	}

	id, err := resultID(c, tableVersion)
	if err != nil {
		return nil, err
	}

	return &model.ComputationResult{
		ResultID:       id,
		Case:           model.SummaryOf(c),
		Items:          ordered,
		Subtotals:      subtotals,
		Subtotal:       exact.Round(2),
		LiabilityRatio: c.LiabilityRatio,
		GrandTotal:     exact.Mul(c.LiabilityRatio).Round(2),
		TableVersion:   tableVersion,
		Messages:       messages,
	}, nil
}

func resultID(c *model.Case, tableVersion string) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	b = append(b, '\n')
	b = append(b, tableVersion...)
	return uuid.NewSHA1(resultNamespace, b).String(), nil
}
