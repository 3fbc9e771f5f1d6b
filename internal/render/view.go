package render

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"compensation-engine/internal/model"
)

// view is the fixed document structure a result is projected into. Every
// amount in it is formatted from the result as-is; nothing is recomputed.
type view struct {
	Title     string
	Summary   []pair
	Items     []itemRow
	Subtotals []pair
	Subtotal  string
	Liability string
	Total     string
	Notes     []string
	Footer    string
}

type pair struct {
	Label string
	Value string
}

type itemRow struct {
	No      int
	Label   string
	Amount  string
	Formula string
}

func project(res *model.ComputationResult, tpl Template) (*view, error) {
	if !res.Complete() {
		return nil, &model.RenderError{Reason: "computation result is incomplete"}
	}
	last := -1
	for _, it := range res.Items {
		r := it.Category.Rank()
		if r <= last {
			return nil, &model.RenderError{Reason: "line items are not in canonical order at " + string(it.Category)}
		}
		last = r
	}

	v := &view{
		Title:     tpl.Title,
		Subtotal:  money(res.Subtotal),
		Liability: percent(res.LiabilityRatio),
		Total:     money(res.GrandTotal),
		Footer:    tpl.Footer,
	}

	c := res.Case
	if c.VictimName != "" {
		v.Summary = append(v.Summary, pair{"Victim", c.VictimName})
	}
	v.Summary = append(v.Summary,
		pair{"Age at incident", strconv.Itoa(c.Age)},
		pair{"Incident date", c.IncidentDate},
		pair{"Region", c.Region + " (" + string(c.Residency) + ")"},
		pair{"Injury", injuryText(c)},
		pair{"Parameter table", res.TableVersion},
	)

	for i, it := range res.Items {
		v.Items = append(v.Items, itemRow{
			No:      i + 1,
			Label:   it.Label(),
			Amount:  money(it.DisplayAmount()),
			Formula: formulaText(it),
		})
	}
	for _, s := range res.Subtotals {
		v.Subtotals = append(v.Subtotals, pair{s.Label, money(s.Amount)})
	}
	for _, m := range res.Messages {
		v.Notes = append(v.Notes, m.Message)
	}
	return v, nil
}

func injuryText(c model.CaseSummary) string {
	if c.InjuryKind != model.InjuryDisability || len(c.Grades) == 0 {
		return string(c.InjuryKind)
	}
	grades := make([]string, len(c.Grades))
	for i, g := range c.Grades {
		grades[i] = strconv.Itoa(g)
	}
	return "disability, grade " + strings.Join(grades, ", ")
}

func formulaText(it model.LineItem) string {
	parts := make([]string, 0, len(it.Factors))
	for _, f := range it.Factors {
		s := f.Name + " = " + f.Value.String()
		if f.Unit != "" {
			s += " " + f.Unit
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return it.FormulaID
	}
	return it.FormulaID + " (" + strings.Join(parts, "; ") + ")"
}

// money formats an amount with two decimals and thousands separators.
func money(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(ch)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).String() + "%"
}
