package templates

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/piwi3910/optimystic/internal/model"
)

// ErrKerfTooWide rejects a blade at least as wide as the longest stock.
var ErrKerfTooWide = errors.New("kerf is not smaller than the longest stock length")

// CuttingParams is the input of the cutting-stock generator.
type CuttingParams struct {
	Items  []model.Item
	Stocks []model.Stock
	Kerf   float64
	Sense  model.Sense
}

// TotalRequiredLength is Σ demand × length over all items.
func (p CuttingParams) TotalRequiredLength() float64 {
	return lo.SumBy(p.Items, func(it model.Item) float64 { return it.Demand * it.Length })
}

// MaxBins is the number of candidate bars generated for a stock type:
// min(limit, ceil(1.5 × required / length) + 2).
func MaxBins(stock model.Stock, totalRequired float64) int {
	if stock.Length <= 0 {
		return 0
	}
	n := int(math.Ceil(1.5*totalRequired/stock.Length)) + 2
	if stock.Limit < n {
		n = stock.Limit
	}
	if n < 0 {
		n = 0
	}
	return n
}

// ValidateCutting checks the tables before a model is generated. Items that
// fit no stock are left to the solver, which reports them as infeasible.
func ValidateCutting(p CuttingParams) error {
	if len(p.Stocks) == 0 {
		return fmt.Errorf("%w: at least one stock type is required", ErrInvalidInput)
	}
	seen := map[string]bool{}
	for _, it := range p.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item name must not be empty", ErrInvalidInput)
		}
		if seen[it.Name] {
			return fmt.Errorf("%w: duplicate item %q", ErrInvalidInput, it.Name)
		}
		seen[it.Name] = true
		if it.Length <= 0 {
			return fmt.Errorf("%w: item %q must have a positive length", ErrInvalidInput, it.Name)
		}
		if it.Demand < 0 {
			return fmt.Errorf("%w: item %q has a negative demand", ErrInvalidInput, it.Name)
		}
	}
	for _, s := range p.Stocks {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: stock name must not be empty", ErrInvalidInput)
		}
		if s.Length <= 0 {
			return fmt.Errorf("%w: stock %q must have a positive length", ErrInvalidInput, s.Name)
		}
		if s.Cost < 0 || s.Limit < 0 {
			return fmt.Errorf("%w: stock %q has a negative cost or limit", ErrInvalidInput, s.Name)
		}
	}
	if p.Kerf < 0 {
		return fmt.Errorf("%w: kerf must not be negative", ErrInvalidInput)
	}
	longest := lo.MaxBy(p.Stocks, func(a, b model.Stock) bool { return a.Length > b.Length })
	if p.Kerf >= longest.Length {
		return fmt.Errorf("%w: kerf %s mm, longest stock %s mm", ErrKerfTooWide, num(p.Kerf), num(longest.Length))
	}
	return nil
}

// Cutting builds the bin-and-assignment model. Each candidate bar (s, b)
// gets a binary usage variable U_ST{s}_B{b} and one integer count
// A_IT{i}_ST{s}_B{b} per item. Every piece is charged one kerf and the bar
// one extra kerf, so n pieces pay for the n-1 cuts between them:
//
//	Σ_i A·(len_i + kerf) <= (len_s + kerf)·U
//
// Demand rows are >= when minimizing cost and <= when maximizing profit.
func Cutting(p CuttingParams) (Model, error) {
	if err := ValidateCutting(p); err != nil {
		return Model{}, err
	}
	m := Model{
		Mode:        model.ModeCutting,
		Sense:       p.Sense,
		Assignments: map[string]model.AssignKey{},
		Bins:        map[string]model.BinKey{},
	}
	maximize := p.Sense == model.SenseMaximize
	total := p.TotalRequiredLength()

	var objTerms []string
	perItem := make([][]string, len(p.Items))

	for s, stock := range p.Stocks {
		for b := 0; b < MaxBins(stock, total); b++ {
			bk := model.BinKey{Stock: s, Bin: b}
			u := bk.UsageName()
			m.Bins[u] = bk
			m.Store.Variables = append(m.Store.Variables, model.VarSpec{Name: u, Shape: model.ShapeScalar, Type: model.VarBinary})

			if maximize {
				objTerms = append(objTerms, term(-stock.Cost, u))
			} else {
				objTerms = append(objTerms, term(stock.Cost, u))
			}

			lhs := make([]string, 0, len(p.Items))
			for i, it := range p.Items {
				ak := model.AssignKey{Item: i, Stock: s, Bin: b}
				a := ak.String()
				m.Assignments[a] = ak
				m.Store.Variables = append(m.Store.Variables, model.VarSpec{Name: a, Shape: model.ShapeScalar, Type: model.VarInteger})
				perItem[i] = append(perItem[i], a)

				if maximize {
					objTerms = append(objTerms, term(it.Price, a))
				}
				lhs = append(lhs, fmt.Sprintf("%s * %s", a, num(it.Length+p.Kerf)))
			}
			if len(lhs) == 0 {
				lhs = []string{"0"}
			}
			m.Constraints = append(m.Constraints, fmt.Sprintf("Cap_%s: %s <= %s * %s",
				bk, strings.Join(lhs, " + "), num(stock.Length+p.Kerf), u))
		}
	}

	rel := ">="
	if maximize {
		rel = "<="
	}
	for i, it := range p.Items {
		lhs := "0"
		if len(perItem[i]) > 0 {
			lhs = strings.Join(perItem[i], " + ")
		}
		m.Constraints = append(m.Constraints, fmt.Sprintf("Demand_IT%d: %s %s %s", i, lhs, rel, num(it.Demand)))
	}

	m.Objective = joinTerms(objTerms)
	m.Store.Parameters = cuttingParams(p)
	m.Hint = FirstFitDecreasing(p, m)
	return m, nil
}

// term renders coef × name, dropping zero coefficients.
func term(coef float64, name string) string {
	if coef == 0 {
		return ""
	}
	return fmt.Sprintf("%s * %s", num(coef), name)
}

// joinTerms sums rendered terms, folding "+ -c" into "- c".
func joinTerms(terms []string) string {
	var b strings.Builder
	for _, t := range terms {
		if t == "" {
			continue
		}
		switch {
		case b.Len() == 0:
			b.WriteString(t)
		case strings.HasPrefix(t, "-"):
			b.WriteString(" - ")
			b.WriteString(t[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(t)
		}
	}
	if b.Len() == 0 {
		return "0"
	}
	return b.String()
}

// cuttingParams exposes the tables to formulas under the names the
// infeasibility diagnosis and the analytics look for.
func cuttingParams(p CuttingParams) []model.ParamSpec {
	items := lo.Map(p.Items, func(it model.Item, _ int) string { return it.Name })
	lens := lo.Map(p.Items, func(it model.Item, _ int) any { return it.Length })
	demands := map[string]float64{}
	prices := map[string]float64{}
	for _, it := range p.Items {
		demands[it.Name] = it.Demand
		prices[it.Name] = it.Price
	}
	stocks := lo.Map(p.Stocks, func(s model.Stock, _ int) any {
		return map[string]any{"Name": s.Name, "Length": s.Length, "Cost": s.Cost, "Limit": float64(s.Limit)}
	})
	return []model.ParamSpec{
		{Name: "ItemLens", Shape: model.ShapeList, Data: lens},
		listParam("Items", items),
		{Name: "Stocks", Shape: model.ShapeList, Data: stocks},
		dictParam("Demands", items, demands),
		dictParam("Prices", items, prices),
		{Name: "Kerf", Shape: model.ShapeScalar, Data: p.Kerf},
	}
}

// ItemsFromRows reads the order table (Item, Length, Demand, Price).
// Rows without an item name are skipped.
func ItemsFromRows(rows []model.Row) ([]model.Item, error) {
	var items []model.Item
	for _, r := range rows {
		name := strings.TrimSpace(r.String("Item"))
		if name == "" {
			continue
		}
		length, ok := r.Float("Length")
		if !ok {
			return nil, fmt.Errorf("%w: item %q needs a numeric Length", ErrInvalidInput, name)
		}
		demand, ok := r.Float("Demand")
		if !ok {
			return nil, fmt.Errorf("%w: item %q needs a numeric Demand", ErrInvalidInput, name)
		}
		items = append(items, model.NewItem(name, length, demand, r.FloatOr("Price", 0)))
	}
	return items, nil
}

// StocksFromRows reads the inventory table (Name, Length, Cost, Limit).
// Limit defaults to model.DefaultStockLimit.
func StocksFromRows(rows []model.Row) ([]model.Stock, error) {
	var stocks []model.Stock
	for _, r := range rows {
		name := strings.TrimSpace(r.String("Name"))
		if name == "" {
			continue
		}
		length, ok := r.Float("Length")
		if !ok {
			return nil, fmt.Errorf("%w: stock %q needs a numeric Length", ErrInvalidInput, name)
		}
		cost, ok := r.Float("Cost")
		if !ok {
			return nil, fmt.Errorf("%w: stock %q needs a numeric Cost", ErrInvalidInput, name)
		}
		limit := int(r.FloatOr("Limit", model.DefaultStockLimit))
		stocks = append(stocks, model.NewStock(name, length, cost, limit))
	}
	return stocks, nil
}

// ItemRows and StockRows turn typed tables back into rows for storage.
func ItemRows(items []model.Item) []model.Row {
	return lo.Map(items, func(it model.Item, _ int) model.Row {
		return model.Row{"Item": it.Name, "Length": it.Length, "Demand": it.Demand, "Price": it.Price}
	})
}

func StockRows(stocks []model.Stock) []model.Row {
	return lo.Map(stocks, func(s model.Stock, _ int) model.Row {
		return model.Row{"Name": s.Name, "Length": s.Length, "Cost": s.Cost, "Limit": s.Limit}
	})
}
