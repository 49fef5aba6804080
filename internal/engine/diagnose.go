package engine

import (
	"fmt"
	"strings"

	"github.com/piwi3910/optimystic/internal/formula"
	"github.com/piwi3910/optimystic/internal/model"
)

// GenericInfeasible is reported when a model carries no cutting tables.
const GenericInfeasible = "No solution satisfies all constraints at once. " +
	"Some constraints are too tight or contradict each other; relax limits or demands and solve again."

// Diagnose explains an infeasible model. When the store carries the cutting
// parameters (Stocks, Items, Demands, ItemLens) it compares the length on
// hand with the length required and names items longer than every stock.
func Diagnose(store model.Store) string {
	c, ok := readCutting(store)
	if !ok {
		return GenericInfeasible
	}

	var b strings.Builder
	b.WriteString("The order cannot be cut from the available stock.\n")

	var longest float64
	for _, s := range c.stocks {
		longest = max(longest, s.Length)
	}
	var tooLong []string
	for i, name := range c.items {
		if c.lengths[i] > longest && c.demands[name] > 0 {
			tooLong = append(tooLong, fmt.Sprintf("%s (%s mm)", name, mm(c.lengths[i])))
		}
	}
	if len(tooLong) > 0 {
		fmt.Fprintf(&b, "- Longer than every stock (%s mm): %s.\n", mm(longest), strings.Join(tooLong, ", "))
	}

	var available, required float64
	for _, s := range c.stocks {
		available += s.Length * float64(s.Limit)
	}
	for i, name := range c.items {
		required += c.demands[name] * c.lengths[i]
	}
	fmt.Fprintf(&b, "- Required length: %s mm. Available length: %s mm.\n", mm(required), mm(available))
	if required > available {
		fmt.Fprintf(&b, "- Short by %s mm. Add stock or raise the stock limits.\n", mm(required-available))
	} else if len(tooLong) == 0 {
		b.WriteString("- Total length suffices, so the pieces do not pack into the permitted bars; " +
			"check the blade width and the stock limits.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

type cuttingTables struct {
	stocks  []model.Stock
	items   []string
	lengths []float64
	demands map[string]float64
}

// readCutting extracts the cutting parameters through the same conversion
// the formulas see, so stored and generated stores read alike.
func readCutting(store model.Store) (cuttingTables, bool) {
	values := map[string]formula.Value{}
	for _, name := range []string{"Stocks", "Items", "Demands", "ItemLens"} {
		p, ok := store.Param(name)
		if !ok {
			return cuttingTables{}, false
		}
		v, err := paramValue(p)
		if err != nil {
			return cuttingTables{}, false
		}
		values[name] = v
	}

	stockList, ok1 := values["Stocks"].(formula.List)
	itemList, ok2 := values["Items"].(formula.List)
	lenList, ok3 := values["ItemLens"].(formula.List)
	demandDict, ok4 := values["Demands"].(*formula.Dict)
	if !ok1 || !ok2 || !ok3 || !ok4 || len(itemList) != len(lenList) {
		return cuttingTables{}, false
	}

	var c cuttingTables
	for _, sv := range stockList {
		d, ok := sv.(*formula.Dict)
		if !ok {
			return cuttingTables{}, false
		}
		length, _ := number(d, "Length")
		limit, hasLimit := number(d, "Limit")
		if !hasLimit {
			limit = model.DefaultStockLimit
		}
		c.stocks = append(c.stocks, model.Stock{Length: length, Limit: int(limit)})
	}
	c.demands = map[string]float64{}
	for _, k := range demandDict.Keys() {
		v, _ := demandDict.Get(k)
		if n, ok := v.(formula.Number); ok {
			c.demands[k] = float64(n)
		}
	}
	for i, iv := range itemList {
		name, ok := iv.(formula.String)
		n, okLen := lenList[i].(formula.Number)
		if !ok || !okLen {
			return cuttingTables{}, false
		}
		c.items = append(c.items, string(name))
		c.lengths = append(c.lengths, float64(n))
	}
	return c, len(c.stocks) > 0
}

func number(d *formula.Dict, key string) (float64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(formula.Number)
	return float64(n), ok
}

func mm(v float64) string {
	return fmt.Sprintf("%.0f", v)
}
