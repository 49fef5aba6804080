// Package analytics rebuilds cut plans from solved cutting models: which
// pieces go on which bar, the bar geometry left to right, money figures and
// order fulfillment.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/piwi3910/optimystic/internal/model"
	"github.com/piwi3910/optimystic/internal/templates"
)

// RoundingEpsilon is how far a solver value may sit from an integer and
// still count as that integer.
const RoundingEpsilon = 1e-4

// RoundCount converts a solver value to a piece count. Values within
// RoundingEpsilon of an integer snap to it; others are rounded half away
// from zero and reported as not exact.
func RoundCount(v float64) (int, bool) {
	r := math.Round(v)
	return int(r), math.Abs(v-r) <= RoundingEpsilon
}

// Build reconstructs the cut plan of a solved cutting model. Bars are
// ordered by stock type, then bar index, and only bars with pieces are
// listed; bars opened without pieces still count towards material cost.
func Build(res model.SolveResult, m templates.Model, p templates.CuttingParams, remnantMin float64) model.CutPlan {
	plan := model.CutPlan{Kerf: p.Kerf, Bins: []model.BinPlan{}}
	if !res.Solved() {
		return plan
	}

	counts := map[model.BinKey]map[int]int{}
	opened := map[model.BinKey]bool{}
	for _, v := range res.Variables {
		if ak, ok := m.Assignments[v.Variable]; ok {
			n, exact := RoundCount(v.Value)
			if !exact {
				plan.Warnings = append(plan.Warnings, fmt.Sprintf("%s = %g is not integral; using %d", v.Variable, v.Value, n))
			}
			if n <= 0 {
				continue
			}
			if counts[ak.BinKey()] == nil {
				counts[ak.BinKey()] = map[int]int{}
			}
			counts[ak.BinKey()][ak.Item] += n
			continue
		}
		if bk, ok := m.Bins[v.Variable]; ok {
			if n, _ := RoundCount(v.Value); n >= 1 {
				opened[bk] = true
			}
		}
	}

	keys := lo.Keys(counts)
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	produced := make([]int, len(p.Items))
	for _, key := range keys {
		if key.Stock < 0 || key.Stock >= len(p.Stocks) {
			continue
		}
		if !opened[key] {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("pieces assigned to unused bar %s", key))
		}
		bin := buildBin(key, p, counts[key])
		bin.DisplayID = fmt.Sprintf("Stock #%d", len(plan.Bins)+1)
		if bin.WasteLength < -1e-6 {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("%s is overfilled by %.1f mm", bin.DisplayID, -bin.WasteLength))
		}
		for _, c := range bin.Cuts {
			produced[c.Item] += c.Count
		}
		plan.Bins = append(plan.Bins, bin)
	}

	var emptyCost float64
	emptyBars := 0
	for key := range opened {
		if _, used := counts[key]; !used && key.Stock >= 0 && key.Stock < len(p.Stocks) {
			emptyCost += p.Stocks[key.Stock].Cost
			emptyBars++
		}
	}
	if emptyBars > 0 {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("%d bars opened without cuts", emptyBars))
	}

	plan.Fulfillment = Fulfillment(p.Items, produced)
	plan.Financials = Financials(plan.Bins, p.Items, produced)
	plan.Financials.MaterialCost += emptyCost
	plan.Financials.Profit -= emptyCost
	plan.Remnants = model.DetectAllRemnants(plan, remnantMin)
	return plan
}

// buildBin lays out one bar: pieces in item order, a kerf between
// consecutive pieces and the trailing waste.
func buildBin(key model.BinKey, p templates.CuttingParams, counts map[int]int) model.BinPlan {
	stock := p.Stocks[key.Stock]
	bin := model.BinPlan{Key: key, Stock: stock}

	items := lo.Keys(counts)
	sort.Ints(items)

	pos := 0.0
	for _, i := range items {
		if i < 0 || i >= len(p.Items) {
			continue
		}
		it := p.Items[i]
		bin.Cuts = append(bin.Cuts, model.CutCount{Item: i, Name: it.Name, Count: counts[i], Length: it.Length})
		for n := 0; n < counts[i]; n++ {
			if len(bin.Segments) > 0 && p.Kerf > 0 {
				bin.Segments = append(bin.Segments, model.Segment{Kind: model.SegmentKerf, Label: "(Kerf)", Start: pos, Length: p.Kerf})
				pos += p.Kerf
				bin.KerfLength += p.Kerf
			}
			bin.Segments = append(bin.Segments, model.Segment{Kind: model.SegmentProduct, Label: it.Name, Start: pos, Length: it.Length})
			pos += it.Length
			bin.UsedLength += it.Length
		}
	}

	bin.WasteLength = stock.Length - pos
	if bin.WasteLength > 1e-9 {
		bin.Segments = append(bin.Segments, model.Segment{Kind: model.SegmentWaste, Label: "(Waste)", Start: pos, Length: bin.WasteLength})
	} else if bin.WasteLength > -1e-6 {
		bin.WasteLength = 0
	}
	return bin
}

// Fulfillment compares produced counts with the ordered demand.
func Fulfillment(items []model.Item, produced []int) []model.Fulfillment {
	out := make([]model.Fulfillment, len(items))
	for i, it := range items {
		got := float64(produced[i])
		out[i] = model.Fulfillment{
			Item:      it.Name,
			Demand:    it.Demand,
			Produced:  produced[i],
			Shortfall: math.Max(0, it.Demand-got),
			Surplus:   math.Max(0, got-it.Demand),
		}
	}
	return out
}

// Financials sums the money side of the bars. Revenue only counts pieces up
// to the demand, since surplus pieces have no buyer.
func Financials(bins []model.BinPlan, items []model.Item, produced []int) model.Financials {
	var f model.Financials
	for i, it := range items {
		f.Revenue += it.Price * math.Min(float64(produced[i]), it.Demand)
	}
	for _, b := range bins {
		perMM := b.Stock.CostPerUnit()
		f.MaterialCost += b.Stock.Cost
		f.ScrapValue += math.Max(0, b.WasteLength) * perMM
		f.BladeLossValue += b.KerfLength * perMM
	}
	f.Profit = f.Revenue - f.MaterialCost
	return f
}
