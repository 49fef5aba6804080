package templates

import (
	"math"
	"sort"

	"github.com/piwi3910/optimystic/internal/model"
)

// Piece is one ordered piece to place.
type Piece struct {
	Item   int
	Length float64
}

// Pieces expands the demand of every item into single pieces, in item order.
// Fractional demands round up when minimizing and down when maximizing, so
// the pieces always satisfy the demand rows.
func Pieces(p CuttingParams) []Piece {
	var pieces []Piece
	for i, it := range p.Items {
		n := int(math.Ceil(it.Demand - 1e-9))
		if p.Sense == model.SenseMaximize {
			n = int(math.Floor(it.Demand + 1e-9))
		}
		for k := 0; k < n; k++ {
			pieces = append(pieces, Piece{Item: i, Length: it.Length})
		}
	}
	return pieces
}

// Packing is a feasible assignment of pieces to candidate bars.
type Packing struct {
	Values  map[string]float64 // U and A variable values
	Cost    float64            // Cost of the opened bars
	Revenue float64            // Price of the placed pieces
	Bars    int
}

// Profit is the objective value of the packing when maximizing.
func (pk Packing) Profit() float64 {
	return pk.Revenue - pk.Cost
}

// Pack places pieces in the given order into the first open bar with room,
// opening the cheapest-per-mm stock that fits when none has room. When
// minimizing, the boolean is false as soon as a piece fits no stock with
// candidates left. When maximizing, such pieces are left uncut and bars
// whose pieces earn less than the bar costs are dropped, so the packing
// is always usable.
func Pack(p CuttingParams, pieces []Piece) (Packing, bool) {
	maximize := p.Sense == model.SenseMaximize
	total := p.TotalRequiredLength()
	capacity := make([]int, len(p.Stocks))
	for s, st := range p.Stocks {
		capacity[s] = MaxBins(st, total)
	}

	type openBar struct {
		key     model.BinKey
		free    float64 // remaining (len + kerf) budget
		counts  map[int]int
		revenue float64
	}
	var bars []*openBar
	opened := make([]int, len(p.Stocks))

	for _, pc := range pieces {
		need := pc.Length + p.Kerf
		var target *openBar
		for _, b := range bars {
			if b.free+1e-9 >= need {
				target = b
				break
			}
		}
		if target == nil {
			best := -1
			for s, st := range p.Stocks {
				if opened[s] >= capacity[s] || st.Length+1e-9 < pc.Length {
					continue
				}
				if best < 0 || st.CostPerUnit() < p.Stocks[best].CostPerUnit() {
					best = s
				}
			}
			if best < 0 {
				if maximize {
					continue
				}
				return Packing{}, false
			}
			target = &openBar{
				key:    model.BinKey{Stock: best, Bin: opened[best]},
				free:   p.Stocks[best].Length + p.Kerf,
				counts: map[int]int{},
			}
			opened[best]++
			bars = append(bars, target)
		}
		target.free -= need
		target.counts[pc.Item]++
		target.revenue += p.Items[pc.Item].Price
	}

	out := Packing{Values: map[string]float64{}}
	for _, b := range bars {
		cost := p.Stocks[b.key.Stock].Cost
		if maximize && b.revenue < cost {
			continue
		}
		out.Values[b.key.UsageName()] = 1
		for item, n := range b.counts {
			out.Values[model.AssignKey{Item: item, Stock: b.key.Stock, Bin: b.key.Bin}.String()] = float64(n)
		}
		out.Cost += cost
		out.Revenue += b.revenue
		out.Bars++
	}
	return out, true
}

// FirstFitDecreasing builds a warm start for the cutting model by packing
// pieces longest first. A nil hint means some piece fits no bar. When
// maximizing, a packing that loses money gives way to the empty hint.
func FirstFitDecreasing(p CuttingParams, m Model) map[string]float64 {
	pieces := Pieces(p)
	sort.SliceStable(pieces, func(a, b int) bool { return pieces[a].Length > pieces[b].Length })

	packing, ok := Pack(p, pieces)
	if !ok || !m.Declares(packing.Values) {
		return nil
	}
	if p.Sense == model.SenseMaximize && packing.Profit() <= 0 {
		return map[string]float64{}
	}
	return packing.Values
}

// Declares reports whether every name in values is a generated variable.
func (m Model) Declares(values map[string]float64) bool {
	for name := range values {
		if _, ok := m.Assignments[name]; ok {
			continue
		}
		if _, ok := m.Bins[name]; !ok {
			return false
		}
	}
	return true
}
