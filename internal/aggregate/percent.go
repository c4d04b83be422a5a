package aggregate

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DefaultThreshold is the minimum share, in percent, for a detail row to be listed
const DefaultThreshold = 1.0

var hundred = decimal.NewFromInt(100)

// PercentOf returns part/total*100 at full precision, zero when total is 0
func PercentOf(part, total float64) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(part).Mul(hundred).Div(decimal.NewFromFloat(total))
}

// Percent formats part's share of total with one decimal, rounding half away
// from zero. A zero total yields "0.0".
func Percent(part, total float64) string {
	return PercentOf(part, total).StringFixed(1)
}

// PercentFloat is Percent as a number rounded to one decimal
func PercentFloat(part, total float64) float64 {
	return PercentOf(part, total).Round(1).InexactFloat64()
}

// Round rounds v half away from zero to places decimals
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Percentages maps each category of b to its share of b.Total with one
// decimal. Shares are rounded by largest remainder, so for a positive total
// with non-negative subtotals they add up to exactly 100.0. Equal remainders
// go to the earlier category.
func Percentages(b *Bucket) map[string]string {
	out := make(map[string]string, len(b.Categories))
	rounded := func() map[string]string {
		for _, c := range b.Categories {
			out[c] = Percent(b.Subtotals[c], b.Total)
		}
		return out
	}
	if b.Total <= 0 {
		return rounded()
	}

	tenths := make([]decimal.Decimal, len(b.Categories))
	exact := make([]decimal.Decimal, len(b.Categories))
	sum, floorSum := decimal.Zero, decimal.Zero
	for i, c := range b.Categories {
		if b.Subtotals[c] < 0 {
			return rounded()
		}
		exact[i] = PercentOf(b.Subtotals[c], b.Total).Shift(1)
		tenths[i] = exact[i].Floor()
		sum = sum.Add(exact[i])
		floorSum = floorSum.Add(tenths[i])
	}

	order := make([]int, len(b.Categories))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		rx := exact[order[x]].Sub(tenths[order[x]])
		ry := exact[order[y]].Sub(tenths[order[y]])
		return rx.GreaterThan(ry)
	})

	missing := sum.Round(0).Sub(floorSum).IntPart()
	for k := 0; k < len(order) && int64(k) < missing; k++ {
		i := order[k]
		tenths[i] = tenths[i].Add(decimal.NewFromInt(1))
	}

	for i, c := range b.Categories {
		out[c] = tenths[i].Shift(-1).StringFixed(1)
	}
	return out
}

// FilterThreshold keeps items whose value is at least minPercent of total.
// Totals are left to the caller; nothing survives a non-positive total.
func FilterThreshold[T any](items []T, value func(T) float64, total, minPercent float64) []T {
	out := make([]T, 0, len(items))
	if total <= 0 {
		return out
	}
	for _, it := range items {
		if value(it)/total*100 >= minPercent {
			out = append(out, it)
		}
	}
	return out
}
