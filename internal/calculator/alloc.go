package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// Allocate distributes total cents across weights using the largest
// remainder method. Leftover cents go to the largest fractional remainders,
// earlier index first on ties. The result always sums to total. If every
// weight is zero nothing is distributed.
func Allocate(total int64, weights []int64) []int64 {
	out := make([]int64, len(weights))
	if total < 0 {
		for i, c := range Allocate(-total, weights) {
			out[i] = -c
		}
		return out
	}

	var sum int64
	for _, w := range weights {
		if w > 0 {
			sum += w
		}
	}
	if sum == 0 || total == 0 {
		return out
	}

	remainders := make([]int64, len(weights))
	var given int64
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		num := total * w
		out[i] = num / sum
		remainders[i] = num % sum
		given += out[i]
	}

	order := make([]int, 0, len(weights))
	for i, w := range weights {
		if w > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	for k := int64(0); k < total-given; k++ {
		out[order[k%int64(len(order))]]++
	}
	return out
}

// SplitEven divides amount into n cent-exact shares. The first
// cents(amount) mod n shares carry one extra cent.
func SplitEven(amount decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}
	weights := make([]int64, n)
	for i := range weights {
		weights[i] = 1
	}
	cents := Allocate(toCents(amount), weights)
	shares := make([]decimal.Decimal, n)
	for i, c := range cents {
		shares[i] = fromCents(c)
	}
	return shares
}

// SharePercentage returns 100/n rounded to two places.
func SharePercentage(n int) decimal.Decimal {
	if n <= 0 {
		return decimal.Zero
	}
	return hundred.DivRound(decimal.NewFromInt(int64(n)), 2)
}

// LineTotal returns round(quantity * unitPrice, 2).
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return Round2(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}
