// Package odds quotes payout multipliers from pool state. The quotes are
// display-time only; settlement pays pro-rata from the final pool, so nothing
// here touches storage.
package odds

import (
	"github.com/shopspring/decimal"

	"github.com/betchat/betchat-backend/pkg/db/models"
)

var (
	// Default is the even-money quote used while the pool is empty.
	Default = decimal.NewFromInt(2)
	// Min and Max clamp the quote so neither side degenerates to a
	// near-zero favorite or an unbounded underdog multiplier.
	Min = decimal.RequireFromString("1.1")
	Max = decimal.NewFromInt(10)
)

// Quote returns the multiplier for a side given the pool total and the amount
// staked on the opposite side, in kobo.
func Quote(totalKobo, oppositeKobo int64) decimal.Decimal {
	if totalKobo == 0 {
		return Default
	}
	divisor := oppositeKobo
	if divisor < 1 {
		divisor = 1
	}
	raw := decimal.NewFromInt(totalKobo).Div(decimal.NewFromInt(divisor))
	return clamp(raw)
}

// QuotePair returns the yes and no multipliers for a pool.
func QuotePair(pool *models.Pool) (yes, no decimal.Decimal) {
	if pool == nil {
		return Default, Default
	}
	yes = Quote(pool.TotalKobo, pool.NoKobo)
	no = Quote(pool.TotalKobo, pool.YesKobo)
	return yes, no
}

func clamp(value decimal.Decimal) decimal.Decimal {
	if value.LessThan(Min) {
		return Min
	}
	if value.GreaterThan(Max) {
		return Max
	}
	return value
}

// Format renders a quote the way the API and broadcasts present it.
func Format(value decimal.Decimal) string {
	return value.StringFixed(2)
}
