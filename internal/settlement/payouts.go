package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/betchat/betchat-backend/pkg/db/models"
	"github.com/betchat/betchat-backend/pkg/enums"
)

// ComputePayouts derives the payout rows for an event settled on outcome.
// Winners receive their stake back plus a pro-rata share of the losing pool:
//
//	payout = stake + floor(stake * losingPool / winningPool)
//
// Integer floor division means the sum of payouts never exceeds the pool, so
// money is conserved; the few kobo of rounding dust stay in the house.
// When nobody backed the winning side, every participant is refunded instead.
func ComputePayouts(parts []models.Participation, outcome enums.Outcome) []models.Payout {
	if len(parts) == 0 {
		return nil
	}

	var winningPool, losingPool int64
	for _, p := range parts {
		if p.Prediction == outcome {
			winningPool += p.StakeKobo
		} else {
			losingPool += p.StakeKobo
		}
	}

	payouts := make([]models.Payout, 0, len(parts))
	if winningPool == 0 {
		for _, p := range parts {
			payouts = append(payouts, models.Payout{
				ID:         uuid.New(),
				EventID:    p.EventID,
				UserID:     p.UserID,
				Type:       enums.PayoutTypeRefund,
				Status:     enums.PayoutStatusPending,
				AmountKobo: p.StakeKobo,
			})
		}
		return payouts
	}

	losing := decimal.NewFromInt(losingPool)
	winning := decimal.NewFromInt(winningPool)
	for _, p := range parts {
		if p.Prediction != outcome {
			continue
		}
		// stake * losingPool can exceed int64; decimal keeps the product
		// exact and QuoRem gives the integer quotient without rounding up.
		quotient, _ := decimal.NewFromInt(p.StakeKobo).Mul(losing).QuoRem(winning, 0)
		share := quotient.IntPart()
		payouts = append(payouts, models.Payout{
			ID:         uuid.New(),
			EventID:    p.EventID,
			UserID:     p.UserID,
			Type:       enums.PayoutTypeWinnings,
			Status:     enums.PayoutStatusPending,
			AmountKobo: p.StakeKobo + share,
		})
	}
	return payouts
}
