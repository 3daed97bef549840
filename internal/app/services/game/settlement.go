package game

import (
	"math"
	"math/bits"

	"github.com/R3E-Network/longshot/internal/app/domain/game"
)

// percentOf computes floor(balance*pct/100) over the full uint64 range using
// a 128-bit intermediate product. Percentages above 100 can push the quotient
// past uint64; those saturate instead of panicking in Div64.
func percentOf(balance uint64, pct uint8) uint64 {
	hi, lo := bits.Mul64(balance, uint64(pct))
	if hi >= 100 {
		return math.MaxUint64
	}
	quo, _ := bits.Div64(hi, lo, 100)
	return quo
}

// computeSettlement splits the live pool balance into the payout legs. Both
// percentages are taken from the whole balance with floor division, so the
// remainder stays in the pool. Zero-amount legs produce no transfer.
//
// The admin leg goes to the owner and is queued before the reward leg.
func computeSettlement(cfg game.Config, player string, balance uint64) game.Settlement {
	rewardAmount := percentOf(balance, cfg.RewardPercentage)
	adminAmount := percentOf(balance, cfg.AdminPercentage)

	st := game.Settlement{
		Player:       player,
		PoolBalance:  balance,
		RewardAmount: rewardAmount,
		AdminAmount:  adminAmount,
	}

	if adminAmount > 0 {
		st.Transfers = append(st.Transfers, game.Transfer{
			Kind:      game.TransferAdmin,
			Recipient: cfg.Owner,
			Denom:     cfg.Denom,
			Amount:    adminAmount,
			Status:    game.TransferPending,
		})
	}
	if rewardAmount > 0 {
		st.Transfers = append(st.Transfers, game.Transfer{
			Kind:      game.TransferReward,
			Recipient: player,
			Denom:     cfg.Denom,
			Amount:    rewardAmount,
			Status:    game.TransferPending,
		})
	}
	return st
}
