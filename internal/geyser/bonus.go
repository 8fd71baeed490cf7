package geyser

import "math/big"

// bonusFactorNumDen returns the early-withdrawal bonus factor as a
// rational numerator/denominator pair so callers can multiply before
// dividing and never touch floating point:
//
//	bonus_factor(Δ) = 1                                          Δ >= bonusPeriodSeconds
//	                = (startBonus*period + (100-startBonus)*Δ) / (100*period)   otherwise
//
// which is algebraically start_bonus/100 + (1 - start_bonus/100) *
// Δ/bonus_period_seconds.
func bonusFactorNumDen(startBonusPermille, bonusPeriodSeconds, stakeTimeSec int64) (num, den *big.Int) {
	if stakeTimeSec >= bonusPeriodSeconds {
		return big.NewInt(1), big.NewInt(1)
	}
	if stakeTimeSec < 0 {
		stakeTimeSec = 0
	}
	period := big.NewInt(bonusPeriodSeconds)
	start := big.NewInt(startBonusPermille)
	rest := big.NewInt(100 - startBonusPermille)

	num = new(big.Int).Mul(start, period)
	num.Add(num, new(big.Int).Mul(rest, big.NewInt(stakeTimeSec)))
	den = new(big.Int).Mul(big.NewInt(100), period)
	return num, den
}

// applyBonus scales `amount` by the bonus factor for a deposit held
// stakeTimeSec seconds, rounding down (multiplication before
// division).
func applyBonus(amount *big.Int, startBonusPermille, bonusPeriodSeconds, stakeTimeSec int64) *big.Int {
	num, den := bonusFactorNumDen(startBonusPermille, bonusPeriodSeconds, stakeTimeSec)
	bonused := new(big.Int).Mul(amount, num)
	bonused.Div(bonused, den)
	return bonused
}
