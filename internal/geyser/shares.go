package geyser

import "math/big"

// sharesPerTokenNumDen returns the live staking-share conversion rate
// as a rational numerator/denominator pair:
//
//	shares_per_token(now) = totalShares / poolBalance     (pool non-empty)
//	                      = initialSharesPerToken          (pool empty)
//
// Callers multiply by an amount and divide by the denominator
// themselves so that the multiplication happens before the division.
func sharesPerTokenNumDen(totalShares, poolBalance, initialSharesPerToken *big.Int) (num, den *big.Int) {
	if totalShares.Sign() == 0 {
		return new(big.Int).Set(initialSharesPerToken), big.NewInt(1)
	}
	return new(big.Int).Set(totalShares), new(big.Int).Set(poolBalance)
}

// mintShares computes the staking shares minted for `amount` of the
// staking asset, evaluated against the pool balance *before* the
// deposit transfer lands.
func mintShares(amount, totalShares, poolBalanceBeforeDeposit, initialSharesPerToken *big.Int) *big.Int {
	num, den := sharesPerTokenNumDen(totalShares, poolBalanceBeforeDeposit, initialSharesPerToken)
	minted := new(big.Int).Mul(amount, num)
	minted.Div(minted, den)
	return minted
}

// burnValue converts `shares` of staking shares back into a staking-
// asset amount, evaluated against the pool balance *before* the
// outgoing transfer is sent.
func burnValue(shares, totalShares, poolBalanceBeforeWithdrawal *big.Int) *big.Int {
	if totalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	value := new(big.Int).Mul(shares, poolBalanceBeforeWithdrawal)
	value.Div(value, totalShares)
	return value
}

// amountToShares is the general amount->shares conversion against a
// live total/balance ratio: amount * totalShares / poolBalance. It is
// the inverse of burnValue and is reused both for computing the
// staking shares to burn on withdrawal and for re-expressing a
// bonused distribution-asset amount back into distribution shares.
func amountToShares(amount, totalShares, poolBalance *big.Int) *big.Int {
	if poolBalance.Sign() == 0 {
		return big.NewInt(0)
	}
	shares := new(big.Int).Mul(amount, totalShares)
	shares.Div(shares, poolBalance)
	return shares
}

// sharesToBurn computes how many staking shares correspond to
// withdrawing `amount` of the staking asset, evaluated against the
// current pool balance.
func sharesToBurn(amount, totalShares, poolBalance *big.Int) *big.Int {
	return amountToShares(amount, totalShares, poolBalance)
}

// mintDistributionShares mirrors mintShares for the distribution
// pool's share unit: the initial multiplier applies when the
// distribution pool is empty, otherwise the live pool state is used.
func mintDistributionShares(amount, totalDistShares, distPoolBalanceBeforeDeposit, initialSharesPerToken *big.Int) *big.Int {
	return mintShares(amount, totalDistShares, distPoolBalanceBeforeDeposit, initialSharesPerToken)
}

// distributionShareValue converts distribution shares back into a
// distribution-asset amount against the live distribution pool
// balance, used to price unlocked-but-unclaimed reward shares.
func distributionShareValue(shares, totalDistShares, distPoolBalance *big.Int) *big.Int {
	return burnValue(shares, totalDistShares, distPoolBalance)
}

// totalDistributionShares is the distribution pool's share
// denominator: locked + unlocked shares ever outstanding against the
// live pool balance.
func totalDistributionShares(totalLocked, totalUnlocked *big.Int) *big.Int {
	return new(big.Int).Add(totalLocked, totalUnlocked)
}
