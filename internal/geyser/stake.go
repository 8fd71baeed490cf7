package geyser

import "math/big"

// Stake deposits `amount` of the staking asset on behalf of the
// caller (beneficiary = caller).
func (e *Engine) Stake(now int64, caller Address, amount *big.Int, data []byte) error {
	return e.StakeFor(now, caller, caller, amount, data)
}

// StakeFor deposits `amount` of the staking asset from `caller` into
// the pool, crediting `beneficiary`.
func (e *Engine) StakeFor(now int64, caller, beneficiary Address, amount *big.Int, data []byte) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	if beneficiary == NullAddress {
		return ErrBeneficiaryIsNull
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	user := e.userOrCreateLocked(beneficiary, now)
	e.refreshLocked(now, user)

	poolBalanceBeforeDeposit := e.stakingAsset.BalanceOf(e.stakingPool)
	minted := mintShares(amount, e.totalStakingShares, poolBalanceBeforeDeposit, e.cfg.InitialSharesPerToken)
	if minted.Sign() == 0 {
		return ErrStakeTooSmall
	}

	if err := e.stakingAsset.TransferFrom(caller, e.stakingPool, amount); err != nil {
		return err
	}

	user.Stakes = append(user.Stakes, Stake{Shares: minted, Timestamp: now})
	user.StakingShares = new(big.Int).Add(user.StakingShares, minted)
	e.totalStakingShares = new(big.Int).Add(e.totalStakingShares, minted)

	total := e.totalStakedForLocked(user)
	e.sink.EmitStaked(beneficiary, amount, total, data)
	return nil
}
