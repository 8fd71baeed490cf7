package geyser

import "math/big"

// refreshLocked advances the accounting accumulators, invoked at the
// start of every stake, unstake, and read-only accounting query. The
// caller must already hold e.mu. `user` is nil for operations with no
// associated caller (e.g. lock_tokens).
//
// Order of operations matters: schedules unlock before share-seconds
// advance, and the global accumulator advances before the per-user
// one.
func (e *Engine) refreshLocked(now int64, user *UserTotals) {
	unlockedThisTick := big.NewInt(0)
	for _, s := range e.schedules {
		delta := evaluateSchedule(s, now)
		unlockedThisTick.Add(unlockedThisTick, delta)
	}
	if unlockedThisTick.Sign() > 0 {
		e.totalLockedShares.Sub(e.totalLockedShares, unlockedThisTick)
		e.totalUnlockedShares.Add(e.totalUnlockedShares, unlockedThisTick)
		e.sink.EmitTokensUnlocked(e.distPoolShareValueLocked(unlockedThisTick), e.distPoolShareValueLocked(e.totalUnlockedShares))
	}

	deltaGlobal := now - e.lastAccountingTs
	if deltaGlobal > 0 {
		add := new(big.Int).Mul(e.totalStakingShares, big.NewInt(deltaGlobal))
		e.totalStakingShareSeconds.Add(e.totalStakingShareSeconds, add)
	}
	e.lastAccountingTs = now

	if user != nil {
		deltaUser := now - user.LastAccountingTsForUser
		if deltaUser > 0 {
			add := new(big.Int).Mul(user.StakingShares, big.NewInt(deltaUser))
			user.StakingShareSeconds.Add(user.StakingShareSeconds, add)
		}
		user.LastAccountingTsForUser = now
	}
}

// AccountingSnapshot is the read-only result of update_accounting.
type AccountingSnapshot struct {
	TotalLocked       *big.Int
	TotalUnlocked     *big.Int
	UserShareSeconds  *big.Int
	TotalShareSeconds *big.Int
	RewardEntitlement *big.Int
	Now               int64
}

// UpdateAccounting runs refresh() for the given user (if any) and
// returns the resulting totals.
func (e *Engine) UpdateAccounting(now int64, caller Address) AccountingSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	var user *UserTotals
	if caller != NullAddress {
		user = e.userOrCreateLocked(caller, now)
	}
	e.refreshLocked(now, user)

	snap := AccountingSnapshot{
		TotalLocked:       e.distPoolShareValueLocked(e.totalLockedShares),
		TotalUnlocked:     e.distPoolShareValueLocked(e.totalUnlockedShares),
		TotalShareSeconds: new(big.Int).Set(e.totalStakingShareSeconds),
		Now:               now,
	}
	if user != nil {
		snap.UserShareSeconds = new(big.Int).Set(user.StakingShareSeconds)
		snap.RewardEntitlement = e.rewardEntitlementLocked(user)
	} else {
		snap.UserShareSeconds = big.NewInt(0)
		snap.RewardEntitlement = big.NewInt(0)
	}
	return snap
}

// rewardEntitlementLocked estimates the distribution-asset amount the
// user would currently be entitled to if every accumulated
// share-second were realized against the unlocked pool, ignoring the
// early-withdrawal bonus (it is a read-only estimate for
// update_accounting, not a withdrawal). Caller must hold e.mu.
func (e *Engine) rewardEntitlementLocked(user *UserTotals) *big.Int {
	if e.totalStakingShareSeconds.Sign() == 0 {
		return big.NewInt(0)
	}
	rawRewardShares := new(big.Int).Mul(e.totalUnlockedShares, user.StakingShareSeconds)
	rawRewardShares.Div(rawRewardShares, e.totalStakingShareSeconds)

	totalDistShares := totalDistributionShares(e.totalLockedShares, e.totalUnlockedShares)
	if totalDistShares.Sign() == 0 {
		return big.NewInt(0)
	}
	distPoolBalance := e.distributionAsset.BalanceOf(e.distributionPool)
	return distributionShareValue(rawRewardShares, totalDistShares, distPoolBalance)
}

// userOrCreateLocked returns the user's record, lazily creating it on
// first contact. Caller must hold e.mu.
func (e *Engine) userOrCreateLocked(addr Address, now int64) *UserTotals {
	u, ok := e.users[addr]
	if !ok {
		u = newUserTotals(now)
		e.users[addr] = u
	}
	return u
}
