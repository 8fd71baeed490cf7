package geyser

import "math/big"

// TotalStaked returns the current pool balance of the staking asset
// A pure function of current state and the live
// balance_of reading, safe to call concurrently without the engine
// mutex.
func (e *Engine) TotalStaked() *big.Int {
	return e.stakingAsset.BalanceOf(e.stakingPool)
}

// TotalStakedFor returns user.staking_shares * total_staked /
// total_staking_shares, or zero for an unknown user.
func (e *Engine) TotalStakedFor(user Address) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	u, ok := e.users[user]
	if !ok {
		return big.NewInt(0)
	}
	return e.totalStakedForLocked(u)
}

// totalStakedForLocked is the shared implementation; caller must hold
// e.mu.
func (e *Engine) totalStakedForLocked(u *UserTotals) *big.Int {
	if e.totalStakingShares.Sign() == 0 {
		return big.NewInt(0)
	}
	total := e.stakingAsset.BalanceOf(e.stakingPool)
	return burnValue(u.StakingShares, e.totalStakingShares, total)
}

// TotalLocked returns the distribution-pool balance attributable to
// total_locked_shares: pool balance scaled by
// total_locked_shares / total distribution shares.
func (e *Engine) TotalLocked() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.distPoolShareValueLocked(e.totalLockedShares)
}

// TotalUnlocked mirrors TotalLocked for total_unlocked_shares.
func (e *Engine) TotalUnlocked() *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.distPoolShareValueLocked(e.totalUnlockedShares)
}

func (e *Engine) distPoolShareValueLocked(shares *big.Int) *big.Int {
	totalDistShares := totalDistributionShares(e.totalLockedShares, e.totalUnlockedShares)
	if totalDistShares.Sign() == 0 {
		return big.NewInt(0)
	}
	poolBalance := e.distributionAsset.BalanceOf(e.distributionPool)
	return distributionShareValue(shares, totalDistShares, poolBalance)
}

// UnlockScheduleCount returns the number of schedules ever appended,
// including fully-unlocked inert ones.
func (e *Engine) UnlockScheduleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.schedules)
}

// UnlockScheduleView is the read-only projection of an UnlockSchedule
// returned by introspection.
type UnlockScheduleView struct {
	InitialLockedShares *big.Int
	UnlockedShares      *big.Int
	LastUnlockTs        int64
	EndTs               int64
	DurationSeconds     int64
}

// UnlockSchedules returns a snapshot of the schedule at index i, or
// false if the index is out of range.
func (e *Engine) UnlockSchedules(i int) (UnlockScheduleView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.schedules) {
		return UnlockScheduleView{}, false
	}
	s := e.schedules[i]
	return UnlockScheduleView{
		InitialLockedShares: new(big.Int).Set(s.InitialLockedShares),
		UnlockedShares:      new(big.Int).Set(s.UnlockedShares),
		LastUnlockTs:        s.LastUnlockTs,
		EndTs:                s.EndTs,
		DurationSeconds:     s.DurationSeconds,
	}, true
}
