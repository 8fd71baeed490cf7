package geyser

import "math/big"

// WithdrawalResult reports what a settled withdrawal actually paid
// out, so callers (metrics, HTTP responses) can observe it instead of
// re-deriving it.
type WithdrawalResult struct {
	// RewardAmount is the bonus-scaled distribution-asset amount paid
	// to the caller.
	RewardAmount *big.Int
	// ForfeitedRewardShares is the distribution-share-denominated
	// entitlement given up to the early-withdrawal bonus discount:
	// the raw (unbonused) reward shares minus the bonused shares
	// actually deducted from total_unlocked_shares.
	ForfeitedRewardShares *big.Int
	// BonusFactor is the realized weighted-average bonus multiplier
	// across every LIFO slice consumed by this withdrawal
	// (bonused_amount / unbonused_amount), 1.0 when nothing was
	// forfeited (empty withdrawal or the bonus period had fully
	// elapsed for every slice).
	BonusFactor float64
}

// Unstake withdraws `amount` of the staking asset for the caller,
// paying out the LIFO, bonus-scaled reward entitlement computed
// against it.
func (e *Engine) Unstake(now int64, caller Address, amount *big.Int, data []byte) (*WithdrawalResult, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	user, ok := e.users[caller]
	if !ok {
		return nil, ErrUnstakeExceedsBalance
	}
	e.refreshLocked(now, user)

	staked := e.totalStakedForLocked(user)
	if amount.Cmp(staked) > 0 {
		return nil, ErrUnstakeExceedsBalance
	}

	poolBalance := e.stakingAsset.BalanceOf(e.stakingPool)
	burnShares := sharesToBurn(amount, e.totalStakingShares, poolBalance)
	if burnShares.Sign() == 0 {
		return nil, ErrUnstakeTooSmall
	}

	result, rewardShares := e.settleWithdrawalLocked(now, user, burnShares)

	user.StakingShares = new(big.Int).Sub(user.StakingShares, burnShares)
	e.totalStakingShares = new(big.Int).Sub(e.totalStakingShares, burnShares)
	e.totalUnlockedShares = new(big.Int).Sub(e.totalUnlockedShares, rewardShares)

	if err := e.stakingAsset.Transfer(caller, amount); err != nil {
		return nil, err
	}
	if result.RewardAmount.Sign() > 0 {
		if err := e.distributionAsset.Transfer(caller, result.RewardAmount); err != nil {
			return nil, err
		}
	}

	total := e.totalStakedForLocked(user)
	e.sink.EmitUnstaked(caller, amount, total, data)
	if result.RewardAmount.Sign() > 0 {
		e.sink.EmitTokensClaimed(caller, result.RewardAmount)
	}
	return result, nil
}

// UnstakeQuery performs the same withdrawal computation as Unstake
// against a snapshot without mutating engine state, returning the
// reward amount that Unstake(amount) would pay out right now.
func (e *Engine) UnstakeQuery(now int64, caller Address, amount *big.Int) (*big.Int, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.users[caller]; !ok {
		return nil, ErrUnstakeExceedsBalance
	}

	// Deep-copy the engine's mutable accounting state so the
	// simulation below can run refresh() and the withdrawal exactly
	// like Unstake without touching the live state.
	snapshotEngine := e.cloneForQueryLocked()
	snapshotUser := snapshotEngine.users[caller]

	snapshotEngine.refreshLocked(now, snapshotUser)

	staked := snapshotEngine.totalStakedForLocked(snapshotUser)
	if amount.Cmp(staked) > 0 {
		return nil, ErrUnstakeExceedsBalance
	}

	poolBalance := snapshotEngine.stakingAsset.BalanceOf(snapshotEngine.stakingPool)
	burnShares := sharesToBurn(amount, snapshotEngine.totalStakingShares, poolBalance)
	if burnShares.Sign() == 0 {
		return nil, ErrUnstakeTooSmall
	}

	result, _ := snapshotEngine.settleWithdrawalLocked(now, snapshotUser, burnShares)
	return result.RewardAmount, nil
}

// settleWithdrawalLocked traverses user.Stakes last-in-first-out,
// consuming burnShares total, and returns the settled WithdrawalResult
// and the bonused distribution shares to deduct from
// total_unlocked_shares. Caller must hold the
// relevant engine's mutex; this mutates user.Stakes, user's and the
// engine's share-seconds accumulators, but not the share/pool totals
// themselves (the caller applies those after this returns).
func (e *Engine) settleWithdrawalLocked(now int64, user *UserTotals, burnShares *big.Int) (result *WithdrawalResult, rewardShares *big.Int) {
	rewardAmount := big.NewInt(0)
	rewardShares = big.NewInt(0)
	rawRewardSharesTotal := big.NewInt(0)
	unbonusedTotal := big.NewInt(0)

	totalDistShares := totalDistributionShares(e.totalLockedShares, e.totalUnlockedShares)
	distPoolBalance := e.distributionAsset.BalanceOf(e.distributionPool)

	remaining := new(big.Int).Set(burnShares)
	idx := len(user.Stakes) - 1
	for idx >= 0 && remaining.Sign() > 0 {
		s := &user.Stakes[idx]

		var slice *big.Int
		fullyConsumed := s.Shares.Cmp(remaining) <= 0
		if fullyConsumed {
			slice = new(big.Int).Set(s.Shares)
			remaining.Sub(remaining, slice)
			s.Shares = big.NewInt(0)
		} else {
			slice = new(big.Int).Set(remaining)
			s.Shares = new(big.Int).Sub(s.Shares, slice)
			remaining = big.NewInt(0)
		}

		stakeTimeSec := now - s.Timestamp
		if stakeTimeSec < 0 {
			stakeTimeSec = 0
		}
		slicedShareSeconds := new(big.Int).Mul(slice, big.NewInt(stakeTimeSec))

		var rawRewardShares *big.Int
		if e.totalStakingShareSeconds.Sign() > 0 {
			rawRewardShares = new(big.Int).Mul(e.totalUnlockedShares, slicedShareSeconds)
			rawRewardShares.Div(rawRewardShares, e.totalStakingShareSeconds)
		} else {
			rawRewardShares = big.NewInt(0)
		}

		user.StakingShareSeconds = new(big.Int).Sub(user.StakingShareSeconds, slicedShareSeconds)
		e.totalStakingShareSeconds = new(big.Int).Sub(e.totalStakingShareSeconds, slicedShareSeconds)

		if rawRewardShares.Sign() > 0 && totalDistShares.Sign() > 0 {
			rawRewardSharesTotal.Add(rawRewardSharesTotal, rawRewardShares)

			unbonused := distributionShareValue(rawRewardShares, totalDistShares, distPoolBalance)
			bonused := applyBonus(unbonused, e.cfg.StartBonusPermille, e.cfg.BonusPeriodSeconds, stakeTimeSec)
			bonusedShares := amountToShares(bonused, totalDistShares, distPoolBalance)

			unbonusedTotal.Add(unbonusedTotal, unbonused)
			rewardAmount.Add(rewardAmount, bonused)
			rewardShares.Add(rewardShares, bonusedShares)
		}

		if fullyConsumed {
			user.Stakes = append(user.Stakes[:idx], user.Stakes[idx+1:]...)
		}
		idx--
	}

	forfeitedRewardShares := new(big.Int).Sub(rawRewardSharesTotal, rewardShares)
	if forfeitedRewardShares.Sign() < 0 {
		forfeitedRewardShares = big.NewInt(0)
	}

	bonusFactor := 1.0
	if unbonusedTotal.Sign() > 0 {
		num := new(big.Float).SetInt(rewardAmount)
		den := new(big.Float).SetInt(unbonusedTotal)
		bonusFactor, _ = new(big.Float).Quo(num, den).Float64()
	}

	return &WithdrawalResult{
		RewardAmount:          rewardAmount,
		ForfeitedRewardShares: forfeitedRewardShares,
		BonusFactor:           bonusFactor,
	}, rewardShares
}

// cloneForQueryLocked returns a deep copy of the engine's mutable
// accounting state sufficient to run refreshLocked and
// settleWithdrawalLocked without aliasing the live state. The asset
// ledgers, owner, and event sink are shared by reference since
// UnstakeQuery never writes through them.
func (e *Engine) cloneForQueryLocked() *Engine {
	clone := &Engine{
		cfg:                      e.cfg,
		stakingAsset:             e.stakingAsset,
		distributionAsset:        e.distributionAsset,
		stakingPool:              e.stakingPool,
		distributionPool:         e.distributionPool,
		owner:                    e.owner,
		sink:                     nullSink{},
		totalStakingShares:       new(big.Int).Set(e.totalStakingShares),
		totalLockedShares:        new(big.Int).Set(e.totalLockedShares),
		totalUnlockedShares:      new(big.Int).Set(e.totalUnlockedShares),
		totalStakingShareSeconds: new(big.Int).Set(e.totalStakingShareSeconds),
		lastAccountingTs:         e.lastAccountingTs,
		users:                    make(map[Address]*UserTotals, len(e.users)),
		schedules:                make([]*UnlockSchedule, len(e.schedules)),
	}
	for addr, u := range e.users {
		clone.users[addr] = cloneUserTotals(u)
	}
	for i, s := range e.schedules {
		clone.schedules[i] = &UnlockSchedule{
			InitialLockedShares: new(big.Int).Set(s.InitialLockedShares),
			UnlockedShares:      new(big.Int).Set(s.UnlockedShares),
			LastUnlockTs:        s.LastUnlockTs,
			EndTs:                s.EndTs,
			DurationSeconds:     s.DurationSeconds,
		}
	}
	return clone
}

func cloneUserTotals(u *UserTotals) *UserTotals {
	clone := &UserTotals{
		StakingShares:           new(big.Int).Set(u.StakingShares),
		StakingShareSeconds:     new(big.Int).Set(u.StakingShareSeconds),
		LastAccountingTsForUser: u.LastAccountingTsForUser,
		Stakes:                  make([]Stake, len(u.Stakes)),
	}
	for i, st := range u.Stakes {
		clone.Stakes[i] = Stake{Shares: new(big.Int).Set(st.Shares), Timestamp: st.Timestamp}
	}
	return clone
}
