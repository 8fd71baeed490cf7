package geyser

import "math/big"

// LockTokens appends a new unlock schedule releasing `amount` of the
// distribution asset linearly over durationSeconds. Owner-only.
func (e *Engine) LockTokens(now int64, caller Address, amount *big.Int, durationSeconds int64) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner.Owner() {
		return ErrNotOwner
	}
	if len(e.schedules) >= e.cfg.MaxUnlockSchedules {
		return ErrScheduleLimit
	}

	e.refreshLocked(now, nil)

	totalDistShares := totalDistributionShares(e.totalLockedShares, e.totalUnlockedShares)
	distPoolBalance := e.distributionAsset.BalanceOf(e.distributionPool)
	minted := mintDistributionShares(amount, totalDistShares, distPoolBalance, e.cfg.InitialSharesPerToken)

	if err := e.distributionAsset.TransferFrom(caller, e.distributionPool, amount); err != nil {
		return err
	}

	e.schedules = append(e.schedules, &UnlockSchedule{
		InitialLockedShares: minted,
		UnlockedShares:      big.NewInt(0),
		LastUnlockTs:        now,
		EndTs:                now + durationSeconds,
		DurationSeconds:     durationSeconds,
	})
	e.totalLockedShares = new(big.Int).Add(e.totalLockedShares, minted)

	totalLockedAmount := e.distPoolShareValueLocked(e.totalLockedShares)
	e.sink.EmitTokensLocked(amount, totalLockedAmount, durationSeconds)
	return nil
}
