package geyser

import "math/big"

// evaluateSchedule advances one unlock schedule to `now` and returns
// the number of distribution shares newly released.
//
//	if now >= end_ts:  delta = L - U                (flush remainder)
//	else:              delta = L * (now - t0) / D   (linear, truncating)
//
// The remainder branch exists because integer division truncates:
// summing per-tick linear increments would leave dust permanently
// locked, so full-duration evaluation always releases exactly what
// remains.
func evaluateSchedule(s *UnlockSchedule, now int64) *big.Int {
	if s.UnlockedShares.Cmp(s.InitialLockedShares) >= 0 {
		s.LastUnlockTs = now
		if s.LastUnlockTs > s.EndTs {
			s.LastUnlockTs = s.EndTs
		}
		return big.NewInt(0)
	}

	var delta *big.Int
	if now >= s.EndTs {
		delta = new(big.Int).Sub(s.InitialLockedShares, s.UnlockedShares)
	} else {
		elapsed := now - s.LastUnlockTs
		if elapsed <= 0 {
			return big.NewInt(0)
		}
		delta = new(big.Int).Mul(s.InitialLockedShares, big.NewInt(elapsed))
		delta.Div(delta, big.NewInt(s.DurationSeconds))
	}

	s.UnlockedShares = new(big.Int).Add(s.UnlockedShares, delta)
	s.LastUnlockTs = now
	if s.LastUnlockTs > s.EndTs {
		s.LastUnlockTs = s.EndTs
	}
	return delta
}
