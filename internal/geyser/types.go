// Package geyser implements the continuous-vesting token distribution
// engine: a dual share-accounting core that converts a rebasing staking
// asset into fixed internal shares, accumulates time-weighted
// share-seconds, evaluates linear unlock schedules, and computes
// LIFO, bonus-scaled rewards on withdrawal.
package geyser

import (
	"math/big"
	"sync"
)

// Address identifies a holder in the staking/distribution asset
// ledgers. The engine never interprets the bytes; it only forwards
// them to the AssetLedger interface.
type Address string

// NullAddress is the sentinel beneficiary that stake/stake_for reject.
const NullAddress Address = ""

// Stake is a single deposit entry in a user's stake journal. Entries
// are appended on stake, consumed last-in-first-out on unstake.
type Stake struct {
	Shares    *big.Int
	Timestamp int64
}

// UserTotals is the per-user accounting record.
type UserTotals struct {
	StakingShares            *big.Int
	StakingShareSeconds      *big.Int
	LastAccountingTsForUser  int64
	Stakes                   []Stake
}

func newUserTotals(now int64) *UserTotals {
	return &UserTotals{
		StakingShares:           big.NewInt(0),
		StakingShareSeconds:     big.NewInt(0),
		LastAccountingTsForUser: now,
		Stakes:                  nil,
	}
}

// UnlockSchedule is a linear-release specification for a quantity of
// distribution shares over a duration.
type UnlockSchedule struct {
	InitialLockedShares *big.Int
	UnlockedShares      *big.Int
	LastUnlockTs        int64
	EndTs               int64
	DurationSeconds     int64
}

// Config holds the immutable construction parameters.
type Config struct {
	// InitialSharesPerToken is the share multiplier used when a pool
	// (staking or distribution) is empty.
	InitialSharesPerToken *big.Int

	// StartBonusPermille is the minimum reward fraction, as a percent
	// in [0,100], applied at the instant of staking.
	StartBonusPermille int64

	// BonusPeriodSeconds is the time after staking at which the bonus
	// factor reaches 100%.
	BonusPeriodSeconds int64

	// MaxUnlockSchedules bounds the number of schedules lock_tokens
	// may append.
	MaxUnlockSchedules int
}

// Validate applies the construction-time checks.
func (c Config) Validate() error {
	if c.StartBonusPermille < 0 || c.StartBonusPermille > 100 {
		return ErrStartBonusTooHigh
	}
	if c.BonusPeriodSeconds <= 0 {
		return ErrBonusPeriodZero
	}
	return nil
}

// AssetLedger is the external collaborator interface consumed for
// both the staking asset and the distribution asset. Engine
// code never inspects rebase events directly; it always reads the
// live pool balance.
type AssetLedger interface {
	TransferFrom(from, to Address, amount *big.Int) error
	Transfer(to Address, amount *big.Int) error
	BalanceOf(addr Address) *big.Int
	TotalSupply() *big.Int
}

// EventSink is a write-only append interface.
// Emission failure is not anticipated and is therefore not surfaced
// as an error from engine operations.
type EventSink interface {
	EmitStaked(user Address, amount, total *big.Int, data []byte)
	EmitUnstaked(user Address, amount, total *big.Int, data []byte)
	EmitTokensClaimed(user Address, amount *big.Int)
	EmitTokensLocked(amount, totalLocked *big.Int, durationSeconds int64)
	EmitTokensUnlocked(amount, totalUnlocked *big.Int)
	EmitOwnershipTransferred(previousOwner, newOwner Address)
}

// OwnerSource abstracts the access-control substrate:
// a single owner role that lock_tokens and ownership-transfer
// operations authorize against.
type OwnerSource interface {
	Owner() Address
}

// Engine is the single long-lived, mutex-serialized state machine
// Every public method is an atomic unit: it
// either applies entirely or returns an error with state unchanged.
type Engine struct {
	mu sync.Mutex

	cfg Config

	stakingAsset      AssetLedger
	distributionAsset AssetLedger
	stakingPool       Address
	distributionPool  Address

	owner OwnerSource
	sink  EventSink

	totalStakingShares       *big.Int
	totalLockedShares        *big.Int
	totalUnlockedShares      *big.Int
	totalStakingShareSeconds *big.Int
	lastAccountingTs         int64

	users     map[Address]*UserTotals
	schedules []*UnlockSchedule
}

// nullSink discards every event; used when the caller does not wire a
// real sink, a no-op default.
type nullSink struct{}

func (nullSink) EmitStaked(Address, *big.Int, *big.Int, []byte)          {}
func (nullSink) EmitUnstaked(Address, *big.Int, *big.Int, []byte)        {}
func (nullSink) EmitTokensClaimed(Address, *big.Int)                     {}
func (nullSink) EmitTokensLocked(*big.Int, *big.Int, int64)              {}
func (nullSink) EmitTokensUnlocked(*big.Int, *big.Int)                   {}
func (nullSink) EmitOwnershipTransferred(Address, Address)                {}
