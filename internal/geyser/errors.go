package geyser

import "errors"

// Error taxonomy. Every public operation either applies
// entirely or returns one of these, leaving state unchanged.
var (
	// Input validation
	ErrZeroAmount       = errors.New("geyser: amount must be greater than zero")
	ErrBeneficiaryIsNull = errors.New("geyser: beneficiary must not be the null address")
	ErrStartBonusTooHigh = errors.New("geyser: start bonus permille must be <= 100")
	ErrBonusPeriodZero   = errors.New("geyser: bonus period seconds must be > 0")
	ErrScheduleLimit     = errors.New("geyser: max unlock schedules reached")

	// Resource
	ErrStakeTooSmall   = errors.New("geyser: stake amount mints zero shares")
	ErrUnstakeTooSmall = errors.New("geyser: unstake amount burns zero shares")

	// Balance
	ErrUnstakeExceedsBalance = errors.New("geyser: unstake amount exceeds staked balance")

	// Authorization
	ErrNotOwner = errors.New("geyser: caller is not the owner")
)
