package geyser

import "math/big"

// NewEngine constructs the geyser. stakingPool and
// distributionPool are the addresses the engine reads balance_of
// against and transfers to/from; they may be the same address when
// the staking and distribution assets are identical.
func NewEngine(
	cfg Config,
	stakingAsset, distributionAsset AssetLedger,
	stakingPool, distributionPool Address,
	owner OwnerSource,
	sink EventSink,
	now int64,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.InitialSharesPerToken == nil || cfg.InitialSharesPerToken.Sign() <= 0 {
		cfg.InitialSharesPerToken = big.NewInt(1)
	}
	if cfg.MaxUnlockSchedules <= 0 {
		cfg.MaxUnlockSchedules = 5
	}
	if sink == nil {
		sink = nullSink{}
	}

	return &Engine{
		cfg:                      cfg,
		stakingAsset:             stakingAsset,
		distributionAsset:        distributionAsset,
		stakingPool:              stakingPool,
		distributionPool:         distributionPool,
		owner:                    owner,
		sink:                     sink,
		totalStakingShares:       big.NewInt(0),
		totalLockedShares:        big.NewInt(0),
		totalUnlockedShares:      big.NewInt(0),
		totalStakingShareSeconds: big.NewInt(0),
		lastAccountingTs:         now,
		users:                    make(map[Address]*UserTotals),
		schedules:                nil,
	}, nil
}
