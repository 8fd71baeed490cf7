package geyserstore

import (
	"context"
	"math/big"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return &Store{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestStore_LoadSnapshot_NoRowsReturnsNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectQuery("SELECT total_staking_shares").WillReturnRows(
		sqlmock.NewRows([]string{
			"total_staking_shares", "total_locked_shares", "total_unlocked_shares",
			"total_staking_share_seconds", "last_accounting_ts",
		}),
	)

	_, found, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_LoadSnapshot_Found(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectQuery("SELECT total_staking_shares").WillReturnRows(
		sqlmock.NewRows([]string{
			"total_staking_shares", "total_locked_shares", "total_unlocked_shares",
			"total_staking_share_seconds", "last_accounting_ts",
		}).AddRow("500000000000000", "1000000000000000000", "0", "1576800000000000000000", int64(31536000)),
	)

	mock.ExpectQuery("SELECT address, staking_shares").WillReturnRows(
		sqlmock.NewRows([]string{"address", "staking_shares", "staking_share_seconds", "last_accounting_ts_user"}).
			AddRow("userA", "50000000000000", "1576800000000000000000", int64(31536000)),
	)

	mock.ExpectQuery("SELECT shares, timestamp FROM geyser_stakes").
		WithArgs("userA").
		WillReturnRows(sqlmock.NewRows([]string{"shares", "timestamp"}).AddRow("50000000000000", int64(0)))

	mock.ExpectQuery("SELECT initial_locked_shares").WillReturnRows(
		sqlmock.NewRows([]string{"initial_locked_shares", "unlocked_shares", "last_unlock_ts", "end_ts", "duration_seconds"}).
			AddRow("100000000000000000", "100000000000000000", int64(31536000), int64(31536000), int64(31536000)),
	)

	state, found, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.True(t, found)

	assert.Zero(t, state.TotalStakingShares.Cmp(big.NewInt(500000000000000)))
	require.Contains(t, state.Users, geyser.Address("userA"))
	assert.Len(t, state.Users["userA"].Stakes, 1)
	require.Len(t, state.Schedules, 1)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveSnapshot(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO geyser_global_state").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM geyser_stakes").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM geyser_users").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM geyser_unlock_schedules").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO geyser_users").WithArgs("userA", "50000000000000", "0", int64(0)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO geyser_stakes").
		WithArgs("userA", "50000000000000", int64(0), 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	state := geyser.EngineState{
		TotalStakingShares:       big.NewInt(50000000000000),
		TotalLockedShares:        big.NewInt(0),
		TotalUnlockedShares:      big.NewInt(0),
		TotalStakingShareSeconds: big.NewInt(0),
		LastAccountingTs:         0,
		Users: map[geyser.Address]geyser.UserTotals{
			"userA": {
				StakingShares:           big.NewInt(50000000000000),
				StakingShareSeconds:     big.NewInt(0),
				LastAccountingTsForUser: 0,
				Stakes:                  []geyser.Stake{{Shares: big.NewInt(50000000000000), Timestamp: 0}},
			},
		},
	}

	err := s.SaveSnapshot(context.Background(), state)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveSnapshot_RollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	defer s.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO geyser_global_state").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.SaveSnapshot(context.Background(), geyser.EngineState{
		TotalStakingShares:       big.NewInt(0),
		TotalLockedShares:        big.NewInt(0),
		TotalUnlockedShares:      big.NewInt(0),
		TotalStakingShareSeconds: big.NewInt(0),
	})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
