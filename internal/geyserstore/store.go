// Package geyserstore persists a geyser.Engine's accounting state
// to Postgres so a process can restart without losing
// share-seconds history, and applies schema migrations. Grounded on
// a direct-SQL repository style (QueryRowContext/Scan,
// sql.ErrNoRows, %w-wrapped errors) plus golang-migrate for schema
// migrations.
package geyserstore

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/Ham-Protocol/ham-geyser/internal/geyser"
)

// Store is the Postgres-backed repository for one geyser's accounting
// state.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres at dsn and returns a Store.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("geyserstore: failed to connect: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies every pending migration under migrationsPath.
func Migrate(dsn, migrationsPath string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("geyserstore: failed to open for migration: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("geyserstore: failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	if err != nil {
		return fmt.Errorf("geyserstore: failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("geyserstore: failed to run migrations: %w", err)
	}
	return nil
}

// LoadSnapshot reads the persisted engine state. The bool result is
// false when no snapshot has ever been saved (a fresh geyser).
func (s *Store) LoadSnapshot(ctx context.Context) (geyser.EngineState, bool, error) {
	var state geyser.EngineState

	row := s.db.QueryRowxContext(ctx, `
		SELECT total_staking_shares, total_locked_shares, total_unlocked_shares,
		       total_staking_share_seconds, last_accounting_ts
		FROM geyser_global_state WHERE id = 1
	`)

	var totalStaking, totalLocked, totalUnlocked, totalShareSeconds string
	var lastTs int64
	err := row.Scan(&totalStaking, &totalLocked, &totalUnlocked, &totalShareSeconds, &lastTs)
	if err == sql.ErrNoRows {
		return state, false, nil
	}
	if err != nil {
		return state, false, fmt.Errorf("geyserstore: failed to load global state: %w", err)
	}

	state.TotalStakingShares = mustBigInt(totalStaking)
	state.TotalLockedShares = mustBigInt(totalLocked)
	state.TotalUnlockedShares = mustBigInt(totalUnlocked)
	state.TotalStakingShareSeconds = mustBigInt(totalShareSeconds)
	state.LastAccountingTs = lastTs

	users, err := s.loadUsers(ctx)
	if err != nil {
		return state, false, err
	}
	state.Users = users

	schedules, err := s.loadSchedules(ctx)
	if err != nil {
		return state, false, err
	}
	state.Schedules = schedules

	return state, true, nil
}

func (s *Store) loadUsers(ctx context.Context) (map[geyser.Address]geyser.UserTotals, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT address, staking_shares, staking_share_seconds, last_accounting_ts_user
		FROM geyser_users
	`)
	if err != nil {
		return nil, fmt.Errorf("geyserstore: failed to load users: %w", err)
	}
	defer rows.Close()

	users := make(map[geyser.Address]geyser.UserTotals)
	for rows.Next() {
		var addr, shares, shareSeconds string
		var lastTs int64
		if err := rows.Scan(&addr, &shares, &shareSeconds, &lastTs); err != nil {
			return nil, fmt.Errorf("geyserstore: failed to scan user: %w", err)
		}
		stakes, err := s.loadStakes(ctx, addr)
		if err != nil {
			return nil, err
		}
		users[geyser.Address(addr)] = geyser.UserTotals{
			StakingShares:           mustBigInt(shares),
			StakingShareSeconds:     mustBigInt(shareSeconds),
			LastAccountingTsForUser: lastTs,
			Stakes:                  stakes,
		}
	}
	return users, rows.Err()
}

func (s *Store) loadStakes(ctx context.Context, address string) ([]geyser.Stake, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT shares, timestamp FROM geyser_stakes WHERE address = $1 ORDER BY seq
	`, address)
	if err != nil {
		return nil, fmt.Errorf("geyserstore: failed to load stakes for %s: %w", address, err)
	}
	defer rows.Close()

	var stakes []geyser.Stake
	for rows.Next() {
		var shares string
		var ts int64
		if err := rows.Scan(&shares, &ts); err != nil {
			return nil, fmt.Errorf("geyserstore: failed to scan stake: %w", err)
		}
		stakes = append(stakes, geyser.Stake{Shares: mustBigInt(shares), Timestamp: ts})
	}
	return stakes, rows.Err()
}

func (s *Store) loadSchedules(ctx context.Context) ([]geyser.UnlockSchedule, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT initial_locked_shares, unlocked_shares, last_unlock_ts, end_ts, duration_seconds
		FROM geyser_unlock_schedules ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("geyserstore: failed to load schedules: %w", err)
	}
	defer rows.Close()

	var schedules []geyser.UnlockSchedule
	for rows.Next() {
		var initial, unlocked string
		var lastTs, endTs, duration int64
		if err := rows.Scan(&initial, &unlocked, &lastTs, &endTs, &duration); err != nil {
			return nil, fmt.Errorf("geyserstore: failed to scan schedule: %w", err)
		}
		schedules = append(schedules, geyser.UnlockSchedule{
			InitialLockedShares: mustBigInt(initial),
			UnlockedShares:      mustBigInt(unlocked),
			LastUnlockTs:        lastTs,
			EndTs:               endTs,
			DurationSeconds:     duration,
		})
	}
	return schedules, rows.Err()
}

// SaveSnapshot persists the full engine state, replacing whatever was
// previously stored. Runs inside one transaction so a crash mid-write
// never leaves a partially-updated snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, state geyser.EngineState) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("geyserstore: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO geyser_global_state
			(id, total_staking_shares, total_locked_shares, total_unlocked_shares, total_staking_share_seconds, last_accounting_ts, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			total_staking_shares = EXCLUDED.total_staking_shares,
			total_locked_shares = EXCLUDED.total_locked_shares,
			total_unlocked_shares = EXCLUDED.total_unlocked_shares,
			total_staking_share_seconds = EXCLUDED.total_staking_share_seconds,
			last_accounting_ts = EXCLUDED.last_accounting_ts,
			updated_at = now()
	`,
		bigIntString(state.TotalStakingShares),
		bigIntString(state.TotalLockedShares),
		bigIntString(state.TotalUnlockedShares),
		bigIntString(state.TotalStakingShareSeconds),
		state.LastAccountingTs,
	)
	if err != nil {
		return fmt.Errorf("geyserstore: failed to upsert global state: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM geyser_stakes`); err != nil {
		return fmt.Errorf("geyserstore: failed to clear stakes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM geyser_users`); err != nil {
		return fmt.Errorf("geyserstore: failed to clear users: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM geyser_unlock_schedules`); err != nil {
		return fmt.Errorf("geyserstore: failed to clear schedules: %w", err)
	}

	for addr, u := range state.Users {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO geyser_users (address, staking_shares, staking_share_seconds, last_accounting_ts_user)
			VALUES ($1, $2, $3, $4)
		`, string(addr), bigIntString(u.StakingShares), bigIntString(u.StakingShareSeconds), u.LastAccountingTsForUser)
		if err != nil {
			return fmt.Errorf("geyserstore: failed to insert user %s: %w", addr, err)
		}

		for seq, st := range u.Stakes {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO geyser_stakes (address, shares, timestamp, seq)
				VALUES ($1, $2, $3, $4)
			`, string(addr), bigIntString(st.Shares), st.Timestamp, seq)
			if err != nil {
				return fmt.Errorf("geyserstore: failed to insert stake for %s: %w", addr, err)
			}
		}
	}

	for seq, sched := range state.Schedules {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO geyser_unlock_schedules
				(initial_locked_shares, unlocked_shares, last_unlock_ts, end_ts, duration_seconds, seq)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
			bigIntString(sched.InitialLockedShares),
			bigIntString(sched.UnlockedShares),
			sched.LastUnlockTs,
			sched.EndTs,
			sched.DurationSeconds,
			seq,
		)
		if err != nil {
			return fmt.Errorf("geyserstore: failed to insert schedule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("geyserstore: failed to commit snapshot: %w", err)
	}
	return nil
}

func bigIntString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func mustBigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}
