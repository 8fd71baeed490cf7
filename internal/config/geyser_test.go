package config_test

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ham-Protocol/ham-geyser/internal/config"
)

func TestLoadGeyserConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"GEYSER_START_BONUS_PERMILLE", "GEYSER_BONUS_PERIOD_SECONDS",
		"GEYSER_MAX_UNLOCK_SCHEDULES", "GEYSER_INITIAL_SHARES_PER_TOKEN",
	} {
		os.Unsetenv(key)
	}

	cfg := config.LoadGeyserConfig()
	assert.Equal(t, int64(50), cfg.StartBonusPermille)
	assert.Equal(t, int64(86400), cfg.BonusPeriodSeconds)
	assert.Equal(t, 5, cfg.MaxUnlockSchedules)
	assert.Zero(t, cfg.InitialSharesPerToken.Cmp(big.NewInt(1_000_000)))
}

func TestLoadGeyserConfig_ReadsEnvOverrides(t *testing.T) {
	t.Setenv("GEYSER_START_BONUS_PERMILLE", "75")
	t.Setenv("GEYSER_MAX_UNLOCK_SCHEDULES", "10")

	cfg := config.LoadGeyserConfig()
	assert.Equal(t, int64(75), cfg.StartBonusPermille)
	assert.Equal(t, 10, cfg.MaxUnlockSchedules)
}

func TestLoadGeyserConfigFromFile_MissingFileFallsBackToEnv(t *testing.T) {
	cfg, err := config.LoadGeyserConfigFromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, int64(50), cfg.StartBonusPermille)
}

func TestLoadGeyserConfigFromFile_OverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geyser.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
start_bonus_permille: 80
bonus_period_seconds: 172800
`), 0o644))

	cfg, err := config.LoadGeyserConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(80), cfg.StartBonusPermille)
	assert.Equal(t, int64(172800), cfg.BonusPeriodSeconds)
	assert.Equal(t, 5, cfg.MaxUnlockSchedules)
}
