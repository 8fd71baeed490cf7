package config

import (
	"math/big"
	"os"

	"gopkg.in/yaml.v3"
)

// geyserYAMLOverlay mirrors GeyserConfig's static tunables for an
// optional on-disk config file. Connection strings and addresses stay
// environment-only; this overlay exists for the values an operator
// wants checked into a deploy repo rather than set per-process.
type geyserYAMLOverlay struct {
	StartBonusPermille    *int64 `yaml:"start_bonus_permille"`
	BonusPeriodSeconds    *int64 `yaml:"bonus_period_seconds"`
	MaxUnlockSchedules    *int   `yaml:"max_unlock_schedules"`
	InitialSharesPerToken *int64 `yaml:"initial_shares_per_token"`
}

// LoadGeyserConfigFromFile loads environment defaults via
// LoadGeyserConfig, then overlays any tunables present in the YAML
// file at path. A missing file is not an error: it simply leaves the
// environment-derived defaults in place.
func LoadGeyserConfigFromFile(path string) (GeyserConfig, error) {
	cfg := LoadGeyserConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	var overlay geyserYAMLOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, err
	}

	if overlay.StartBonusPermille != nil {
		cfg.StartBonusPermille = *overlay.StartBonusPermille
	}
	if overlay.BonusPeriodSeconds != nil {
		cfg.BonusPeriodSeconds = *overlay.BonusPeriodSeconds
	}
	if overlay.MaxUnlockSchedules != nil {
		cfg.MaxUnlockSchedules = *overlay.MaxUnlockSchedules
	}
	if overlay.InitialSharesPerToken != nil {
		cfg.InitialSharesPerToken = big.NewInt(*overlay.InitialSharesPerToken)
	}

	return cfg, nil
}
