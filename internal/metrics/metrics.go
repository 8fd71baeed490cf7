// Package metrics exposes the geyser engine's operational counters,
// histograms and gauges to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// GeyserMetrics holds every Prometheus collector the engine's HTTP
// surface records against.
type GeyserMetrics struct {
	StakesTotal   *prometheus.CounterVec
	UnstakesTotal *prometheus.CounterVec
	LocksTotal    prometheus.Counter
	RewardsPaid   *prometheus.CounterVec

	// ForfeitedRewardShares tracks the distribution shares an
	// early-withdrawing staker did not receive because the bonus
	// factor discounted their raw entitlement. These shares are not
	// burned; they remain in total_unlocked_shares for later stakers.
	ForfeitedRewardShares prometheus.Counter

	StakeAmount  prometheus.Histogram
	RewardAmount prometheus.Histogram
	BonusFactor  prometheus.Histogram

	TotalStaked     prometheus.Gauge
	TotalLocked     prometheus.Gauge
	TotalUnlocked   prometheus.Gauge
	UnlockSchedules prometheus.Gauge
}

// New creates and registers every geyser metric under namespace.
func New(namespace string, reg prometheus.Registerer) *GeyserMetrics {
	m := &GeyserMetrics{
		StakesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "stakes_total",
				Help:      "Total number of successful stake operations, by result.",
			},
			[]string{"result"},
		),
		UnstakesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "unstakes_total",
				Help:      "Total number of successful unstake operations, by result.",
			},
			[]string{"result"},
		),
		LocksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "lock_tokens_total",
				Help:      "Total number of unlock schedules created via lock_tokens.",
			},
		),
		RewardsPaid: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "rewards_paid_total",
				Help:      "Total distribution-asset amount paid out on unstake, by user.",
			},
			[]string{"user"},
		),
		ForfeitedRewardShares: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "reward_forfeited_shares_total",
				Help:      "Distribution shares withheld by the early-withdrawal bonus and returned to total_unlocked_shares.",
			},
		),
		StakeAmount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "stake_amount",
				Help:      "Distribution of staking-asset amounts deposited via stake/stake_for.",
				Buckets:   prometheus.ExponentialBuckets(1, 10, 10),
			},
		),
		RewardAmount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "reward_amount",
				Help:      "Distribution of distribution-asset reward amounts paid out on unstake.",
				Buckets:   prometheus.ExponentialBuckets(1, 10, 10),
			},
		),
		BonusFactor: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "bonus_factor",
				Help:      "Realized early-withdrawal bonus factor per successful unstake, weighted across its stake slices, in [start_bonus/100, 1].",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		TotalStaked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "total_staked",
				Help:      "Current staking-pool balance.",
			},
		),
		TotalLocked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "total_locked",
				Help:      "Distribution-asset value currently attributable to total_locked_shares.",
			},
		),
		TotalUnlocked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "total_unlocked",
				Help:      "Distribution-asset value currently attributable to total_unlocked_shares.",
			},
		),
		UnlockSchedules: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "unlock_schedules",
				Help:      "Number of unlock schedules ever created, including fully-drained ones.",
			},
		),
	}

	reg.MustRegister(
		m.StakesTotal,
		m.UnstakesTotal,
		m.LocksTotal,
		m.RewardsPaid,
		m.ForfeitedRewardShares,
		m.StakeAmount,
		m.RewardAmount,
		m.BonusFactor,
		m.TotalStaked,
		m.TotalLocked,
		m.TotalUnlocked,
		m.UnlockSchedules,
	)

	return m
}

// RecordStake records a stake outcome and, on success, its amount.
func (m *GeyserMetrics) RecordStake(result string, amountTokens float64) {
	m.StakesTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		m.StakeAmount.Observe(amountTokens)
	}
}

// RecordUnstake records an unstake outcome and, on success, the reward
// paid and the bonus factor realized (reward / unbonused_reward, where
// that ratio is 1 when the bonus period has fully elapsed).
func (m *GeyserMetrics) RecordUnstake(result, user string, rewardTokens, forfeitedShares, bonusFactor float64) {
	m.UnstakesTotal.WithLabelValues(result).Inc()
	if result != "ok" {
		return
	}
	m.RewardsPaid.WithLabelValues(user).Add(rewardTokens)
	m.RewardAmount.Observe(rewardTokens)
	m.ForfeitedRewardShares.Add(forfeitedShares)
	m.BonusFactor.Observe(bonusFactor)
}

// RecordLockTokens records a successful lock_tokens call.
func (m *GeyserMetrics) RecordLockTokens() {
	m.LocksTotal.Inc()
}

// SetGauges refreshes the point-in-time gauges from a current snapshot.
func (m *GeyserMetrics) SetGauges(totalStaked, totalLocked, totalUnlocked, unlockScheduleCount float64) {
	m.TotalStaked.Set(totalStaked)
	m.TotalLocked.Set(totalLocked)
	m.TotalUnlocked.Set(totalUnlocked)
	m.UnlockSchedules.Set(unlockScheduleCount)
}
