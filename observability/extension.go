// Package observability provides a metrics extension for the accrual engine
// that records event counts and magnitudes through a caller-supplied
// MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/accrual/plugin"
	"github.com/xraph/accrual/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin             = (*MetricsExtension)(nil)
	_ plugin.OnInit             = (*MetricsExtension)(nil)
	_ plugin.OnRateChanged      = (*MetricsExtension)(nil)
	_ plugin.OnInterestSettled  = (*MetricsExtension)(nil)
	_ plugin.OnMinted           = (*MetricsExtension)(nil)
	_ plugin.OnBurned           = (*MetricsExtension)(nil)
	_ plugin.OnTransferred      = (*MetricsExtension)(nil)
	_ plugin.OnDeposited        = (*MetricsExtension)(nil)
	_ plugin.OnRedeemed         = (*MetricsExtension)(nil)
	_ plugin.OnRewardsDeposited = (*MetricsExtension)(nil)
	_ plugin.OnExcessWithdrawn  = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide accrual metrics.
// Register it as an engine plugin to automatically track ledger and vault
// activity.
type MetricsExtension struct {
	factory MetricFactory

	// Rate metrics
	RateChanges Counter
	CurrentRate Histogram

	// Ledger metrics
	Settlements      Counter
	InterestSettled  Histogram
	Mints            Counter
	Burns            Counter
	Transfers        Counter
	TransferredUnits Histogram

	// Vault metrics
	Deposits         Counter
	Redemptions      Counter
	DepositedAsset   Histogram
	RedeemedAsset    Histogram
	RewardsDeposited Counter
	ExcessWithdrawn  Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Rate metrics
		RateChanges: factory.Counter("accrual.rate.changes"),
		CurrentRate: factory.Histogram("accrual.rate.current"),

		// Ledger metrics
		Settlements:      factory.Counter("accrual.settlements"),
		InterestSettled:  factory.Histogram("accrual.interest.settled"),
		Mints:            factory.Counter("accrual.mints"),
		Burns:            factory.Counter("accrual.burns"),
		Transfers:        factory.Counter("accrual.transfers"),
		TransferredUnits: factory.Histogram("accrual.transfers.units"),

		// Vault metrics
		Deposits:         factory.Counter("accrual.vault.deposits"),
		Redemptions:      factory.Counter("accrual.vault.redemptions"),
		DepositedAsset:   factory.Histogram("accrual.vault.deposited_asset"),
		RedeemedAsset:    factory.Histogram("accrual.vault.redeemed_asset"),
		RewardsDeposited: factory.Counter("accrual.vault.rewards_deposited"),
		ExcessWithdrawn:  factory.Counter("accrual.vault.excess_withdrawn"),

		// Error metrics
		StoreErrors:  factory.Counter("accrual.store.errors"),
		PluginErrors: factory.Counter("accrual.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnRateChanged implements plugin.OnRateChanged.
func (m *MetricsExtension) OnRateChanged(_ context.Context, _, newRate types.Rate, _ string) error {
	m.RateChanges.Inc()
	m.CurrentRate.Observe(float64(newRate))
	return nil
}

// OnInterestSettled implements plugin.OnInterestSettled.
// Interest magnitudes are observed at full-unit scale, so 256-bit amounts
// collapse to float64 losslessly enough for a histogram.
func (m *MetricsExtension) OnInterestSettled(_ context.Context, _ string, interest, _ types.Units) error {
	m.Settlements.Inc()
	m.InterestSettled.Observe(approx(interest))
	return nil
}

// OnMinted implements plugin.OnMinted.
func (m *MetricsExtension) OnMinted(_ context.Context, _ string, _ types.Units, _ string) error {
	m.Mints.Inc()
	return nil
}

// OnBurned implements plugin.OnBurned.
func (m *MetricsExtension) OnBurned(_ context.Context, _ string, _ types.Units, _ string) error {
	m.Burns.Inc()
	return nil
}

// OnTransferred implements plugin.OnTransferred.
func (m *MetricsExtension) OnTransferred(_ context.Context, _, _ string, amount types.Units) error {
	m.Transfers.Inc()
	m.TransferredUnits.Observe(approx(amount))
	return nil
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposited implements plugin.OnDeposited.
func (m *MetricsExtension) OnDeposited(_ context.Context, _ string, assetIn, _ types.Units) error {
	m.Deposits.Inc()
	m.DepositedAsset.Observe(approx(assetIn))
	return nil
}

// OnRedeemed implements plugin.OnRedeemed.
func (m *MetricsExtension) OnRedeemed(_ context.Context, _ string, _, assetOut types.Units) error {
	m.Redemptions.Inc()
	m.RedeemedAsset.Observe(approx(assetOut))
	return nil
}

// OnRewardsDeposited implements plugin.OnRewardsDeposited.
func (m *MetricsExtension) OnRewardsDeposited(_ context.Context, _ string, _ types.Units) error {
	m.RewardsDeposited.Inc()
	return nil
}

// OnExcessWithdrawn implements plugin.OnExcessWithdrawn.
func (m *MetricsExtension) OnExcessWithdrawn(_ context.Context, _ string, _ types.Units) error {
	m.ExcessWithdrawn.Inc()
	return nil
}

// approx converts a Units value to float64 for histogram observation.
// Values beyond float64 range saturate, which is acceptable for metrics.
func approx(u types.Units) float64 {
	return u.Float64()
}
