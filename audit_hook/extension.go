// Package audithook bridges accrual engine events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/accrual/plugin"
	"github.com/xraph/accrual/types"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin             = (*Extension)(nil)
	_ plugin.OnRateChanged      = (*Extension)(nil)
	_ plugin.OnInterestSettled  = (*Extension)(nil)
	_ plugin.OnMinted           = (*Extension)(nil)
	_ plugin.OnBurned           = (*Extension)(nil)
	_ plugin.OnTransferred      = (*Extension)(nil)
	_ plugin.OnDeposited        = (*Extension)(nil)
	_ plugin.OnRedeemed         = (*Extension)(nil)
	_ plugin.OnRewardsDeposited = (*Extension)(nil)
	_ plugin.OnExcessWithdrawn  = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so this package does not import a concrete audit
// system; callers inject the real backend at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges accrual engine events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Ledger hooks
// ──────────────────────────────────────────────────

// OnRateChanged implements plugin.OnRateChanged. Rate changes are the one
// governance-level action in the system, so they audit at warning severity.
func (e *Extension) OnRateChanged(ctx context.Context, oldRate, newRate types.Rate, caller string) error {
	return e.record(ctx, ActionRateChanged, SeverityWarning, OutcomeSuccess,
		ResourceRate, "", CategoryGovernance, nil,
		"old_rate", uint64(oldRate),
		"new_rate", uint64(newRate),
		"caller", caller,
	)
}

// OnInterestSettled implements plugin.OnInterestSettled.
func (e *Extension) OnInterestSettled(ctx context.Context, account string, interest, newBalance types.Units) error {
	return e.record(ctx, ActionInterestSettled, SeverityInfo, OutcomeSuccess,
		ResourceAccount, account, CategoryLedger, nil,
		"account", account,
		"interest", interest.String(),
		"new_balance", newBalance.String(),
	)
}

// OnMinted implements plugin.OnMinted.
func (e *Extension) OnMinted(ctx context.Context, to string, amount types.Units, caller string) error {
	return e.record(ctx, ActionMinted, SeverityInfo, OutcomeSuccess,
		ResourceAccount, to, CategoryLedger, nil,
		"to", to,
		"amount", amount.String(),
		"caller", caller,
	)
}

// OnBurned implements plugin.OnBurned.
func (e *Extension) OnBurned(ctx context.Context, from string, amount types.Units, caller string) error {
	return e.record(ctx, ActionBurned, SeverityInfo, OutcomeSuccess,
		ResourceAccount, from, CategoryLedger, nil,
		"from", from,
		"amount", amount.String(),
		"caller", caller,
	)
}

// OnTransferred implements plugin.OnTransferred.
func (e *Extension) OnTransferred(ctx context.Context, from, to string, amount types.Units) error {
	return e.record(ctx, ActionTransferred, SeverityInfo, OutcomeSuccess,
		ResourceAccount, from, CategoryLedger, nil,
		"from", from,
		"to", to,
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Vault hooks
// ──────────────────────────────────────────────────

// OnDeposited implements plugin.OnDeposited.
func (e *Extension) OnDeposited(ctx context.Context, user string, assetIn, unitsOut types.Units) error {
	return e.record(ctx, ActionDeposited, SeverityInfo, OutcomeSuccess,
		ResourceVault, user, CategoryCollateral, nil,
		"user", user,
		"asset_in", assetIn.String(),
		"units_out", unitsOut.String(),
	)
}

// OnRedeemed implements plugin.OnRedeemed.
func (e *Extension) OnRedeemed(ctx context.Context, user string, unitsIn, assetOut types.Units) error {
	return e.record(ctx, ActionRedeemed, SeverityInfo, OutcomeSuccess,
		ResourceVault, user, CategoryCollateral, nil,
		"user", user,
		"units_in", unitsIn.String(),
		"asset_out", assetOut.String(),
	)
}

// OnRewardsDeposited implements plugin.OnRewardsDeposited.
func (e *Extension) OnRewardsDeposited(ctx context.Context, caller string, amount types.Units) error {
	return e.record(ctx, ActionRewardsDeposited, SeverityInfo, OutcomeSuccess,
		ResourceVault, "", CategoryCollateral, nil,
		"caller", caller,
		"amount", amount.String(),
	)
}

// OnExcessWithdrawn implements plugin.OnExcessWithdrawn. Reserve leaving
// the vault is worth a louder audit trail than reserve arriving.
func (e *Extension) OnExcessWithdrawn(ctx context.Context, caller string, amount types.Units) error {
	return e.record(ctx, ActionExcessWithdrawn, SeverityWarning, OutcomeSuccess,
		ResourceVault, "", CategoryCollateral, nil,
		"caller", caller,
		"amount", amount.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
