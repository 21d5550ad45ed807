package accrual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/asset"
	"github.com/xraph/accrual/journal"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/types"
	"github.com/xraph/accrual/vault"
)

// RedeemAll is the sentinel amount that redeems a user's entire virtual
// balance in one call, with no dust left behind by interest accruing
// between a balance query and the redemption.
var RedeemAll = vault.RedeemAll

// Vault exchanges a base asset for ledger units 1:1 and back. It holds the
// asset reserve through an asset.Treasury and tracks its outstanding
// liability, the total units it has issued and not yet redeemed, so the
// administrator can withdraw only genuine surplus.
//
// The vault shares the ledger's operation guard: a treasury callback that
// re-enters any ledger or vault operation is rejected, not deadlocked.
type Vault struct {
	ledger   *Ledger
	treasury asset.Treasury
	logger   *slog.Logger
}

// NewVault creates a Vault issuing against the given ledger, backed by the
// given treasury.
func NewVault(l *Ledger, treasury asset.Treasury) *Vault {
	return &Vault{
		ledger:   l,
		treasury: treasury,
		logger:   l.logger.With("component", "vault"),
	}
}

// ──────────────────────────────────────────────────
// Deposit path
// ──────────────────────────────────────────────────

// Deposit collects amount base-asset units from the user and mints the same
// number of ledger units to them. The asset moves first; if persisting the
// ledger state fails the collected asset is paid back.
func (v *Vault) Deposit(ctx context.Context, user string, amount types.Units) (*vault.DepositReceipt, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user", ErrZeroAddress)
	}
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if v.ledger.gate.IsPaused() {
		return nil, ErrPaused
	}

	release, err := v.ledger.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := v.treasury.Collect(ctx, user, amount); err != nil {
		return nil, err
	}

	recs, receipt, err := v.depositTx(ctx, user, amount)
	if err != nil {
		// The asset was already collected. Hand it back so a failed
		// deposit leaves the user whole.
		if payErr := v.treasury.Pay(ctx, user, amount); payErr != nil {
			v.logger.Error("failed to refund collected deposit",
				"user", user,
				"amount", amount,
				"error", payErr,
			)
		}
		return nil, err
	}

	release()
	v.ledger.emitRecords(ctx, recs)
	v.logger.Info("deposited",
		"user", user,
		"asset_in", amount,
		"units_out", receipt.UnitsOut,
	)
	return receipt, nil
}

func (v *Vault) depositTx(ctx context.Context, user string, amount types.Units) ([]*journal.Record, *vault.DepositReceipt, error) {
	acct, err := v.ledger.loadAccount(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	gs, err := v.ledger.loadGlobalState(ctx)
	if err != nil {
		return nil, nil, err
	}
	vs, err := v.loadState(ctx)
	if err != nil {
		return nil, nil, err
	}

	now := v.ledger.clock.Now().UTC()
	recs := v.ledger.settleInto(acct, gs, now)

	acct.InterestRate = v.ledger.governor.Rate()
	acct.NominalBalance = acct.NominalBalance.Add(amount)
	gs.TotalNominalSupply = gs.TotalNominalSupply.Add(amount)
	vs.TotalLiability = vs.TotalLiability.Add(amount)
	acct.Touch()
	gs.UpdatedAt = now
	vs.UpdatedAt = now

	recs = append(recs, journal.NewDeposited(user, amount, amount, now))

	cs := &store.ChangeSet{
		Accounts: []*account.Account{acct},
		Ledger:   gs,
		Vault:    vs,
		Records:  recs,
	}
	if err := v.ledger.store.Apply(ctx, cs); err != nil {
		return nil, nil, err
	}

	receipt := &vault.DepositReceipt{
		ID:             recs[len(recs)-1].ID,
		User:           user,
		AssetIn:        amount,
		UnitsOut:       amount,
		IdempotencyKey: uuid.New(),
		Timestamp:      now,
	}
	return recs, receipt, nil
}

// ──────────────────────────────────────────────────
// Redeem path
// ──────────────────────────────────────────────────

// Redeem burns amount ledger units from the user and pays out the same
// number of base-asset units. Passing RedeemAll redeems the user's full
// interest-inclusive balance. The burn is finalized before any asset leaves
// the reserve; if the payout then fails, the pre-redemption state is
// restored and ErrPayoutFailed is returned.
func (v *Vault) Redeem(ctx context.Context, user string, amount types.Units) (*vault.RedemptionReceipt, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: user", ErrZeroAddress)
	}
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if v.ledger.gate.IsPaused() {
		return nil, ErrPaused
	}

	release, err := v.ledger.guard.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	receipt, recs, err := v.redeemTx(ctx, user, amount)
	if err != nil {
		return nil, err
	}

	release()
	v.ledger.emitRecords(ctx, recs)
	v.logger.Info("redeemed",
		"user", user,
		"units_in", receipt.UnitsIn,
		"asset_out", receipt.AssetOut,
	)
	return receipt, nil
}

func (v *Vault) redeemTx(ctx context.Context, user string, amount types.Units) (*vault.RedemptionReceipt, []*journal.Record, error) {
	acct, err := v.ledger.loadAccount(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	gs, err := v.ledger.loadGlobalState(ctx)
	if err != nil {
		return nil, nil, err
	}
	vs, err := v.loadState(ctx)
	if err != nil {
		return nil, nil, err
	}

	// Pre-images for the payout failure path.
	prevAcct := acct.Clone()
	prevGS := gs.Clone()
	prevVS := vs.Clone()

	now := v.ledger.clock.Now().UTC()
	v.ledger.settleInto(acct, gs, now)

	// The sentinel resolves after settlement so "everything" includes the
	// interest that accrued up to this very instant.
	if amount.Equal(RedeemAll) {
		amount = acct.NominalBalance
		if amount.IsZero() {
			return nil, nil, ErrZeroAmount
		}
	}

	if acct.NominalBalance.Less(amount) {
		return nil, nil, &InsufficientBalanceError{
			Address:   user,
			Requested: amount,
			Available: acct.NominalBalance,
		}
	}

	reserve, err := v.treasury.Balance(ctx)
	if err != nil {
		return nil, nil, err
	}
	if reserve.Less(amount) {
		return nil, nil, &InsufficientReserveError{
			Requested: amount,
			Available: reserve,
		}
	}

	acct.NominalBalance = acct.NominalBalance.Sub(amount)
	gs.TotalNominalSupply = gs.TotalNominalSupply.Sub(amount)
	// Settled interest was never a deposit, so liability can be smaller
	// than the redemption. It never goes below zero.
	vs.TotalLiability = vs.TotalLiability.Sub(vs.TotalLiability.Min(amount))
	acct.Touch()
	gs.UpdatedAt = now
	vs.UpdatedAt = now

	// Burn first, pay second. The units are gone before any asset moves,
	// so a misbehaving payout target cannot observe a state where it holds
	// both the units and the asset.
	cs := &store.ChangeSet{
		Accounts: []*account.Account{acct},
		Ledger:   gs,
		Vault:    vs,
	}
	if err := v.ledger.store.Apply(ctx, cs); err != nil {
		return nil, nil, err
	}

	if err := v.treasury.Pay(ctx, user, amount); err != nil {
		restore := &store.ChangeSet{
			Accounts: []*account.Account{prevAcct},
			Ledger:   prevGS,
			Vault:    prevVS,
		}
		if restoreErr := v.ledger.store.Apply(ctx, restore); restoreErr != nil {
			v.logger.Error("failed to restore state after payout failure",
				"user", user,
				"amount", amount,
				"error", restoreErr,
			)
			return nil, nil, errors.Join(ErrPayoutFailed, err, restoreErr)
		}
		return nil, nil, fmt.Errorf("%w: %w", ErrPayoutFailed, err)
	}

	rec := journal.NewRedeemed(user, amount, amount, now)
	recs := []*journal.Record{rec}
	if err := v.ledger.store.Apply(ctx, &store.ChangeSet{Records: recs}); err != nil {
		// The redemption itself is complete and the asset is paid out.
		// A missing journal row is log-worthy, not reversible.
		v.logger.Error("failed to journal redemption",
			"user", user,
			"amount", amount,
			"error", err,
		)
	}

	receipt := &vault.RedemptionReceipt{
		ID:             rec.ID,
		User:           user,
		UnitsIn:        amount,
		AssetOut:       amount,
		IdempotencyKey: uuid.New(),
		Timestamp:      now,
	}
	return receipt, recs, nil
}

// ──────────────────────────────────────────────────
// Reserve administration
// ──────────────────────────────────────────────────

// DepositRewards moves amount base-asset units from the administrator into
// the reserve without minting anything. This is how accrued interest gets
// backed: the reserve grows while liability stays put. It works while
// paused, since topping up backing is exactly what a paused, undercollateralized
// system needs.
func (v *Vault) DepositRewards(ctx context.Context, caller string, amount types.Units) error {
	if caller == "" {
		return fmt.Errorf("%w: caller", ErrZeroAddress)
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if !v.ledger.gate.IsAdministrator(caller) {
		return ErrNotAdministrator
	}

	release, err := v.ledger.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	if err := v.treasury.Collect(ctx, caller, amount); err != nil {
		return err
	}

	now := v.ledger.clock.Now().UTC()
	recs := []*journal.Record{journal.NewRewardsDeposited(caller, amount, now)}
	if err := v.ledger.store.Apply(ctx, &store.ChangeSet{Records: recs}); err != nil {
		v.logger.Error("failed to journal rewards deposit",
			"caller", caller,
			"amount", amount,
			"error", err,
		)
	}

	release()
	v.ledger.emitRecords(ctx, recs)
	v.logger.Info("rewards deposited",
		"caller", caller,
		"amount", amount,
	)
	return nil
}

// WithdrawExcess pays amount base-asset units from the reserve to the
// administrator, capped at the current surplus over liability. Withdrawing
// more than the excess would make outstanding units unredeemable, so it is
// rejected outright.
func (v *Vault) WithdrawExcess(ctx context.Context, caller string, amount types.Units) error {
	if caller == "" {
		return fmt.Errorf("%w: caller", ErrZeroAddress)
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if !v.ledger.gate.IsAdministrator(caller) {
		return ErrNotAdministrator
	}

	release, err := v.ledger.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	excess, err := v.excessLocked(ctx)
	if err != nil {
		return err
	}
	if excess.Less(amount) {
		return fmt.Errorf("%w: requested %s, excess %s", ErrExcessExceeded, amount, excess)
	}

	if err := v.treasury.Pay(ctx, caller, amount); err != nil {
		return err
	}

	now := v.ledger.clock.Now().UTC()
	recs := []*journal.Record{journal.NewExcessWithdrawn(caller, amount, now)}
	if err := v.ledger.store.Apply(ctx, &store.ChangeSet{Records: recs}); err != nil {
		v.logger.Error("failed to journal excess withdrawal",
			"caller", caller,
			"amount", amount,
			"error", err,
		)
	}

	release()
	v.ledger.emitRecords(ctx, recs)
	v.logger.Info("excess withdrawn",
		"caller", caller,
		"amount", amount,
	)
	return nil
}

// ──────────────────────────────────────────────────
// Reads and previews
// ──────────────────────────────────────────────────

// Liability returns the vault's outstanding liability in ledger units.
func (v *Vault) Liability(ctx context.Context) (types.Units, error) {
	vs, err := v.loadState(ctx)
	if err != nil {
		return types.ZeroUnits(), err
	}
	return vs.TotalLiability, nil
}

// Reserve returns the current base-asset reserve.
func (v *Vault) Reserve(ctx context.Context) (types.Units, error) {
	return v.treasury.Balance(ctx)
}

// ExcessFunds returns the reserve surplus over liability, zero when the
// vault is under water.
func (v *Vault) ExcessFunds(ctx context.Context) (types.Units, error) {
	return v.excessLocked(ctx)
}

// IsFullyCollateralized reports whether the reserve covers the liability.
func (v *Vault) IsFullyCollateralized(ctx context.Context) (bool, error) {
	vs, err := v.loadState(ctx)
	if err != nil {
		return false, err
	}
	reserve, err := v.treasury.Balance(ctx)
	if err != nil {
		return false, err
	}
	return !reserve.Less(vs.TotalLiability), nil
}

// PreviewDeposit returns the units a deposit of assetIn would mint.
// The exchange rate is fixed 1:1 in both directions.
func (v *Vault) PreviewDeposit(assetIn types.Units) types.Units { return assetIn }

// PreviewRedeem returns the asset a redemption of unitsIn would pay out,
// before balance and reserve checks.
func (v *Vault) PreviewRedeem(unitsIn types.Units) types.Units { return unitsIn }

func (v *Vault) excessLocked(ctx context.Context) (types.Units, error) {
	vs, err := v.loadState(ctx)
	if err != nil {
		return types.ZeroUnits(), err
	}
	reserve, err := v.treasury.Balance(ctx)
	if err != nil {
		return types.ZeroUnits(), err
	}
	if reserve.Less(vs.TotalLiability) {
		return types.ZeroUnits(), nil
	}
	return reserve.Sub(vs.TotalLiability), nil
}

// loadState returns a mutable copy of the vault row, zero for a vault that
// has never taken a deposit.
func (v *Vault) loadState(ctx context.Context) (*vault.State, error) {
	vs, err := v.ledger.store.GetVaultState(ctx)
	switch {
	case err == nil:
		return vs.Clone(), nil
	case errors.Is(err, ErrNotFound):
		return &vault.State{UpdatedAt: time.Time{}}, nil
	default:
		return nil, err
	}
}
