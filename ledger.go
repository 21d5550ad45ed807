package accrual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/gate"
	"github.com/xraph/accrual/journal"
	"github.com/xraph/accrual/plugin"
	"github.com/xraph/accrual/rate"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/types"
)

// Ledger is the interest-accruing balance engine.
//
// Balances grow continuously from a per-holder rate without per-second
// updates: the stored nominal balance plus the holder's rate pin and last
// settlement time reconstruct the interest-inclusive "virtual" balance on
// demand, and every balance-changing operation settles (materializes) the
// virtual balance into the nominal one first.
//
// Every state-changing operation is transactional: it runs to completion or
// aborts with no partial effect, and operations are totally ordered by a
// shared guard that rejects re-entry.
type Ledger struct {
	store    store.Store
	gate     gate.Gate
	governor *rate.Governor
	plugins  *plugin.Registry
	logger   *slog.Logger
	clock    clock.Clock
	guard    opGuard

	initialRate types.Rate
}

// New creates a new Ledger instance backed by the given store.
func New(s store.Store, opts ...Option) *Ledger {
	gov, _ := rate.NewGovernor(rate.MinRate) //nolint:errcheck // MinRate is always within bounds

	l := &Ledger{
		store:    s,
		gate:     gate.Open{},
		governor: gov,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		clock:    clock.New(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start migrates the store, loads persisted ledger state, and initializes
// plugins. A fresh ledger is seeded with the configured initial rate.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	gs, err := l.store.GetGlobalState(ctx)
	switch {
	case err == nil:
		if adoptErr := l.governor.Adopt(gs.GlobalInterestRate); adoptErr != nil {
			return adoptErr
		}
	case errors.Is(err, ErrNotFound):
		if adoptErr := l.governor.Adopt(l.initialRate); adoptErr != nil {
			return adoptErr
		}
		seed := &account.GlobalState{
			GlobalInterestRate: l.initialRate,
			UpdatedAt:          l.clock.Now().UTC(),
		}
		if applyErr := l.store.Apply(ctx, &store.ChangeSet{Ledger: seed}); applyErr != nil {
			return applyErr
		}
	default:
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("accrual ledger started",
		"global_rate", l.governor.Rate(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())
	return l.store.Close()
}

// Store returns the underlying store for direct read access.
func (l *Ledger) Store() store.Store { return l.store }

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// BalanceOf returns the virtual (interest-inclusive) balance of an address
// at the current instant. Unknown addresses hold zero.
func (l *Ledger) BalanceOf(ctx context.Context, address string) (types.Units, error) {
	acct, err := l.loadAccount(ctx, address)
	if err != nil {
		return types.ZeroUnits(), err
	}
	return acct.VirtualBalance(l.clock.Now().UTC()), nil
}

// NominalBalanceOf returns the stored balance of an address, excluding
// unsettled interest.
func (l *Ledger) NominalBalanceOf(ctx context.Context, address string) (types.Units, error) {
	acct, err := l.loadAccount(ctx, address)
	if err != nil {
		return types.ZeroUnits(), err
	}
	return acct.NominalBalance, nil
}

// GetAccount returns the stored account row for an address.
// Returns ErrAccountNotFound for addresses that were never touched.
func (l *Ledger) GetAccount(ctx context.Context, address string) (*account.Account, error) {
	return l.store.GetAccount(ctx, address)
}

// ListAccounts returns every known account.
func (l *Ledger) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	return l.store.ListAccounts(ctx, opts)
}

// TotalNominalSupply returns the authoritative accounting total: the sum of
// every account's nominal balance.
func (l *Ledger) TotalNominalSupply(ctx context.Context) (types.Units, error) {
	gs, err := l.loadGlobalState(ctx)
	if err != nil {
		return types.ZeroUnits(), err
	}
	return gs.TotalNominalSupply, nil
}

// GlobalRate returns the current global interest rate.
func (l *Ledger) GlobalRate() types.Rate { return l.governor.Rate() }

// QueryRecords returns journal records matching opts.
func (l *Ledger) QueryRecords(ctx context.Context, opts journal.QueryOpts) ([]*journal.Record, error) {
	return l.store.QueryRecords(ctx, opts)
}

// ──────────────────────────────────────────────────
// Settlement
// ──────────────────────────────────────────────────

// Settle materializes any pending interest for an address into its nominal
// balance and the total supply, and advances the settlement timestamp. It
// is a no-op when nothing has accrued and is open to any caller.
func (l *Ledger) Settle(ctx context.Context, address string) error {
	if address == "" {
		return fmt.Errorf("%w: address", ErrZeroAddress)
	}

	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	recs, err := l.settleTx(ctx, address)
	if err != nil {
		return err
	}

	release()
	l.emitRecords(ctx, recs)
	return nil
}

func (l *Ledger) settleTx(ctx context.Context, address string) ([]*journal.Record, error) {
	acct, err := l.loadAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	gs, err := l.loadGlobalState(ctx)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now().UTC()
	recs := l.settleInto(acct, gs, now)
	acct.Touch()
	gs.UpdatedAt = now

	cs := &store.ChangeSet{
		Accounts: []*account.Account{acct},
		Ledger:   gs,
		Records:  recs,
	}
	if err := l.store.Apply(ctx, cs); err != nil {
		return nil, err
	}
	return recs, nil
}

// settleInto folds pending interest for acct directly into its nominal
// balance and the supply in gs. It adjusts nominal state in place rather
// than routing through the mint path, so settlement can never recursively
// trigger another settlement. The settlement timestamp always advances,
// interest or not.
func (l *Ledger) settleInto(acct *account.Account, gs *account.GlobalState, now time.Time) []*journal.Record {
	if !acct.Initialized() {
		acct.LastSettlementTime = now
		return nil
	}

	virtual := acct.VirtualBalance(now)
	acct.LastSettlementTime = now

	if !acct.NominalBalance.Less(virtual) {
		return nil
	}

	interest := virtual.Sub(acct.NominalBalance)
	acct.NominalBalance = virtual
	gs.TotalNominalSupply = gs.TotalNominalSupply.Add(interest)

	l.logger.Debug("interest settled",
		"account", acct.Address,
		"interest", interest,
		"new_balance", acct.NominalBalance,
	)

	return []*journal.Record{
		journal.NewInterestSettled(acct.Address, interest, acct.NominalBalance, now),
	}
}

// ──────────────────────────────────────────────────
// Mint / Burn
// ──────────────────────────────────────────────────

// Mint creates amount new units for the receiving address and re-pins the
// receiver's rate to the current global rate. The caller must hold the
// mint/burn capability. Pending interest is settled before the pin changes,
// so the new rate is never retroactively applied to prior balance.
func (l *Ledger) Mint(ctx context.Context, caller, to string, amount types.Units) error {
	if err := l.checkMintBurn(caller, to, amount); err != nil {
		return err
	}

	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	recs, err := l.mintTx(ctx, caller, to, amount)
	if err != nil {
		return err
	}

	release()
	l.emitRecords(ctx, recs)
	l.logger.Info("minted",
		"to", to,
		"amount", amount,
		"caller", caller,
	)
	return nil
}

func (l *Ledger) mintTx(ctx context.Context, caller, to string, amount types.Units) ([]*journal.Record, error) {
	acct, err := l.loadAccount(ctx, to)
	if err != nil {
		return nil, err
	}
	gs, err := l.loadGlobalState(ctx)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now().UTC()
	recs := l.settleInto(acct, gs, now)

	acct.InterestRate = l.governor.Rate()
	acct.NominalBalance = acct.NominalBalance.Add(amount)
	gs.TotalNominalSupply = gs.TotalNominalSupply.Add(amount)
	acct.Touch()
	gs.UpdatedAt = now

	recs = append(recs, journal.NewMinted(to, amount, caller, now))

	cs := &store.ChangeSet{
		Accounts: []*account.Account{acct},
		Ledger:   gs,
		Records:  recs,
	}
	if err := l.store.Apply(ctx, cs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Burn destroys amount units from the holding address. Pending interest is
// settled first so it becomes burnable; the holder's rate pin is untouched.
// The caller must hold the mint/burn capability.
func (l *Ledger) Burn(ctx context.Context, caller, from string, amount types.Units) error {
	if err := l.checkMintBurn(caller, from, amount); err != nil {
		return err
	}

	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	recs, err := l.burnTx(ctx, caller, from, amount)
	if err != nil {
		return err
	}

	release()
	l.emitRecords(ctx, recs)
	l.logger.Info("burned",
		"from", from,
		"amount", amount,
		"caller", caller,
	)
	return nil
}

func (l *Ledger) burnTx(ctx context.Context, caller, from string, amount types.Units) ([]*journal.Record, error) {
	acct, err := l.loadAccount(ctx, from)
	if err != nil {
		return nil, err
	}
	gs, err := l.loadGlobalState(ctx)
	if err != nil {
		return nil, err
	}

	now := l.clock.Now().UTC()
	recs := l.settleInto(acct, gs, now)

	if acct.NominalBalance.Less(amount) {
		return nil, &InsufficientBalanceError{
			Address:   from,
			Requested: amount,
			Available: acct.NominalBalance,
		}
	}

	acct.NominalBalance = acct.NominalBalance.Sub(amount)
	gs.TotalNominalSupply = gs.TotalNominalSupply.Sub(amount)
	acct.Touch()
	gs.UpdatedAt = now

	recs = append(recs, journal.NewBurned(from, amount, caller, now))

	cs := &store.ChangeSet{
		Accounts: []*account.Account{acct},
		Ledger:   gs,
		Records:  recs,
	}
	if err := l.store.Apply(ctx, cs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ──────────────────────────────────────────────────
// Transfer
// ──────────────────────────────────────────────────

// Transfer moves amount nominal units from one holder to another, settling
// each side that currently holds a balance. Rate pins are untouched: a
// receiver that has never been minted to inherits no rate and accrues no
// interest on the received units until a future mint grants it one.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount types.Units) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: from and to are required", ErrZeroAddress)
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if l.gate.IsPaused() {
		return ErrPaused
	}

	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	recs, err := l.transferTx(ctx, from, to, amount)
	if err != nil {
		return err
	}

	release()
	l.emitRecords(ctx, recs)
	l.logger.Info("transferred",
		"from", from,
		"to", to,
		"amount", amount,
	)
	return nil
}

func (l *Ledger) transferTx(ctx context.Context, from, to string, amount types.Units) ([]*journal.Record, error) {
	sender, err := l.loadAccount(ctx, from)
	if err != nil {
		return nil, err
	}
	gs, err := l.loadGlobalState(ctx)
	if err != nil {
		return nil, err
	}

	receiver := sender
	if to != from {
		receiver, err = l.loadAccount(ctx, to)
		if err != nil {
			return nil, err
		}
	}

	now := l.clock.Now().UTC()
	var recs []*journal.Record

	// Only sides that currently hold a balance are settled. A holder at
	// zero keeps its stale timestamp; since its rate earns nothing on a
	// zero balance this costs nothing, and the origin design skips the
	// write deliberately.
	if !sender.NominalBalance.IsZero() {
		recs = append(recs, l.settleInto(sender, gs, now)...)
	}
	if receiver != sender && !receiver.NominalBalance.IsZero() {
		recs = append(recs, l.settleInto(receiver, gs, now)...)
	}

	if sender.NominalBalance.Less(amount) {
		return nil, &InsufficientBalanceError{
			Address:   from,
			Requested: amount,
			Available: sender.NominalBalance,
		}
	}

	sender.NominalBalance = sender.NominalBalance.Sub(amount)
	receiver.NominalBalance = receiver.NominalBalance.Add(amount)
	sender.Touch()
	receiver.Touch()
	gs.UpdatedAt = now

	recs = append(recs, journal.NewTransferred(from, to, amount, now))

	accounts := []*account.Account{sender}
	if receiver != sender {
		accounts = append(accounts, receiver)
	}

	cs := &store.ChangeSet{
		Accounts: accounts,
		Ledger:   gs,
		Records:  recs,
	}
	if err := l.store.Apply(ctx, cs); err != nil {
		return nil, err
	}
	return recs, nil
}

// ──────────────────────────────────────────────────
// Rate management
// ──────────────────────────────────────────────────

// SetGlobalRate lowers the global interest rate. Only the administrator may
// call it; the rate may never rise and must stay within the governor's
// bounds. Existing holders keep their pinned rates until their next mint.
func (l *Ledger) SetGlobalRate(ctx context.Context, caller string, newRate types.Rate) error {
	if caller == "" {
		return fmt.Errorf("%w: caller", ErrZeroAddress)
	}
	if !l.gate.IsAdministrator(caller) {
		return ErrNotAdministrator
	}

	release, err := l.guard.enter()
	if err != nil {
		return err
	}
	defer release()

	old, err := l.governor.Set(newRate)
	if err != nil {
		return err
	}

	gs, err := l.loadGlobalState(ctx)
	if err != nil {
		l.revertRate(old)
		return err
	}

	now := l.clock.Now().UTC()
	gs.GlobalInterestRate = newRate
	gs.UpdatedAt = now

	rec := journal.NewRateChanged(old, newRate, caller, now)
	cs := &store.ChangeSet{
		Ledger:  gs,
		Records: []*journal.Record{rec},
	}
	if err := l.store.Apply(ctx, cs); err != nil {
		l.revertRate(old)
		return err
	}

	release()
	l.emitRecords(ctx, []*journal.Record{rec})
	l.logger.Info("global rate changed",
		"old_rate", old,
		"new_rate", newRate,
		"caller", caller,
	)
	return nil
}

// revertRate restores the governor after a failed persistence attempt so
// the in-memory rate never diverges from the store.
func (l *Ledger) revertRate(old types.Rate) {
	if err := l.governor.Adopt(old); err != nil {
		l.logger.Error("failed to revert governor rate", "error", err)
	}
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// checkMintBurn runs the shared validation and authorization for the
// privileged mint/burn entry points. All checks run before any mutation.
func (l *Ledger) checkMintBurn(caller, holder string, amount types.Units) error {
	if caller == "" || holder == "" {
		return fmt.Errorf("%w: caller and holder are required", ErrZeroAddress)
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if l.gate.IsPaused() {
		return ErrPaused
	}
	if !l.gate.CanMintBurn(caller) {
		return ErrUnauthorized
	}
	return nil
}

// loadAccount returns a mutable copy of the stored account, or a fresh
// uninitialized account for an address that was never touched.
func (l *Ledger) loadAccount(ctx context.Context, address string) (*account.Account, error) {
	acct, err := l.store.GetAccount(ctx, address)
	switch {
	case err == nil:
		return acct.Clone(), nil
	case errors.Is(err, ErrAccountNotFound):
		return &account.Account{
			Entity:  types.NewEntity(),
			Address: address,
		}, nil
	default:
		return nil, err
	}
}

// loadGlobalState returns a mutable copy of the ledger-global row, seeding
// a zero-supply row at the governor's rate for a fresh ledger.
func (l *Ledger) loadGlobalState(ctx context.Context) (*account.GlobalState, error) {
	gs, err := l.store.GetGlobalState(ctx)
	switch {
	case err == nil:
		return gs.Clone(), nil
	case errors.Is(err, ErrNotFound):
		return &account.GlobalState{GlobalInterestRate: l.governor.Rate()}, nil
	default:
		return nil, err
	}
}

// emitRecords dispatches committed journal records to the plugin hooks.
// Emission happens after the guard is released: the operation is already
// durable, and a hook that calls back into the engine must not deadlock.
func (l *Ledger) emitRecords(ctx context.Context, recs []*journal.Record) {
	for _, r := range recs {
		switch r.Kind {
		case journal.KindRateChanged:
			l.plugins.EmitRateChanged(ctx, r.OldRate, r.NewRate, r.Caller)
		case journal.KindInterestSettled:
			l.plugins.EmitInterestSettled(ctx, r.Account, r.Amount, r.NewBalance)
		case journal.KindMinted:
			l.plugins.EmitMinted(ctx, r.Account, r.Amount, r.Caller)
		case journal.KindBurned:
			l.plugins.EmitBurned(ctx, r.Account, r.Amount, r.Caller)
		case journal.KindTransferred:
			l.plugins.EmitTransferred(ctx, r.Account, r.Counterparty, r.Amount)
		case journal.KindDeposited:
			l.plugins.EmitDeposited(ctx, r.Account, r.AssetAmount, r.Amount)
		case journal.KindRedeemed:
			l.plugins.EmitRedeemed(ctx, r.Account, r.Amount, r.AssetAmount)
		case journal.KindRewardsDeposited:
			l.plugins.EmitRewardsDeposited(ctx, r.Caller, r.AssetAmount)
		case journal.KindExcessWithdrawn:
			l.plugins.EmitExcessWithdrawn(ctx, r.Caller, r.AssetAmount)
		}
	}
}
