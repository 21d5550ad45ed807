package accrual_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/gate"
	"github.com/xraph/accrual/journal"
	"github.com/xraph/accrual/store/memory"
	"github.com/xraph/accrual/types"
)

const (
	admin  = "admin"
	minter = "minter"
	alice  = "alice"
	bob    = "bob"

	// 6e10 per second at 1e18 precision, roughly 0.5% over 30 days.
	testRate = types.Rate(60_000_000_000)

	thirtyDays = 30 * 24 * time.Hour
)

type testEnv struct {
	ledger *accrual.Ledger
	gate   *gate.Static
	clock  *clock.Mock
	store  *memory.Store
}

func newTestLedger(t *testing.T, opts ...accrual.Option) *testEnv {
	t.Helper()

	env := &testEnv{
		gate:  gate.NewStatic(admin, minter),
		clock: clock.NewMock(),
		store: memory.New(),
	}
	env.clock.Set(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	all := append([]accrual.Option{
		accrual.WithGate(env.gate),
		accrual.WithClock(env.clock),
		accrual.WithInitialRate(testRate),
	}, opts...)

	env.ledger = accrual.New(env.store, all...)
	require.NoError(t, env.ledger.Start(context.Background()))
	return env
}

func balance(t *testing.T, l *accrual.Ledger, addr string) types.Units {
	t.Helper()
	b, err := l.BalanceOf(context.Background(), addr)
	require.NoError(t, err)
	return b
}

func TestMintCreditsAndRecordsSupply(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	amount := accrual.MustUnits("10000000000000000000") // 10e18
	require.NoError(t, env.ledger.Mint(ctx, minter, alice, amount))

	assert.True(t, balance(t, env.ledger, alice).Equal(amount))

	supply, err := env.ledger.TotalNominalSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Equal(amount))

	acct, err := env.ledger.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, testRate, acct.InterestRate)
}

func TestInterestAccruesOverThirtyDays(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	principal := accrual.MustUnits("10000000000000000000") // 10e18
	require.NoError(t, env.ledger.Mint(ctx, minter, alice, principal))

	env.clock.Add(thirtyDays)

	// 10e18 * (1e18 + 6e10 * 2_592_000) / 1e18
	want := accrual.MustUnits("11555200000000000000")
	assert.True(t, balance(t, env.ledger, alice).Equal(want),
		"virtual balance after 30 days")

	// Interest is virtual until settled; stored state is untouched.
	nominal, err := env.ledger.NominalBalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.True(t, nominal.Equal(principal))

	supply, err := env.ledger.TotalNominalSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Equal(principal))
}

func TestSettleMaterializesInterest(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	principal := accrual.MustUnits("10000000000000000000")
	require.NoError(t, env.ledger.Mint(ctx, minter, alice, principal))
	env.clock.Add(thirtyDays)

	require.NoError(t, env.ledger.Settle(ctx, alice))

	want := accrual.MustUnits("11555200000000000000")
	nominal, err := env.ledger.NominalBalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.True(t, nominal.Equal(want))

	supply, err := env.ledger.TotalNominalSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Equal(want), "settlement grows supply by the same interest")

	// Settlement is idempotent at a fixed instant.
	require.NoError(t, env.ledger.Settle(ctx, alice))
	again, err := env.ledger.NominalBalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.True(t, again.Equal(want))

	recs, err := env.ledger.QueryRecords(ctx, journal.QueryOpts{Kind: journal.KindInterestSettled})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, alice, recs[0].Account)
}

func TestSettleUnknownAccountInitializes(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, env.ledger.Settle(ctx, alice))

	acct, err := env.ledger.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.True(t, acct.Initialized())
	assert.True(t, acct.NominalBalance.IsZero())
}

func TestRatePinnedAtMintSurvivesRateChange(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	principal := accrual.MustUnits("10000000000000000000")
	require.NoError(t, env.ledger.Mint(ctx, minter, alice, principal))

	// Halve the global rate. Alice keeps her pin.
	lower := testRate / 2
	require.NoError(t, env.ledger.SetGlobalRate(ctx, admin, lower))
	assert.Equal(t, lower, env.ledger.GlobalRate())

	env.clock.Add(thirtyDays)
	want := accrual.MustUnits("11555200000000000000") // still the old rate
	assert.True(t, balance(t, env.ledger, alice).Equal(want))

	// A fresh mint settles at the old pin, then re-pins to the new rate.
	require.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.MustUnits("1000000000000000000")))
	acct, err := env.ledger.GetAccount(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, lower, acct.InterestRate)
	assert.True(t, acct.NominalBalance.Equal(want.Add(accrual.MustUnits("1000000000000000000"))),
		"pre-repin interest settled at the old rate")
}

func TestSetGlobalRateRejectsIncrease(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	err := env.ledger.SetGlobalRate(ctx, admin, testRate+1)
	assert.ErrorIs(t, err, accrual.ErrRateIncrease)

	err = env.ledger.SetGlobalRate(ctx, alice, testRate/2)
	assert.ErrorIs(t, err, accrual.ErrNotAdministrator)

	// Equal is allowed; the bound is strict increase.
	assert.NoError(t, env.ledger.SetGlobalRate(ctx, admin, testRate))
}

func TestRestartAdoptsPersistedRate(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	lower := testRate / 3
	require.NoError(t, env.ledger.SetGlobalRate(ctx, admin, lower))

	// A new engine over the same store loads the stored rate, not the
	// configured initial one.
	reopened := accrual.New(env.store,
		accrual.WithClock(env.clock),
		accrual.WithInitialRate(testRate),
	)
	require.NoError(t, reopened.Start(ctx))
	assert.Equal(t, lower, reopened.GlobalRate())
}

func TestBurnSettlesBeforeDebiting(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	principal := accrual.MustUnits("10000000000000000000")
	require.NoError(t, env.ledger.Mint(ctx, minter, alice, principal))
	env.clock.Add(thirtyDays)

	// The full virtual balance is burnable because burn settles first.
	virtual := accrual.MustUnits("11555200000000000000")
	require.NoError(t, env.ledger.Burn(ctx, minter, alice, virtual))

	assert.True(t, balance(t, env.ledger, alice).IsZero())
	supply, err := env.ledger.TotalNominalSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.IsZero())
}

func TestBurnInsufficientBalance(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.NewUnits(100)))

	err := env.ledger.Burn(ctx, minter, alice, accrual.NewUnits(101))
	require.Error(t, err)
	assert.True(t, accrual.IsInsufficient(err))

	// The failed burn left everything alone.
	assert.True(t, balance(t, env.ledger, alice).Equal(accrual.NewUnits(100)))
}

func TestTransferReceiverDoesNotAccrue(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	principal := accrual.MustUnits("10000000000000000000")
	require.NoError(t, env.ledger.Mint(ctx, minter, alice, principal))

	moved := accrual.MustUnits("4000000000000000000")
	require.NoError(t, env.ledger.Transfer(ctx, alice, bob, moved))

	env.clock.Add(thirtyDays)

	// Bob was never minted to: no rate pin, no growth.
	assert.True(t, balance(t, env.ledger, bob).Equal(moved))

	// Alice keeps accruing on what she kept.
	aliceBalance := balance(t, env.ledger, alice)
	kept := principal.Sub(moved)
	assert.True(t, kept.Less(aliceBalance), "sender still accrues")

	acct, err := env.ledger.GetAccount(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, types.Rate(0), acct.InterestRate)
}

func TestTransferSettlesBothFundedSides(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.MustUnits("10000000000000000000")))
	require.NoError(t, env.ledger.Mint(ctx, minter, bob, accrual.MustUnits("10000000000000000000")))

	env.clock.Add(thirtyDays)
	require.NoError(t, env.ledger.Transfer(ctx, alice, bob, accrual.NewUnits(1)))

	// Both sides held balance, so both settled: nominal now includes the
	// 30 days of interest on each.
	settled := accrual.MustUnits("11555200000000000000")
	aliceNominal, err := env.ledger.NominalBalanceOf(ctx, alice)
	require.NoError(t, err)
	assert.True(t, aliceNominal.Equal(settled.Sub(accrual.NewUnits(1))))

	bobNominal, err := env.ledger.NominalBalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.True(t, bobNominal.Equal(settled.Add(accrual.NewUnits(1))))
}

func TestTransferInsufficientBalance(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.NewUnits(5)))
	err := env.ledger.Transfer(ctx, alice, bob, accrual.NewUnits(6))
	assert.True(t, accrual.IsInsufficient(err))
}

func TestSupplyConservation(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.MustUnits("7000000000000000000")))
	require.NoError(t, env.ledger.Mint(ctx, minter, bob, accrual.MustUnits("3000000000000000000")))
	env.clock.Add(12 * time.Hour)
	require.NoError(t, env.ledger.Transfer(ctx, alice, bob, accrual.MustUnits("1000000000000000000")))
	env.clock.Add(36 * time.Hour)
	require.NoError(t, env.ledger.Settle(ctx, alice))
	require.NoError(t, env.ledger.Settle(ctx, bob))
	require.NoError(t, env.ledger.Burn(ctx, minter, bob, accrual.NewUnits(12345)))

	accounts, err := env.ledger.ListAccounts(ctx, account.ListOpts{})
	require.NoError(t, err)

	sum := types.ZeroUnits()
	for _, a := range accounts {
		sum = sum.Add(a.NominalBalance)
	}
	supply, err := env.ledger.TotalNominalSupply(ctx)
	require.NoError(t, err)
	assert.True(t, sum.Equal(supply), "sum of nominal balances equals supply: %s vs %s", sum, supply)
}

func TestPauseGatesMutationsNotSettlement(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.NewUnits(100)))
	require.NoError(t, env.gate.Pause(admin))

	assert.ErrorIs(t, env.ledger.Mint(ctx, minter, alice, accrual.NewUnits(1)), accrual.ErrPaused)
	assert.ErrorIs(t, env.ledger.Burn(ctx, minter, alice, accrual.NewUnits(1)), accrual.ErrPaused)
	assert.ErrorIs(t, env.ledger.Transfer(ctx, alice, bob, accrual.NewUnits(1)), accrual.ErrPaused)

	// Settlement only recognizes state that already exists; it stays open.
	assert.NoError(t, env.ledger.Settle(ctx, alice))

	require.NoError(t, env.gate.Unpause(admin))
	assert.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.NewUnits(1)))
}

func TestMintBurnRequireCapability(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.ledger.Mint(ctx, alice, alice, accrual.NewUnits(1)), accrual.ErrUnauthorized)
	assert.ErrorIs(t, env.ledger.Burn(ctx, alice, alice, accrual.NewUnits(1)), accrual.ErrUnauthorized)
}

func TestValidationErrors(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	assert.ErrorIs(t, env.ledger.Mint(ctx, minter, "", accrual.NewUnits(1)), accrual.ErrZeroAddress)
	assert.ErrorIs(t, env.ledger.Mint(ctx, minter, alice, accrual.ZeroUnits()), accrual.ErrZeroAmount)
	assert.ErrorIs(t, env.ledger.Transfer(ctx, alice, "", accrual.NewUnits(1)), accrual.ErrZeroAddress)
	assert.ErrorIs(t, env.ledger.Settle(ctx, ""), accrual.ErrZeroAddress)
}

func TestUnknownAddressReadsZero(t *testing.T) {
	env := newTestLedger(t)

	assert.True(t, balance(t, env.ledger, "nobody").IsZero())

	_, err := env.ledger.GetAccount(context.Background(), "nobody")
	assert.ErrorIs(t, err, accrual.ErrAccountNotFound)
}

func TestJournalRecordsOperations(t *testing.T) {
	env := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, env.ledger.Mint(ctx, minter, alice, accrual.NewUnits(100)))
	require.NoError(t, env.ledger.Transfer(ctx, alice, bob, accrual.NewUnits(40)))
	require.NoError(t, env.ledger.SetGlobalRate(ctx, admin, testRate/2))

	recs, err := env.ledger.QueryRecords(ctx, journal.QueryOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	byKind := map[journal.Kind]*journal.Record{}
	for _, r := range recs {
		byKind[r.Kind] = r
	}
	require.Contains(t, byKind, journal.KindMinted)
	require.Contains(t, byKind, journal.KindTransferred)
	require.Contains(t, byKind, journal.KindRateChanged)

	assert.Equal(t, minter, byKind[journal.KindMinted].Caller)
	assert.Equal(t, bob, byKind[journal.KindTransferred].Counterparty)
	assert.Equal(t, testRate, byKind[journal.KindRateChanged].OldRate)
	assert.Equal(t, testRate/2, byKind[journal.KindRateChanged].NewRate)

	// Account filter matches either side of a transfer.
	bobRecs, err := env.ledger.QueryRecords(ctx, journal.QueryOpts{Account: bob})
	require.NoError(t, err)
	require.Len(t, bobRecs, 1)
	assert.Equal(t, journal.KindTransferred, bobRecs[0].Kind)
}
