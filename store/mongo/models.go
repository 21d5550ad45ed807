package mongo

import (
	"time"

	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/journal"
	"github.com/xraph/accrual/types"
	"github.com/xraph/accrual/vault"
)

// Persistence models. Units are stored as decimal strings: BSON has no
// 256-bit integer and Decimal128 tops out well short of full precision.

type accountDoc struct {
	Address            string    `bson:"_id"`
	NominalBalance     string    `bson:"nominal_balance"`
	InterestRate       int64     `bson:"interest_rate"`
	LastSettlementTime time.Time `bson:"last_settlement_time"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func toAccountDoc(a *account.Account) *accountDoc {
	return &accountDoc{
		Address:            a.Address,
		NominalBalance:     a.NominalBalance.String(),
		InterestRate:       int64(a.InterestRate),
		LastSettlementTime: a.LastSettlementTime,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

func fromAccountDoc(d *accountDoc) (*account.Account, error) {
	balance, err := types.UnitsFromString(d.NominalBalance)
	if err != nil {
		return nil, err
	}
	a := &account.Account{
		Address:            d.Address,
		NominalBalance:     balance,
		InterestRate:       types.Rate(d.InterestRate),
		LastSettlementTime: d.LastSettlementTime,
	}
	a.CreatedAt = d.CreatedAt
	a.UpdatedAt = d.UpdatedAt
	return a, nil
}

type ledgerStateDoc struct {
	ID                 int       `bson:"_id"`
	TotalNominalSupply string    `bson:"total_nominal_supply"`
	GlobalInterestRate int64     `bson:"global_interest_rate"`
	UpdatedAt          time.Time `bson:"updated_at"`
}

func toLedgerStateDoc(gs *account.GlobalState) *ledgerStateDoc {
	return &ledgerStateDoc{
		ID:                 singletonID,
		TotalNominalSupply: gs.TotalNominalSupply.String(),
		GlobalInterestRate: int64(gs.GlobalInterestRate),
		UpdatedAt:          gs.UpdatedAt,
	}
}

func fromLedgerStateDoc(d *ledgerStateDoc) (*account.GlobalState, error) {
	supply, err := types.UnitsFromString(d.TotalNominalSupply)
	if err != nil {
		return nil, err
	}
	return &account.GlobalState{
		TotalNominalSupply: supply,
		GlobalInterestRate: types.Rate(d.GlobalInterestRate),
		UpdatedAt:          d.UpdatedAt,
	}, nil
}

type vaultStateDoc struct {
	ID             int       `bson:"_id"`
	TotalLiability string    `bson:"total_liability"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toVaultStateDoc(vs *vault.State) *vaultStateDoc {
	return &vaultStateDoc{
		ID:             singletonID,
		TotalLiability: vs.TotalLiability.String(),
		UpdatedAt:      vs.UpdatedAt,
	}
}

func fromVaultStateDoc(d *vaultStateDoc) (*vault.State, error) {
	liability, err := types.UnitsFromString(d.TotalLiability)
	if err != nil {
		return nil, err
	}
	return &vault.State{
		TotalLiability: liability,
		UpdatedAt:      d.UpdatedAt,
	}, nil
}

type recordDoc struct {
	ID           string    `bson:"_id"`
	Kind         string    `bson:"kind"`
	Account      string    `bson:"account,omitempty"`
	Counterparty string    `bson:"counterparty,omitempty"`
	Caller       string    `bson:"caller,omitempty"`
	Amount       string    `bson:"amount"`
	NewBalance   string    `bson:"new_balance"`
	AssetAmount  string    `bson:"asset_amount"`
	OldRate      int64     `bson:"old_rate,omitempty"`
	NewRate      int64     `bson:"new_rate,omitempty"`
	Timestamp    time.Time `bson:"ts"`
}

func toRecordDoc(r *journal.Record) *recordDoc {
	return &recordDoc{
		ID:           r.ID.String(),
		Kind:         string(r.Kind),
		Account:      r.Account,
		Counterparty: r.Counterparty,
		Caller:       r.Caller,
		Amount:       r.Amount.String(),
		NewBalance:   r.NewBalance.String(),
		AssetAmount:  r.AssetAmount.String(),
		OldRate:      int64(r.OldRate),
		NewRate:      int64(r.NewRate),
		Timestamp:    r.Timestamp,
	}
}

func fromRecordDoc(d *recordDoc) (*journal.Record, error) {
	rid, err := id.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	amount, err := types.UnitsFromString(d.Amount)
	if err != nil {
		return nil, err
	}
	newBalance, err := types.UnitsFromString(d.NewBalance)
	if err != nil {
		return nil, err
	}
	assetAmount, err := types.UnitsFromString(d.AssetAmount)
	if err != nil {
		return nil, err
	}
	return &journal.Record{
		ID:           rid,
		Kind:         journal.Kind(d.Kind),
		Account:      d.Account,
		Counterparty: d.Counterparty,
		Caller:       d.Caller,
		Amount:       amount,
		NewBalance:   newBalance,
		AssetAmount:  assetAmount,
		OldRate:      types.Rate(d.OldRate),
		NewRate:      types.Rate(d.NewRate),
		Timestamp:    d.Timestamp,
	}, nil
}
