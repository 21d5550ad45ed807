// Package postgres provides a PostgreSQL-backed Store using pgx through
// database/sql, with schema migrations embedded and run via goose.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/pressly/goose/v3"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/journal"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/types"
	"github.com/xraph/accrual/vault"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
}

// New opens a connection pool for the given DSN. The schema is created by
// Migrate, which the engine runs on Start.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection pool.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%w: %w", accrual.ErrMigrationFailed, err)
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return fmt.Errorf("%w: %w", accrual.ErrMigrationFailed, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

const accountColumns = `address, nominal_balance::text, interest_rate, last_settlement_time, created_at, updated_at`

func (s *Store) GetAccount(ctx context.Context, address string) (*account.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accrual_accounts WHERE address = $1`, address)

	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, accrual.ErrAccountNotFound
	}
	return a, err
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accrual_accounts ORDER BY address`
	var args []any
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if opts.Offset > 0 {
		args = append(args, opts.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*account.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) GetGlobalState(ctx context.Context) (*account.GlobalState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT total_nominal_supply::text, global_interest_rate, updated_at
		 FROM accrual_ledger_state WHERE id = 1`)

	var (
		supply string
		rate   int64
		gs     account.GlobalState
	)
	if err := row.Scan(&supply, &rate, &gs.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accrual.ErrNotFound
		}
		return nil, err
	}

	var err error
	if gs.TotalNominalSupply, err = types.UnitsFromString(supply); err != nil {
		return nil, err
	}
	gs.GlobalInterestRate = types.Rate(rate)
	return &gs, nil
}

func (s *Store) GetVaultState(ctx context.Context) (*vault.State, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT total_liability::text, updated_at FROM accrual_vault_state WHERE id = 1`)

	var (
		liability string
		vs        vault.State
	)
	if err := row.Scan(&liability, &vs.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, accrual.ErrNotFound
		}
		return nil, err
	}

	var err error
	if vs.TotalLiability, err = types.UnitsFromString(liability); err != nil {
		return nil, err
	}
	return &vs, nil
}

func (s *Store) QueryRecords(ctx context.Context, opts journal.QueryOpts) ([]*journal.Record, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Kind != "" {
		conds = append(conds, "kind = "+arg(string(opts.Kind)))
	}
	if opts.Account != "" {
		p := arg(opts.Account)
		conds = append(conds, fmt.Sprintf("(account = %s OR counterparty = %s)", p, p))
	}
	if !opts.Start.IsZero() {
		conds = append(conds, "ts >= "+arg(opts.Start))
	}
	if !opts.End.IsZero() {
		conds = append(conds, "ts <= "+arg(opts.End))
	}

	q := `SELECT id, kind, account, counterparty, caller,
	             amount::text, new_balance::text, asset_amount::text,
	             old_rate, new_rate, ts
	      FROM accrual_journal`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY ts, id"
	if opts.Limit > 0 {
		q += " LIMIT " + arg(opts.Limit)
	}
	if opts.Offset > 0 {
		q += " OFFSET " + arg(opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*journal.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func (s *Store) PurgeRecords(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accrual_journal WHERE ts < $1`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ──────────────────────────────────────────────────
// Apply
// ──────────────────────────────────────────────────

// Apply commits the change set in a single transaction.
func (s *Store) Apply(ctx context.Context, cs *store.ChangeSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", accrual.ErrTransactionFailed, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, a := range cs.Accounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accrual_accounts
				(address, nominal_balance, interest_rate, last_settlement_time, created_at, updated_at)
			VALUES ($1, $2::numeric, $3, $4, $5, $6)
			ON CONFLICT (address) DO UPDATE SET
				nominal_balance = EXCLUDED.nominal_balance,
				interest_rate = EXCLUDED.interest_rate,
				last_settlement_time = EXCLUDED.last_settlement_time,
				updated_at = EXCLUDED.updated_at`,
			a.Address, a.NominalBalance.String(), int64(a.InterestRate),
			a.LastSettlementTime, a.CreatedAt, a.UpdatedAt,
		); err != nil {
			return fmt.Errorf("%w: account %s: %w", accrual.ErrTransactionFailed, a.Address, err)
		}
	}

	if cs.Ledger != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accrual_ledger_state (id, total_nominal_supply, global_interest_rate, updated_at)
			VALUES (1, $1::numeric, $2, $3)
			ON CONFLICT (id) DO UPDATE SET
				total_nominal_supply = EXCLUDED.total_nominal_supply,
				global_interest_rate = EXCLUDED.global_interest_rate,
				updated_at = EXCLUDED.updated_at`,
			cs.Ledger.TotalNominalSupply.String(), int64(cs.Ledger.GlobalInterestRate), cs.Ledger.UpdatedAt,
		); err != nil {
			return fmt.Errorf("%w: ledger state: %w", accrual.ErrTransactionFailed, err)
		}
	}

	if cs.Vault != nil {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accrual_vault_state (id, total_liability, updated_at)
			VALUES (1, $1::numeric, $2)
			ON CONFLICT (id) DO UPDATE SET
				total_liability = EXCLUDED.total_liability,
				updated_at = EXCLUDED.updated_at`,
			cs.Vault.TotalLiability.String(), cs.Vault.UpdatedAt,
		); err != nil {
			return fmt.Errorf("%w: vault state: %w", accrual.ErrTransactionFailed, err)
		}
	}

	for _, r := range cs.Records {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accrual_journal
				(id, kind, account, counterparty, caller, amount, new_balance, asset_amount, old_rate, new_rate, ts)
			VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11)`,
			r.ID.String(), string(r.Kind), r.Account, r.Counterparty, r.Caller,
			r.Amount.String(), r.NewBalance.String(), r.AssetAmount.String(),
			int64(r.OldRate), int64(r.NewRate), r.Timestamp,
		); err != nil {
			return fmt.Errorf("%w: journal record %s: %w", accrual.ErrTransactionFailed, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", accrual.ErrTransactionFailed, err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Scan helpers
// ──────────────────────────────────────────────────

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*account.Account, error) {
	var (
		a       account.Account
		balance string
		rate    int64
	)
	if err := row.Scan(
		&a.Address, &balance, &rate,
		&a.LastSettlementTime, &a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if a.NominalBalance, err = types.UnitsFromString(balance); err != nil {
		return nil, err
	}
	a.InterestRate = types.Rate(rate)
	return &a, nil
}

func scanRecord(row rowScanner) (*journal.Record, error) {
	var (
		r                               journal.Record
		rawID, kind                     string
		amount, newBalance, assetAmount string
		oldRate, newRate                int64
	)
	if err := row.Scan(
		&rawID, &kind, &r.Account, &r.Counterparty, &r.Caller,
		&amount, &newBalance, &assetAmount,
		&oldRate, &newRate, &r.Timestamp,
	); err != nil {
		return nil, err
	}

	parsed, err := id.Parse(rawID)
	if err != nil {
		return nil, err
	}
	r.ID = parsed
	r.Kind = journal.Kind(kind)
	if r.Amount, err = types.UnitsFromString(amount); err != nil {
		return nil, err
	}
	if r.NewBalance, err = types.UnitsFromString(newBalance); err != nil {
		return nil, err
	}
	if r.AssetAmount, err = types.UnitsFromString(assetAmount); err != nil {
		return nil, err
	}
	r.OldRate = types.Rate(oldRate)
	r.NewRate = types.Rate(newRate)
	return &r, nil
}

var _ store.Store = (*Store)(nil)
