// Package mongo provides a MongoDB-backed Store.
//
// Writes in a ChangeSet are applied as ordered upserts without a server
// transaction, so this backend targets replica-set-less deployments where
// the engine's own guard already serializes writers. A reader that races a
// multi-document Apply can observe the set partially applied.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/account"
	"github.com/xraph/accrual/journal"
	accrualstore "github.com/xraph/accrual/store"
	"github.com/xraph/accrual/vault"
)

// Collection name constants.
const (
	colAccounts    = "accrual_accounts"
	colLedgerState = "accrual_ledger_state"
	colVaultState  = "accrual_vault_state"
	colJournal     = "accrual_journal"
)

// singletonID keys the single bookkeeping document per state collection.
const singletonID = 1

// compile-time interface check
var _ accrualstore.Store = (*Store)(nil)

// Store implements store.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New wraps an already-connected client and database name.
func New(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// Migrate creates indexes for the journal collection. The other collections
// only ever query by _id.
func (s *Store) Migrate(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "kind", Value: 1}}},
		{Keys: bson.D{{Key: "account", Value: 1}}},
		{Keys: bson.D{{Key: "ts", Value: 1}}},
	}
	if _, err := s.db.Collection(colJournal).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("%w: journal indexes: %w", accrual.ErrMigrationFailed, err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, address string) (*account.Account, error) {
	var d accountDoc
	err := s.db.Collection(colAccounts).FindOne(ctx, bson.M{"_id": address}).Decode(&d)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrAccountNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get account: %w", err)
	}
	return fromAccountDoc(&d)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colAccounts).Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("accrual/mongo: list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var result []*account.Account
	for cur.Next(ctx) {
		var d accountDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		a, err := fromAccountDoc(&d)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, cur.Err()
}

func (s *Store) GetGlobalState(ctx context.Context) (*account.GlobalState, error) {
	var d ledgerStateDoc
	err := s.db.Collection(colLedgerState).FindOne(ctx, bson.M{"_id": singletonID}).Decode(&d)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get global state: %w", err)
	}
	return fromLedgerStateDoc(&d)
}

// ==================== Vault Store ====================

func (s *Store) GetVaultState(ctx context.Context) (*vault.State, error) {
	var d vaultStateDoc
	err := s.db.Collection(colVaultState).FindOne(ctx, bson.M{"_id": singletonID}).Decode(&d)
	if err != nil {
		if isNoDocuments(err) {
			return nil, accrual.ErrNotFound
		}
		return nil, fmt.Errorf("accrual/mongo: get vault state: %w", err)
	}
	return fromVaultStateDoc(&d)
}

// ==================== Journal Store ====================

func (s *Store) QueryRecords(ctx context.Context, opts journal.QueryOpts) ([]*journal.Record, error) {
	filter := bson.M{}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if opts.Account != "" {
		filter["$or"] = bson.A{
			bson.M{"account": opts.Account},
			bson.M{"counterparty": opts.Account},
		}
	}
	ts := bson.M{}
	if !opts.Start.IsZero() {
		ts["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		ts["$lte"] = opts.End
	}
	if len(ts) > 0 {
		filter["ts"] = ts
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "ts", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cur, err := s.db.Collection(colJournal).Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("accrual/mongo: query records: %w", err)
	}
	defer cur.Close(ctx)

	var result []*journal.Record
	for cur.Next(ctx) {
		var d recordDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		r, err := fromRecordDoc(&d)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, cur.Err()
}

func (s *Store) PurgeRecords(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.Collection(colJournal).DeleteMany(ctx, bson.M{"ts": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("accrual/mongo: purge records: %w", err)
	}
	return res.DeletedCount, nil
}

// ==================== Apply ====================

// Apply writes the change set as ordered replace-upserts. Singleton rows go
// last so a crash mid-apply leaves the supply row behind the account rows,
// which settlement self-corrects, rather than ahead of them.
func (s *Store) Apply(ctx context.Context, cs *accrualstore.ChangeSet) error {
	for _, a := range cs.Accounts {
		_, err := s.db.Collection(colAccounts).ReplaceOne(ctx,
			bson.M{"_id": a.Address},
			toAccountDoc(a),
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("%w: account %s: %w", accrual.ErrTransactionFailed, a.Address, err)
		}
	}

	if cs.Ledger != nil {
		_, err := s.db.Collection(colLedgerState).ReplaceOne(ctx,
			bson.M{"_id": singletonID},
			toLedgerStateDoc(cs.Ledger),
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("%w: ledger state: %w", accrual.ErrTransactionFailed, err)
		}
	}

	if cs.Vault != nil {
		_, err := s.db.Collection(colVaultState).ReplaceOne(ctx,
			bson.M{"_id": singletonID},
			toVaultStateDoc(cs.Vault),
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("%w: vault state: %w", accrual.ErrTransactionFailed, err)
		}
	}

	if len(cs.Records) > 0 {
		docs := make([]any, len(cs.Records))
		for i, r := range cs.Records {
			docs[i] = toRecordDoc(r)
		}
		if _, err := s.db.Collection(colJournal).InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("%w: journal records: %w", accrual.ErrTransactionFailed, err)
		}
	}

	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
