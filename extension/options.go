package extension

import (
	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/asset"
	"github.com/xraph/accrual/gate"
	"github.com/xraph/accrual/plugin"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/types"
)

// Option configures the accrual Forge extension.
type Option func(*Extension)

// WithStore sets the store for the accrual engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithTreasury sets the base-asset treasury. When present, Register also
// constructs a collateral vault and provides it in the DI container.
func WithTreasury(t asset.Treasury) Option {
	return func(e *Extension) {
		e.treasury = t
	}
}

// WithGate sets the capability gate for the engine.
func WithGate(g gate.Gate) Option {
	return func(e *Extension) {
		e.gate = g
	}
}

// WithLedgerOption passes an accrual.Option through to the underlying engine.
func WithLedgerOption(opt accrual.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, accrual.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithInitialRate sets the rate a fresh ledger is seeded with.
func WithInitialRate(r types.Rate) Option {
	return func(e *Extension) { e.config.InitialRate = uint64(r) }
}

// WithAdministrator sets the identity granted administration rights when no
// gate is supplied.
func WithAdministrator(admin string) Option {
	return func(e *Extension) { e.config.Administrator = admin }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
