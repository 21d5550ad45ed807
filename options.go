package accrual

import (
	"log/slog"

	"github.com/benbjohnson/clock"

	"github.com/xraph/accrual/gate"
	"github.com/xraph/accrual/plugin"
	"github.com/xraph/accrual/types"
)

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithGate sets the capability gate consulted on every state-changing
// operation. Defaults to gate.Open, which allows everything.
func WithGate(g gate.Gate) Option {
	return func(l *Ledger) {
		l.gate = g
	}
}

// WithClock sets the clock used for settlement timestamps. Tests inject a
// mock clock to advance time without sleeping.
func WithClock(c clock.Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithInitialRate sets the global interest rate a fresh ledger starts at.
// Ignored when Start finds persisted ledger state, whose rate wins.
func WithInitialRate(r types.Rate) Option {
	return func(l *Ledger) {
		l.initialRate = r
	}
}
