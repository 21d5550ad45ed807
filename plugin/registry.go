package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/accrual/types"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit             []OnInit
	onShutdown         []OnShutdown
	onRateChanged      []OnRateChanged
	onInterestSettled  []OnInterestSettled
	onMinted           []OnMinted
	onBurned           []OnBurned
	onTransferred      []OnTransferred
	onDeposited        []OnDeposited
	onRedeemed         []OnRedeemed
	onRewardsDeposited []OnRewardsDeposited
	onExcessWithdrawn  []OnExcessWithdrawn
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnRateChanged); ok {
		r.onRateChanged = append(r.onRateChanged, v)
	}
	if v, ok := p.(OnInterestSettled); ok {
		r.onInterestSettled = append(r.onInterestSettled, v)
	}
	if v, ok := p.(OnMinted); ok {
		r.onMinted = append(r.onMinted, v)
	}
	if v, ok := p.(OnBurned); ok {
		r.onBurned = append(r.onBurned, v)
	}
	if v, ok := p.(OnTransferred); ok {
		r.onTransferred = append(r.onTransferred, v)
	}
	if v, ok := p.(OnDeposited); ok {
		r.onDeposited = append(r.onDeposited, v)
	}
	if v, ok := p.(OnRedeemed); ok {
		r.onRedeemed = append(r.onRedeemed, v)
	}
	if v, ok := p.(OnRewardsDeposited); ok {
		r.onRewardsDeposited = append(r.onRewardsDeposited, v)
	}
	if v, ok := p.(OnExcessWithdrawn); ok {
		r.onExcessWithdrawn = append(r.onExcessWithdrawn, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnRateChanged)(nil)).Elem(), "OnRateChanged")
	checkInterface(reflect.TypeOf((*OnInterestSettled)(nil)).Elem(), "OnInterestSettled")
	checkInterface(reflect.TypeOf((*OnMinted)(nil)).Elem(), "OnMinted")
	checkInterface(reflect.TypeOf((*OnBurned)(nil)).Elem(), "OnBurned")
	checkInterface(reflect.TypeOf((*OnTransferred)(nil)).Elem(), "OnTransferred")
	checkInterface(reflect.TypeOf((*OnDeposited)(nil)).Elem(), "OnDeposited")
	checkInterface(reflect.TypeOf((*OnRedeemed)(nil)).Elem(), "OnRedeemed")
	checkInterface(reflect.TypeOf((*OnRewardsDeposited)(nil)).Elem(), "OnRewardsDeposited")
	checkInterface(reflect.TypeOf((*OnExcessWithdrawn)(nil)).Elem(), "OnExcessWithdrawn")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, ledger)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRateChanged emits a rate changed event.
func (r *Registry) EmitRateChanged(ctx context.Context, oldRate, newRate types.Rate, caller string) {
	r.mu.RLock()
	plugins := r.onRateChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRateChanged(ctx, oldRate, newRate, caller)
		}); err != nil {
			r.logger.Warn("plugin OnRateChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInterestSettled emits an interest settled event.
func (r *Registry) EmitInterestSettled(ctx context.Context, account string, interest, newBalance types.Units) {
	r.mu.RLock()
	plugins := r.onInterestSettled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInterestSettled(ctx, account, interest, newBalance)
		}); err != nil {
			r.logger.Warn("plugin OnInterestSettled failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitMinted emits a minted event.
func (r *Registry) EmitMinted(ctx context.Context, to string, amount types.Units, caller string) {
	r.mu.RLock()
	plugins := r.onMinted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnMinted(ctx, to, amount, caller)
		}); err != nil {
			r.logger.Warn("plugin OnMinted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBurned emits a burned event.
func (r *Registry) EmitBurned(ctx context.Context, from string, amount types.Units, caller string) {
	r.mu.RLock()
	plugins := r.onBurned
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBurned(ctx, from, amount, caller)
		}); err != nil {
			r.logger.Warn("plugin OnBurned failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitTransferred emits a transferred event.
func (r *Registry) EmitTransferred(ctx context.Context, from, to string, amount types.Units) {
	r.mu.RLock()
	plugins := r.onTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTransferred(ctx, from, to, amount)
		}); err != nil {
			r.logger.Warn("plugin OnTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitDeposited emits a deposited event.
func (r *Registry) EmitDeposited(ctx context.Context, user string, assetIn, unitsOut types.Units) {
	r.mu.RLock()
	plugins := r.onDeposited
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDeposited(ctx, user, assetIn, unitsOut)
		}); err != nil {
			r.logger.Warn("plugin OnDeposited failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRedeemed emits a redeemed event.
func (r *Registry) EmitRedeemed(ctx context.Context, user string, unitsIn, assetOut types.Units) {
	r.mu.RLock()
	plugins := r.onRedeemed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRedeemed(ctx, user, unitsIn, assetOut)
		}); err != nil {
			r.logger.Warn("plugin OnRedeemed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitRewardsDeposited emits a rewards deposited event.
func (r *Registry) EmitRewardsDeposited(ctx context.Context, caller string, amount types.Units) {
	r.mu.RLock()
	plugins := r.onRewardsDeposited
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRewardsDeposited(ctx, caller, amount)
		}); err != nil {
			r.logger.Warn("plugin OnRewardsDeposited failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitExcessWithdrawn emits an excess withdrawn event.
func (r *Registry) EmitExcessWithdrawn(ctx context.Context, caller string, amount types.Units) {
	r.mu.RLock()
	plugins := r.onExcessWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnExcessWithdrawn(ctx, caller, amount)
		}); err != nil {
			r.logger.Warn("plugin OnExcessWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
