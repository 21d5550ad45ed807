// Package extension provides the Forge extension adapter for the accrual
// engine.
//
// It implements the forge.Extension interface to integrate the engine
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.accrual" or "accrual" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	accrual "github.com/xraph/accrual"
	"github.com/xraph/accrual/asset"
	"github.com/xraph/accrual/gate"
	"github.com/xraph/accrual/store"
	"github.com/xraph/accrual/store/memory"
	"github.com/xraph/accrual/types"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "accrual"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Interest-accruing balance ledger with collateral vault"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the accrual engine as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *accrual.Ledger
	vault      *accrual.Vault
	store      store.Store
	treasury   asset.Treasury
	gate       gate.Gate
	ledgerOpts []accrual.Option
}

// New creates a new accrual Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *accrual.Ledger { return e.engine }

// Vault returns the collateral vault, nil unless a treasury was supplied.
func (e *Extension) Vault() *accrual.Vault { return e.vault }

// Register implements [forge.Extension]. It loads configuration,
// initializes the accrual engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	opts := e.buildLedgerOpts()
	e.engine = accrual.New(e.store, opts...)

	if e.treasury != nil {
		e.vault = accrual.NewVault(e.engine, e.treasury)
	}

	if err := vessel.Provide(fapp.Container(), func() (*accrual.Ledger, error) {
		return e.engine, nil
	}); err != nil {
		return err
	}

	if e.vault != nil {
		return vessel.Provide(fapp.Container(), func() (*accrual.Vault, error) {
			return e.vault, nil
		})
	}
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("accrual: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("accrual: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs accrual.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []accrual.Option {
	opts := make([]accrual.Option, 0, len(e.ledgerOpts)+2)

	if e.config.InitialRate > 0 {
		opts = append(opts, accrual.WithInitialRate(types.Rate(e.config.InitialRate)))
	}

	// A programmatic gate wins over the config-declared administrator.
	switch {
	case e.gate != nil:
		opts = append(opts, accrual.WithGate(e.gate))
	case e.config.Administrator != "":
		opts = append(opts, accrual.WithGate(gate.NewStatic(e.config.Administrator)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("accrual: configuration is required but not found in config files; " +
				"ensure 'extensions.accrual' or 'accrual' key exists in your config")
		}
		e.config = programmaticConfig
	} else {
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("accrual: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("initial_rate", e.config.InitialRate),
		forge.F("administrator", e.config.Administrator),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.accrual" first (namespaced pattern).
	if cm.IsSet("extensions.accrual") {
		if err := cm.Bind("extensions.accrual", &cfg); err == nil {
			e.Logger().Debug("accrual: loaded config from file",
				forge.F("key", "extensions.accrual"),
			)
			return cfg, true
		}
		e.Logger().Warn("accrual: failed to bind extensions.accrual config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "accrual" key.
	if cm.IsSet("accrual") {
		if err := cm.Bind("accrual", &cfg); err == nil {
			e.Logger().Debug("accrual: loaded config from file",
				forge.F("key", "accrual"),
			)
			return cfg, true
		}
		e.Logger().Warn("accrual: failed to bind accrual config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.InitialRate == 0 && programmaticConfig.InitialRate != 0 {
		yamlConfig.InitialRate = programmaticConfig.InitialRate
	}
	if yamlConfig.Administrator == "" && programmaticConfig.Administrator != "" {
		yamlConfig.Administrator = programmaticConfig.Administrator
	}
	return yamlConfig
}
