package extension

// Config holds the accrual extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.accrual" or "accrual" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// InitialRate is the global interest rate a fresh ledger is seeded
	// with, as a raw fixed-point per-second value. Ignored once the ledger
	// has persisted state; the stored rate wins.
	InitialRate uint64 `json:"initial_rate" mapstructure:"initial_rate" yaml:"initial_rate"`

	// Administrator is the identity granted rate and vault administration
	// rights when no gate is supplied programmatically.
	Administrator string `json:"administrator" mapstructure:"administrator" yaml:"administrator"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{}
}
