package audithook

// Action constants for audit events.
const (
	// Rate actions
	ActionRateChanged = "rate.changed"

	// Ledger actions
	ActionInterestSettled = "interest.settled"
	ActionMinted          = "units.minted"
	ActionBurned          = "units.burned"
	ActionTransferred     = "units.transferred"

	// Vault actions
	ActionDeposited        = "vault.deposited"
	ActionRedeemed         = "vault.redeemed"
	ActionRewardsDeposited = "vault.rewards_deposited"
	ActionExcessWithdrawn  = "vault.excess_withdrawn"
)

// Resource constants for audit events.
const (
	ResourceRate    = "rate"
	ResourceAccount = "account"
	ResourceVault   = "vault"
)

// Category constants for audit events.
const (
	CategoryGovernance = "governance"
	CategoryLedger     = "ledger"
	CategoryCollateral = "collateral"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
