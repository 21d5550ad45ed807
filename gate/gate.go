// Package gate defines the capability boundary the ledger and vault
// consume: who may mint and burn, who administers the system, and whether
// the system is paused. The core only ever asks these three questions;
// policy lives behind the interface.
package gate

// Gate answers authorization and pause queries for the engines.
type Gate interface {
	// CanMintBurn reports whether the caller holds the mint/burn capability.
	CanMintBurn(caller string) bool

	// IsPaused reports whether state-changing operations are suspended.
	IsPaused() bool

	// IsAdministrator reports whether the caller is the single administrator.
	IsAdministrator(caller string) bool
}

// Open is a Gate that allows everything and never pauses. Use it in
// examples and throwaway environments only.
type Open struct{}

// CanMintBurn implements Gate.
func (Open) CanMintBurn(string) bool { return true }

// IsPaused implements Gate.
func (Open) IsPaused() bool { return false }

// IsAdministrator implements Gate.
func (Open) IsAdministrator(string) bool { return true }
