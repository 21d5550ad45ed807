package gate

import (
	"errors"
	"testing"
)

func TestStaticCapabilities(t *testing.T) {
	g := NewStatic("admin", "minter")

	if !g.IsAdministrator("admin") {
		t.Error("expected admin to be administrator")
	}
	if g.IsAdministrator("minter") {
		t.Error("minter must not be administrator")
	}
	if !g.CanMintBurn("minter") {
		t.Error("expected minter to hold mint/burn capability")
	}
	if g.CanMintBurn("stranger") {
		t.Error("stranger must not hold mint/burn capability")
	}
}

func TestStaticGrantRevoke(t *testing.T) {
	g := NewStatic("admin")

	if err := g.Grant("admin", "alice"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !g.CanMintBurn("alice") {
		t.Error("expected alice to hold capability after grant")
	}
	if err := g.Revoke("admin", "alice"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if g.CanMintBurn("alice") {
		t.Error("expected capability gone after revoke")
	}

	if err := g.Grant("alice", "bob"); !errors.Is(err, ErrNotAdministrator) {
		t.Errorf("expected ErrNotAdministrator, got %v", err)
	}
}

func TestStaticPause(t *testing.T) {
	g := NewStatic("admin")

	if g.IsPaused() {
		t.Fatal("fresh gate must not be paused")
	}
	if err := g.Pause("intruder"); !errors.Is(err, ErrNotAdministrator) {
		t.Errorf("expected ErrNotAdministrator, got %v", err)
	}
	if err := g.Pause("admin"); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if !g.IsPaused() {
		t.Error("expected gate paused")
	}
	if err := g.Unpause("admin"); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if g.IsPaused() {
		t.Error("expected gate unpaused")
	}
}

func TestOpenAllowsEverything(t *testing.T) {
	g := Open{}
	if !g.CanMintBurn("anyone") || !g.IsAdministrator("anyone") || g.IsPaused() {
		t.Error("Open gate must allow everything and never pause")
	}
}
