package feed

import (
	"testing"
)

func TestSelectionFollowsRouteByDefault(t *testing.T) {
	var s Selection

	if s.State() != SelectionRouted {
		t.Errorf("Expected routed state, got %s", s.State())
	}

	id, ok := s.ActivePostID("7")
	if !ok || id != "7" {
		t.Errorf("Expected route id '7', got '%s' (ok=%v)", id, ok)
	}

	if _, ok := s.ActivePostID(""); ok {
		t.Error("Expected no active post without route id or override")
	}
}

func TestSelectionOverrideAndClear(t *testing.T) {
	var s Selection

	s.Activate("42")
	if s.State() != SelectionOverridden {
		t.Errorf("Expected overridden state, got %s", s.State())
	}
	if id, _ := s.ActivePostID("7"); id != "42" {
		t.Errorf("Expected override '42', got '%s'", id)
	}
	if id, ok := s.ActivePostID(""); !ok || id != "42" {
		t.Errorf("Expected override without route id, got '%s' (ok=%v)", id, ok)
	}

	s.Clear()
	if id, _ := s.ActivePostID("7"); id != "7" {
		t.Errorf("Expected route id after clear, got '%s'", id)
	}

	s.Clear()
	if s.State() != SelectionRouted {
		t.Errorf("Expected second clear to be a no-op, got %s", s.State())
	}
}

func TestSelectionActivateEmptyClears(t *testing.T) {
	s := Selection{Override: "3"}

	s.Activate("")

	if s.State() != SelectionRouted {
		t.Errorf("Expected empty activation to clear override, got %s", s.State())
	}
}
