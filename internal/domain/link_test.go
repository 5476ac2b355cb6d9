package domain

import (
	"testing"
)

func TestNewLink(t *testing.T) {
	t.Run("creates link with generated ID", func(t *testing.T) {
		link := NewLink("b1", "d1")

		if link.BusinessID != "b1" {
			t.Errorf("expected BusinessID 'b1', got %s", link.BusinessID)
		}
		if link.DepartmentID != "d1" {
			t.Errorf("expected DepartmentID 'd1', got %s", link.DepartmentID)
		}
		if link.ID == "" {
			t.Error("expected ID to be generated")
		}
	})
}

func TestLinkGenerateID(t *testing.T) {
	t.Run("generates consistent ID", func(t *testing.T) {
		if NewLink("b1", "d1").ID != NewLink("b1", "d1").ID {
			t.Error("expected same endpoints to generate same ID")
		}
	})

	t.Run("different endpoints generate different IDs", func(t *testing.T) {
		if NewLink("b1", "d1").ID == NewLink("b1", "d2").ID {
			t.Error("expected different endpoints to generate different IDs")
		}
	})

	t.Run("generates short hash", func(t *testing.T) {
		id := NewLink("b1", "d1").ID
		if len(id) != 16 {
			t.Errorf("expected 16 hex chars, got %d (%s)", len(id), id)
		}
	})
}

func TestLinkOther(t *testing.T) {
	link := NewLink("b1", "d1")

	if got := link.Other("b1"); got != "d1" {
		t.Errorf("Other(b1) = %q, want d1", got)
	}
	if got := link.Other("d1"); got != "b1" {
		t.Errorf("Other(d1) = %q, want b1", got)
	}
	if got := link.Other("x"); got != "" {
		t.Errorf("Other(x) = %q, want empty", got)
	}
}
