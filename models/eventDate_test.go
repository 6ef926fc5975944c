package models

import (
	"errors"
	"testing"
	"time"
)

func TestEventDateBeforeSave_ScopeAndDefaults(t *testing.T) {
	groupId := 3
	store := "S01"
	nominal := time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

	conflicting := &EventDate{NominalDate: nominal, StoreGroupId: &groupId, StoreCode: &store}
	if err := conflicting.BeforeSave(nil); !errors.Is(err, ErrConflictingScope) {
		t.Fatalf("expected ErrConflictingScope, got %v", err)
	}

	row := &EventDate{NominalDate: nominal}
	if err := row.BeforeSave(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !row.ReferenceDate.Equal(nominal) {
		t.Fatalf("expected reference date defaulted to nominal, got %s", row.ReferenceDate)
	}
	if row.Channel != ChannelAll {
		t.Fatalf("expected channel defaulted to %q, got %q", ChannelAll, row.Channel)
	}
}

func TestEventDateScopeKey(t *testing.T) {
	groupId := 3
	store := "S01"

	if got := (&EventDate{}).ScopeKey(); got != "all" {
		t.Fatalf("expected all, got %s", got)
	}
	if got := (&EventDate{StoreGroupId: &groupId}).ScopeKey(); got != "group:3" {
		t.Fatalf("expected group:3, got %s", got)
	}
	if got := (&EventDate{StoreCode: &store}).ScopeKey(); got != "store:S01" {
		t.Fatalf("expected store:S01, got %s", got)
	}
}
