package storage

import (
	"context"
	"errors"
	"testing"
)

func TestLogCustomDataUpsert(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	first, err := r.LogCustomData(ctx, ws, CustomDataArgs{Category: "settings", Key: "theme", Value: "dark"})
	if err != nil {
		t.Fatalf("LogCustomData: %v", err)
	}

	// Same coordinates replace the value instead of conflicting.
	second, err := r.LogCustomData(ctx, ws, CustomDataArgs{Category: "settings", Key: "theme", Value: "light"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Upsert changed id: %d -> %d", first.ID, second.ID)
	}

	entries, err := r.GetCustomData(ctx, ws, "settings", "theme")
	if err != nil {
		t.Fatalf("GetCustomData: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "light" {
		t.Fatalf("Expected single entry with replaced value, got %v", entries)
	}
}

func TestCustomDataStructuredValues(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	value := map[string]any{"retries": float64(3), "backoff": "exponential"}
	if _, err := r.LogCustomData(ctx, ws, CustomDataArgs{Category: "policy", Key: "http", Value: value}); err != nil {
		t.Fatalf("LogCustomData: %v", err)
	}

	entries, err := r.GetCustomData(ctx, ws, "policy", "http")
	if err != nil {
		t.Fatalf("GetCustomData: %v", err)
	}
	got, ok := entries[0].Value.(map[string]any)
	if !ok {
		t.Fatalf("Value type = %T, want map", entries[0].Value)
	}
	if got["retries"] != float64(3) || got["backoff"] != "exponential" {
		t.Errorf("Value round trip mismatch: %v", got)
	}
}

func TestGetCustomDataKeyRequiresCategory(t *testing.T) {
	r, ws := setupRepo(t)

	_, err := r.GetCustomData(context.Background(), ws, "", "theme")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for key without category, got %v", err)
	}
}

func TestGetCustomDataByCategory(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	seed := []CustomDataArgs{
		{Category: "settings", Key: "theme", Value: "dark"},
		{Category: "settings", Key: "lang", Value: "en"},
		{Category: "notes", Key: "misc", Value: "x"},
	}
	for _, args := range seed {
		if _, err := r.LogCustomData(ctx, ws, args); err != nil {
			t.Fatalf("LogCustomData: %v", err)
		}
	}

	entries, err := r.GetCustomData(ctx, ws, "settings", "")
	if err != nil {
		t.Fatalf("GetCustomData: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 settings entries, got %d", len(entries))
	}

	all, err := r.GetCustomData(ctx, ws, "", "")
	if err != nil {
		t.Fatalf("GetCustomData all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 entries total, got %d", len(all))
	}
}

func TestDeleteCustomData(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	if _, err := r.LogCustomData(ctx, ws, CustomDataArgs{Category: "settings", Key: "theme", Value: "dark"}); err != nil {
		t.Fatalf("LogCustomData: %v", err)
	}
	if err := r.DeleteCustomData(ctx, ws, "settings", "theme"); err != nil {
		t.Fatalf("DeleteCustomData: %v", err)
	}
	if err := r.DeleteCustomData(ctx, ws, "settings", "theme"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestSearchCustomDataValueFTS(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	seed := []CustomDataArgs{
		{Category: "ProjectGlossary", Key: "workspace", Value: "a directory holding one project's context"},
		{Category: "notes", Key: "reminder", Value: "check the workspace registry"},
	}
	for _, args := range seed {
		if _, err := r.LogCustomData(ctx, ws, args); err != nil {
			t.Fatalf("LogCustomData: %v", err)
		}
	}

	hits, err := r.SearchCustomDataValueFTS(ctx, ws, "workspace", "", 10)
	if err != nil {
		t.Fatalf("SearchCustomDataValueFTS: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}

	scoped, err := r.SearchCustomDataValueFTS(ctx, ws, "workspace", "notes", 10)
	if err != nil {
		t.Fatalf("scoped search: %v", err)
	}
	if len(scoped) != 1 || scoped[0].Category != "notes" {
		t.Fatalf("Expected only the notes hit, got %v", scoped)
	}
}

func TestSearchProjectGlossaryFTS(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	seed := []CustomDataArgs{
		{Category: "ProjectGlossary", Key: "dialect", Value: "backend strategy chosen at startup"},
		{Category: "notes", Key: "misc", Value: "dialect talk elsewhere"},
	}
	for _, args := range seed {
		if _, err := r.LogCustomData(ctx, ws, args); err != nil {
			t.Fatalf("LogCustomData: %v", err)
		}
	}

	hits, err := r.SearchProjectGlossaryFTS(ctx, ws, "dialect", 10)
	if err != nil {
		t.Fatalf("SearchProjectGlossaryFTS: %v", err)
	}
	if len(hits) != 1 || hits[0].Category != GlossaryCategory {
		t.Fatalf("Expected only the glossary hit, got %v", hits)
	}
}
