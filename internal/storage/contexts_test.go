package storage

import (
	"context"
	"errors"
	"testing"
)

func TestUpdateProductContextFullReplace(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	pc, err := r.UpdateProductContext(ctx, ws, UpdateContextArgs{
		Content: map[string]any{"goal": "ship v1", "stack": "go"},
	})
	if err != nil {
		t.Fatalf("UpdateProductContext: %v", err)
	}
	if pc.Content["goal"] != "ship v1" {
		t.Errorf("goal = %v, want %q", pc.Content["goal"], "ship v1")
	}

	pc, err = r.UpdateProductContext(ctx, ws, UpdateContextArgs{
		Content: map[string]any{"goal": "ship v2"},
	})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if _, ok := pc.Content["stack"]; ok {
		t.Error("Full replace should drop keys absent from the new content")
	}
}

func TestUpdateActiveContextPatch(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	if _, err := r.UpdateActiveContext(ctx, ws, UpdateContextArgs{
		Content: map[string]any{"focus": "storage", "mood": "good"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ac, err := r.UpdateActiveContext(ctx, ws, UpdateContextArgs{
		PatchContent: map[string]any{"focus": "search", "mood": DeleteSentinel, "blocker": "none"},
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if ac.Content["focus"] != "search" {
		t.Errorf("focus = %v, want %q", ac.Content["focus"], "search")
	}
	if _, ok := ac.Content["mood"]; ok {
		t.Error("Sentinel value should delete the key")
	}
	if ac.Content["blocker"] != "none" {
		t.Errorf("blocker = %v, want %q", ac.Content["blocker"], "none")
	}
}

func TestUpdateContextValidation(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	_, err := r.UpdateProductContext(ctx, ws, UpdateContextArgs{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for empty args, got %v", err)
	}

	_, err = r.UpdateProductContext(ctx, ws, UpdateContextArgs{
		Content:      map[string]any{"a": 1},
		PatchContent: map[string]any{"b": 2},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for both content and patch, got %v", err)
	}
}

func TestContextHistoryVersions(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	for i, goal := range []string{"first", "second", "third"} {
		_, err := r.UpdateProductContext(ctx, ws, UpdateContextArgs{
			Content:      map[string]any{"goal": goal},
			ChangeSource: "test",
		})
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}

	entries, err := r.GetItemHistory(ctx, ws, "product_context", HistoryArgs{})
	if err != nil {
		t.Fatalf("GetItemHistory: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 history entries, got %d", len(entries))
	}
	// Newest first, versions strictly increasing from 1.
	if entries[0].Version != 3 || entries[2].Version != 1 {
		t.Errorf("Versions = %d..%d, want 3..1", entries[0].Version, entries[2].Version)
	}
	// Version 2 holds the content that was replaced by the second update.
	if entries[1].Content["goal"] != "first" {
		t.Errorf("Version 2 content = %v, want previous goal %q", entries[1].Content["goal"], "first")
	}
	if entries[0].ChangeSource != "test" {
		t.Errorf("ChangeSource = %q, want %q", entries[0].ChangeSource, "test")
	}

	bounded, err := r.GetItemHistory(ctx, ws, "product_context", HistoryArgs{VersionMin: 2, VersionMax: 2})
	if err != nil {
		t.Fatalf("bounded history: %v", err)
	}
	if len(bounded) != 1 || bounded[0].Version != 2 {
		t.Fatalf("Expected only version 2, got %v", bounded)
	}
}

func TestItemHistoryUnknownItem(t *testing.T) {
	r, ws := setupRepo(t)

	_, err := r.GetItemHistory(context.Background(), ws, "decisions", HistoryArgs{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation for unknown history item, got %v", err)
	}
}
