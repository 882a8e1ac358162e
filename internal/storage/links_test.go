package storage

import (
	"context"
	"errors"
	"strconv"
	"testing"
)

func TestLogContextLink(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	d, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "use queues"})
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}
	p, err := r.LogProgress(ctx, ws, ProgressArgs{Status: "TODO", Description: "add broker"})
	if err != nil {
		t.Fatalf("LogProgress: %v", err)
	}

	l, err := r.LogContextLink(ctx, ws, ContextLinkArgs{
		SourceItemType:   "progress_entry",
		SourceItemID:     strconv.FormatInt(p.ID, 10),
		TargetItemType:   "decision",
		TargetItemID:     strconv.FormatInt(d.ID, 10),
		RelationshipType: "implements",
	})
	if err != nil {
		t.Fatalf("LogContextLink: %v", err)
	}
	if l.ID == 0 || l.Timestamp == "" {
		t.Errorf("Link not fully materialized: %+v", l)
	}
}

func TestLogContextLinkValidatesEndpoints(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	d, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "real"})
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}

	cases := []ContextLinkArgs{
		{SourceItemType: "decision", SourceItemID: "9999", TargetItemType: "decision", TargetItemID: strconv.FormatInt(d.ID, 10), RelationshipType: "relates_to"},
		{SourceItemType: "unicorn", SourceItemID: "1", TargetItemType: "decision", TargetItemID: strconv.FormatInt(d.ID, 10), RelationshipType: "relates_to"},
		{SourceItemType: "decision", SourceItemID: strconv.FormatInt(d.ID, 10), TargetItemType: "decision", TargetItemID: strconv.FormatInt(d.ID, 10), RelationshipType: ""},
	}
	for i, args := range cases {
		if _, err := r.LogContextLink(ctx, ws, args); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestGetContextLinksFiltersDangling(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	d1, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "keep"})
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}
	d2, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "doomed"})
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}
	p, err := r.LogProgress(ctx, ws, ProgressArgs{Status: "TODO", Description: "work"})
	if err != nil {
		t.Fatalf("LogProgress: %v", err)
	}

	mustLink := func(srcType, srcID, dstType, dstID string) {
		t.Helper()
		if _, err := r.LogContextLink(ctx, ws, ContextLinkArgs{
			SourceItemType: srcType, SourceItemID: srcID,
			TargetItemType: dstType, TargetItemID: dstID,
			RelationshipType: "relates_to",
		}); err != nil {
			t.Fatalf("LogContextLink: %v", err)
		}
	}
	mustLink("progress_entry", strconv.FormatInt(p.ID, 10), "decision", strconv.FormatInt(d1.ID, 10))
	mustLink("progress_entry", strconv.FormatInt(p.ID, 10), "decision", strconv.FormatInt(d2.ID, 10))

	if err := r.DeleteDecisionByID(ctx, ws, d2.ID); err != nil {
		t.Fatalf("DeleteDecisionByID: %v", err)
	}

	links, _, err := r.GetContextLinks(ctx, ws, LinkFilter{ItemType: "progress_entry", ItemID: strconv.FormatInt(p.ID, 10)}, Page{})
	if err != nil {
		t.Fatalf("GetContextLinks: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("Expected 1 live link, got %d", len(links))
	}
	if links[0].TargetItemID != strconv.FormatInt(d1.ID, 10) {
		t.Errorf("Surviving link targets %s, want %d", links[0].TargetItemID, d1.ID)
	}
}

func TestGetContextLinksItemIDRequiresType(t *testing.T) {
	r, ws := setupRepo(t)

	_, _, err := r.GetContextLinks(context.Background(), ws, LinkFilter{ItemID: "1"}, Page{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected ErrValidation, got %v", err)
	}
}

func TestDeleteContextLink(t *testing.T) {
	r, ws := setupRepo(t)
	ctx := context.Background()

	d, err := r.LogDecision(ctx, ws, DecisionArgs{Summary: "a"})
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}
	p, err := r.LogProgress(ctx, ws, ProgressArgs{Status: "TODO", Description: "b"})
	if err != nil {
		t.Fatalf("LogProgress: %v", err)
	}
	l, err := r.LogContextLink(ctx, ws, ContextLinkArgs{
		SourceItemType: "decision", SourceItemID: strconv.FormatInt(d.ID, 10),
		TargetItemType: "progress_entry", TargetItemID: strconv.FormatInt(p.ID, 10),
		RelationshipType: "tracked_by",
	})
	if err != nil {
		t.Fatalf("LogContextLink: %v", err)
	}

	if err := r.DeleteContextLinkByID(ctx, ws, l.ID); err != nil {
		t.Fatalf("DeleteContextLinkByID: %v", err)
	}
	if err := r.DeleteContextLinkByID(ctx, ws, l.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
}
