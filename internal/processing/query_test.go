package processing

import (
	"testing"

	"pedidobot/internal/classify"
	"pedidobot/internal/pedidos"
)

func TestMergeQuery(t *testing.T) {
	req := &pedidos.Request{Title: "berserk vol 2 cap 14", Description: "version deluxe"}
	q := mergeQuery(req, classify.Result{Title: "Berserk", Chapter: "14", Category: "manga", Tags: []string{"seinen", "Seinen", " "}})
	if q.Title != "Berserk" || q.Chapter != "14" || q.Category != "manga" {
		t.Fatalf("unexpected merged query %+v", q)
	}
	if q.Description != "version deluxe" {
		t.Fatalf("expected description to be kept, got %q", q.Description)
	}
	if len(q.Tags) != 1 || q.Tags[0] != "seinen" {
		t.Fatalf("expected deduplicated tags, got %v", q.Tags)
	}
	if got := describeQuery(q); got != "Berserk cap 14 [manga] #seinen version deluxe" {
		t.Fatalf("unexpected description %q", got)
	}
}

func TestFallbackQueryUsesAttachmentName(t *testing.T) {
	req := &pedidos.Request{Attachment: &pedidos.Attachment{OriginalName: "Monster 01.pdf"}}
	if q := fallbackQuery(req); q.Title != "Monster 01" {
		t.Fatalf("unexpected title %q", q.Title)
	}
}

func TestMatchNote(t *testing.T) {
	if matchNote(0) != NoMatchesNote {
		t.Fatalf("unexpected zero note %q", matchNote(0))
	}
	if matchNote(3) != "3 coincidencia(s)" {
		t.Fatalf("unexpected note %q", matchNote(3))
	}
}
