package domain

import "testing"

func TestNormalizeIdempotent(t *testing.T) {
	tax := DefaultLabelTaxonomy()
	labels := []string{"Stressed", "INTIMATE", "conflict", "  Fighting  "}
	for _, l := range labels {
		once := tax.Normalize(l)
		twice := tax.Normalize(once)
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: once=%q twice=%q", l, once, twice)
		}
	}
}

func TestSplitCoarseFineDisjoint(t *testing.T) {
	tax := DefaultLabelTaxonomy()
	labels := []string{"stress", "sexuality", "conflict", "trauma_indicator", "unknown_label"}
	coarse, fine := tax.SplitCoarseFine(labels)
	for _, c := range coarse {
		if tax.IsFine(c) {
			t.Fatalf("coarse label %q is also fine", c)
		}
	}
	for _, f := range fine {
		if tax.IsCoarse(f) {
			t.Fatalf("fine label %q is also coarse", f)
		}
	}
	if len(coarse)+len(fine) != 4 {
		t.Fatalf("expected unknown_label dropped, got coarse=%v fine=%v", coarse, fine)
	}
}

func TestExpandCoOccurrence(t *testing.T) {
	tax := DefaultLabelTaxonomy()
	expanded := tax.ExpandCoOccurrence([]string{"conflict", "distance"})
	found := false
	for _, l := range expanded {
		if l == "boundary" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected co-occurrence rule to imply boundary, got %v", expanded)
	}
}

func TestDetectRelationshipContextEmpty(t *testing.T) {
	if got := DetectRelationshipContext(nil); got != RelationshipUnknown {
		t.Fatalf("expected unknown for empty labels, got %v", got)
	}
}

func TestDetectRelationshipContextRomantic(t *testing.T) {
	got := DetectRelationshipContext([]string{"intimacy", "affection", "trust_building"})
	if got != RelationshipRomantic {
		t.Fatalf("expected romantic, got %v", got)
	}
}
