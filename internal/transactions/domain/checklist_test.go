package domain

import (
	"testing"

	"github.com/google/uuid"
)

func item(id uuid.UUID, parent *uuid.UUID, status ItemStatus, weight float64) ChecklistItem {
	return ChecklistItem{ID: id, ParentID: parent, Status: status, Weight: weight}
}

func TestEffectiveCompleted_ParentDerivesFromChildren(t *testing.T) {
	parentID := uuid.New()
	parent := item(parentID, nil, StatusNotStarted, 1)
	children := []ChecklistItem{
		item(uuid.New(), &parentID, StatusCompleted, 1),
		item(uuid.New(), &parentID, StatusCompleted, 1),
	}

	if !EffectiveCompleted(parent, children) {
		t.Fatal("parent with all children completed must be effectively complete")
	}

	children[1].Status = StatusInProgress
	if EffectiveCompleted(parent, children) {
		t.Fatal("one incomplete child must make the parent incomplete")
	}
}

func TestEffectiveCompleted_LeafUsesOwnStatus(t *testing.T) {
	leaf := item(uuid.New(), nil, StatusCompleted, 1)
	if !EffectiveCompleted(leaf, nil) {
		t.Fatal("completed leaf must be complete")
	}
	leaf.Status = StatusBlocked
	if EffectiveCompleted(leaf, nil) {
		t.Fatal("blocked leaf must not be complete")
	}
}

func TestWeightedProgress(t *testing.T) {
	heavyID := uuid.New()
	lightID := uuid.New()
	items := []ChecklistItem{
		item(heavyID, nil, StatusNotStarted, 3),
		item(lightID, nil, StatusCompleted, 1),
		item(uuid.New(), &heavyID, StatusCompleted, 1),
		item(uuid.New(), &heavyID, StatusNotStarted, 1),
	}

	// Heavy parent is half done (weight 3), light item fully done (weight 1):
	// (3*0.5 + 1*1) / 4 = 0.625
	got := WeightedProgress(items)
	if got < 0.624 || got > 0.626 {
		t.Fatalf("expected progress 0.625, got %v", got)
	}
}

func TestWeightedProgress_EmptyAndZeroWeights(t *testing.T) {
	if WeightedProgress(nil) != 0 {
		t.Fatal("no items means zero progress")
	}

	items := []ChecklistItem{
		item(uuid.New(), nil, StatusCompleted, 0), // zero weight counts as 1
		item(uuid.New(), nil, StatusNotStarted, 0),
	}
	got := WeightedProgress(items)
	if got != 0.5 {
		t.Fatalf("expected 0.5 with default weights, got %v", got)
	}
}

func TestUnmetDependencies(t *testing.T) {
	depA, depB := uuid.New(), uuid.New()
	checked := ChecklistItem{ID: uuid.New(), Dependencies: []uuid.UUID{depA, depB}}

	unmet := UnmetDependencies(checked, map[uuid.UUID]bool{depA: true})
	if len(unmet) != 1 || unmet[0] != depB {
		t.Fatalf("expected only depB unmet, got %v", unmet)
	}

	unmet = UnmetDependencies(checked, map[uuid.UUID]bool{depA: true, depB: true})
	if len(unmet) != 0 {
		t.Fatalf("expected no unmet dependencies, got %v", unmet)
	}
}
