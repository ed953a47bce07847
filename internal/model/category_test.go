package model

import (
	"reflect"
	"testing"
)

func ptr(v int64) *int64 { return &v }

// buildForest: 1 (Math) -> 2 (Algebra), 3 (Geometry); 2 -> 4 (Linear);
// 5 (Physics) standalone.
func buildForest() []Category {
	return []Category{
		{ID: 1, Name: "Math"},
		{ID: 2, Name: "Algebra", ParentID: ptr(1), Order: 1},
		{ID: 3, Name: "Geometry", ParentID: ptr(1), Order: 2},
		{ID: 4, Name: "Linear", ParentID: ptr(2)},
		{ID: 5, Name: "Physics"},
	}
}

func TestCategoryTreeDescendantIDs(t *testing.T) {
	tree := NewCategoryTree(buildForest())

	got := tree.DescendantIDs(1)
	want := []int64{1, 2, 4, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DescendantIDs(1) = %v, want %v", got, want)
	}

	if got := tree.DescendantIDs(5); !reflect.DeepEqual(got, []int64{5}) {
		t.Errorf("DescendantIDs(5) = %v, want leaf itself", got)
	}

	if got := tree.DescendantIDs(99); got != nil {
		t.Errorf("DescendantIDs(99) = %v, want nil for unknown ID", got)
	}
}

func TestCategoryTreeChildOrdering(t *testing.T) {
	// Same parent, same order value: ties break on name.
	tree := NewCategoryTree([]Category{
		{ID: 1, Name: "Root"},
		{ID: 2, Name: "Beta", ParentID: ptr(1)},
		{ID: 3, Name: "Alpha", ParentID: ptr(1)},
	})
	got := tree.DescendantIDs(1)
	want := []int64{1, 3, 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DescendantIDs(1) = %v, want name-ordered %v", got, want)
	}
}

func TestCategoryTreeDescendantSet(t *testing.T) {
	tree := NewCategoryTree(buildForest())
	set := tree.DescendantSet([]int64{2, 3})
	for _, id := range []int64{2, 3, 4} {
		if _, ok := set[id]; !ok {
			t.Errorf("DescendantSet missing %d", id)
		}
	}
	if _, ok := set[1]; ok {
		t.Error("DescendantSet must not include ancestors")
	}
	if len(set) != 3 {
		t.Errorf("DescendantSet size = %d, want 3", len(set))
	}
}
