package models

import "github.com/google/uuid"

// Sentinel category names. "Other" is the fallback routed to triage and is
// never offered first; "In Review" is triage-internal and never selectable.
const (
	CategoryOther    = "Other"
	CategoryInReview = "In Review"
)

// Category is a node in the category tree. Only leaves (no subcategories)
// are valid assignment targets.
type Category struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	ParentID       *uuid.UUID `json:"parent_id,omitempty" db:"parent_id"`
	DepartmentID   *uuid.UUID `json:"department_id,omitempty" db:"department_id"`
	DepartmentName string     `json:"department_name,omitempty" db:"department_name"`
	FullPath       string     `json:"full_path" db:"-"`
	Subcategories  []Category `json:"subcategories,omitempty" db:"-"`
}

// IsLeaf reports whether the node has no subcategories.
func (c *Category) IsLeaf() bool {
	return len(c.Subcategories) == 0
}

// LeafCategories flattens the tree to its leaves, preserving tree order.
func LeafCategories(tree []Category) []Category {
	var leaves []Category
	for _, c := range tree {
		if c.IsLeaf() {
			leaves = append(leaves, c)
			continue
		}
		leaves = append(leaves, LeafCategories(c.Subcategories)...)
	}
	return leaves
}

// SelectableLeaves returns the leaves a citizen may pick: "In Review" is
// excluded entirely and "Other" is moved to the end as the fallback option.
func SelectableLeaves(tree []Category) []Category {
	var out []Category
	var other []Category
	for _, c := range LeafCategories(tree) {
		switch c.Name {
		case CategoryInReview:
		case CategoryOther:
			other = append(other, c)
		default:
			out = append(out, c)
		}
	}
	return append(out, other...)
}
