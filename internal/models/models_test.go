package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayStatusCollapsesPendingSynonyms(t *testing.T) {
	tests := []struct {
		stored string
		shown  string
	}{
		{StatusPending, StatusPending},
		{StatusPendingAtTriage, StatusPending},
		{StatusReopened, StatusPending},
		{StatusInProgress, StatusInProgress},
		{StatusResolved, StatusResolved},
		{StatusPolicyDecision, StatusPolicyDecision},
	}
	for _, tt := range tests {
		g := Grievance{Status: tt.stored}
		assert.Equal(t, tt.shown, g.DisplayStatus())
		// Collapsing is display-only.
		assert.Equal(t, tt.stored, g.Status)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 6, 12)
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-06-12"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.Equal(d.Time))
}

func TestDateJSONNull(t *testing.T) {
	var d Date
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	var back Date
	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.True(t, back.IsZero())

	require.NoError(t, json.Unmarshal([]byte(`""`), &back))
	assert.True(t, back.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"12/06/2024"`), &back))
}

func categoryTree() []Category {
	return []Category{
		{
			Name: "Sanitation",
			Subcategories: []Category{
				{Name: "Uncollected garbage"},
				{Name: "Garbage dumping"},
			},
		},
		{
			Name: "Water",
			Subcategories: []Category{
				{Name: "Contaminated water supply"},
				{Name: "Low Water Pressure"},
			},
		},
		{Name: CategoryOther},
		{Name: CategoryInReview},
	}
}

func TestLeafCategories(t *testing.T) {
	leaves := LeafCategories(categoryTree())
	var names []string
	for _, c := range leaves {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{
		"Uncollected garbage", "Garbage dumping",
		"Contaminated water supply", "Low Water Pressure",
		CategoryOther, CategoryInReview,
	}, names)
}

func TestSelectableLeavesExcludesSentinels(t *testing.T) {
	leaves := SelectableLeaves(categoryTree())
	require.NotEmpty(t, leaves)
	for _, c := range leaves {
		assert.NotEqual(t, CategoryInReview, c.Name, "In Review is triage-internal")
	}
	// Other is offered, but always last.
	assert.Equal(t, CategoryOther, leaves[len(leaves)-1].Name)
}
