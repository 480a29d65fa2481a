package services

import (
	"testing"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCategoryTree(t *testing.T) {
	water := uuid.New()
	sanitation := uuid.New()
	flat := []models.Category{
		{ID: water, Name: "Water"},
		{ID: uuid.New(), Name: "Low Water Pressure", ParentID: &water},
		{ID: uuid.New(), Name: "Contaminated water supply", ParentID: &water},
		{ID: sanitation, Name: "Sanitation"},
		{ID: uuid.New(), Name: "Uncollected garbage", ParentID: &sanitation},
		{ID: uuid.New(), Name: models.CategoryOther},
	}

	tree := BuildCategoryTree(flat)
	require.Len(t, tree, 3)

	assert.Equal(t, "Water", tree[0].Name)
	assert.Equal(t, "Water", tree[0].FullPath)
	require.Len(t, tree[0].Subcategories, 2)
	assert.Equal(t, "Water -> Low Water Pressure", tree[0].Subcategories[0].FullPath)

	assert.Equal(t, "Sanitation", tree[1].Name)
	require.Len(t, tree[1].Subcategories, 1)
	assert.Equal(t, "Sanitation -> Uncollected garbage", tree[1].Subcategories[0].FullPath)

	assert.Equal(t, models.CategoryOther, tree[2].Name)
	assert.True(t, tree[2].IsLeaf())
}

func TestBuildCategoryTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildCategoryTree(nil))
}
