package services

import (
	"testing"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkGrievance(t *testing.T, status, due, dept string) models.Grievance {
	t.Helper()
	g := models.Grievance{Status: status, DepartmentName: dept}
	if due != "" {
		d := &models.Date{}
		require.NoError(t, d.UnmarshalJSON([]byte(`"`+due+`"`)))
		g.DueDate = d
	}
	return g
}

func TestComputeStats(t *testing.T) {
	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.Local)
	records := []models.Grievance{
		mkGrievance(t, models.StatusPending, "2024-06-20", "Engineering"),       // healthy
		mkGrievance(t, models.StatusPendingAtTriage, "", "Engineering"),         // no SLA
		mkGrievance(t, models.StatusReopened, "2024-06-11", "Health"),           // warning
		mkGrievance(t, models.StatusInProgress, "2024-06-05", "Health"),         // overdue
		mkGrievance(t, models.StatusResolved, "2024-06-01", "Engineering"),      // overdue
		mkGrievance(t, models.StatusPolicyDecision, "2024-06-10", "Sanitation"), // due today = overdue band
	}

	stats := ComputeStats(records, now)

	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 3, stats.Pending, "Pending + Pending at Triage + Reopened")
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 1, stats.Resolved)
	assert.Equal(t, 3, stats.Overdue)

	assert.Equal(t, SLABuckets{Healthy: 1, Warning: 1, Overdue: 3, NoSLA: 1}, stats.SLA)

	require.Len(t, stats.ByDept, 3)
	assert.Equal(t, DeptCount{Department: "Engineering", Count: 3}, stats.ByDept[0])
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())
	assert.Equal(t, AdminStats{}, stats)
}

func TestComputeStatsTopDepartmentsCap(t *testing.T) {
	now := time.Now()
	var records []models.Grievance
	for _, dept := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		records = append(records, mkGrievance(t, models.StatusPending, "", dept))
	}
	stats := ComputeStats(records, now)
	assert.Len(t, stats.ByDept, topDepartments)
}
