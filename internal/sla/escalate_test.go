package sla

import (
	"testing"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func datePtr(s string) *models.Date {
	d := &models.Date{}
	if err := d.UnmarshalJSON([]byte(`"` + s + `"`)); err != nil {
		panic(err)
	}
	return d
}

func TestNextEscalation(t *testing.T) {
	nowT := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.Local)
	overdue := datePtr("2024-06-05")
	future := datePtr("2024-06-15")
	today := datePtr("2024-06-10")

	tests := []struct {
		name   string
		status string
		due    *models.Date
		want   string
		ok     bool
	}{
		{"overdue triage entry", models.StatusInReview, overdue, models.StatusPendingApproval, true},
		{"overdue department work", models.StatusInProgress, overdue, models.StatusPolicyDecision, true},
		{"due today is not yet escalated", models.StatusInProgress, today, "", false},
		{"future deadline", models.StatusInReview, future, "", false},
		{"no deadline", models.StatusInProgress, nil, "", false},
		{"status outside escalation paths", models.StatusPending, overdue, "", false},
		{"already escalated", models.StatusPolicyDecision, overdue, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &models.Grievance{Status: tt.status, DueDate: tt.due}
			got, ok := NextEscalation(g, nowT)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtensionEligible(t *testing.T) {
	assert.True(t, ExtensionEligible(models.StatusPolicyDecision))
	assert.True(t, ExtensionEligible(models.StatusPendingApproval))
	assert.False(t, ExtensionEligible(models.StatusPending))
	assert.False(t, ExtensionEligible(models.StatusResolved))
	assert.False(t, ExtensionEligible(models.StatusInProgress))
}

func TestExtendedDueDate(t *testing.T) {
	nowT := time.Date(2024, time.June, 10, 8, 0, 0, 0, time.Local)

	// Existing due date moves forward 14 days, even when already past.
	got := ExtendedDueDate(datePtr("2024-06-05"), nowT)
	assert.Equal(t, "2024-06-19", got.String())

	// Unset due date starts from today.
	got = ExtendedDueDate(nil, nowT)
	assert.Equal(t, "2024-06-24", got.String())

	zero := &models.Date{}
	got = ExtendedDueDate(zero, nowT)
	assert.Equal(t, "2024-06-24", got.String())
}
