package sla

import (
	"testing"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// now is mid-morning so day math must not depend on time of day.
var now = time.Date(2024, time.June, 10, 10, 30, 0, 0, time.Local)

func day(s string) *time.Time {
	t, err := time.ParseInLocation(models.DateLayout, s, time.Local)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestClassifyNoDueDate(t *testing.T) {
	c := Classify(nil, now)
	assert.Equal(t, TierNoSLA, c.Tier)
	assert.Nil(t, c.DaysLeft)
	assert.Equal(t, "No SLA", c.Label)
}

func TestClassifyOverdue(t *testing.T) {
	c := Classify(day("2024-06-07"), now)
	require.NotNil(t, c.DaysLeft)
	assert.Equal(t, -3, *c.DaysLeft)
	assert.Equal(t, TierOverdue, c.Tier)
	assert.Equal(t, "-3d", c.Label)
}

func TestClassifyDueToday(t *testing.T) {
	c := Classify(day("2024-06-10"), now)
	require.NotNil(t, c.DaysLeft)
	assert.Equal(t, 0, *c.DaysLeft)
	assert.Equal(t, TierOverdue, c.Tier)
	assert.Equal(t, "0d", c.Label)
}

func TestClassifyWarning(t *testing.T) {
	c := Classify(day("2024-06-12"), now)
	require.NotNil(t, c.DaysLeft)
	assert.Equal(t, 2, *c.DaysLeft)
	assert.Equal(t, TierWarning, c.Tier)
	assert.Equal(t, "+2d", c.Label)
}

func TestClassifyHealthy(t *testing.T) {
	c := Classify(day("2024-06-20"), now)
	require.NotNil(t, c.DaysLeft)
	assert.Equal(t, 10, *c.DaysLeft)
	assert.Equal(t, TierHealthy, c.Tier)
	assert.Equal(t, "+10d", c.Label)
}

func TestClassifyDeterministic(t *testing.T) {
	for _, d := range []string{"2024-06-01", "2024-06-10", "2024-06-11", "2024-07-01"} {
		a := Classify(day(d), now)
		b := Classify(day(d), now)
		assert.Equal(t, a, b, "due %s", d)
	}
	assert.Equal(t, Classify(nil, now), Classify(nil, now))
}

// Moving the due day later one day at a time must increase daysLeft by
// exactly 1 and never increase urgency.
func TestClassifyMonotonicTiers(t *testing.T) {
	rank := map[Tier]int{TierOverdue: 0, TierWarning: 1, TierHealthy: 2}

	due := day("2024-06-01")
	prev := Classify(due, now)
	for i := 0; i < 30; i++ {
		next := due.AddDate(0, 0, 1)
		due = &next
		c := Classify(due, now)
		require.NotNil(t, c.DaysLeft)
		assert.Equal(t, *prev.DaysLeft+1, *c.DaysLeft)
		assert.GreaterOrEqual(t, rank[c.Tier], rank[prev.Tier],
			"urgency regressed at %s", due.Format(models.DateLayout))
		prev = c
	}
}

// A due day in the evening vs a now in the morning is still the same
// calendar distance — time of day never leaks into the count.
func TestDaysLeftIgnoresTimeOfDay(t *testing.T) {
	lateNow := time.Date(2024, time.June, 10, 23, 59, 0, 0, time.Local)
	earlyNow := time.Date(2024, time.June, 10, 0, 1, 0, 0, time.Local)
	due := *day("2024-06-12")
	assert.Equal(t, 2, DaysLeft(due, lateNow))
	assert.Equal(t, 2, DaysLeft(due, earlyNow))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2024-06-12", day("2024-06-12")},
		{" 2024-06-12 ", day("2024-06-12")},
		{"", nil},
		{"null", nil},
		{"not-a-date", nil},
		{"2024-13-40", nil},
		{"2024-06-12T00:00:00Z", nil},
	}
	for _, tt := range tests {
		got := Resolve(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, "input %q", tt.in)
			continue
		}
		require.NotNil(t, got, "input %q", tt.in)
		assert.True(t, got.Equal(*tt.want), "input %q", tt.in)
	}
}

func TestClassifyGrievanceMalformedDegradesToNoSLA(t *testing.T) {
	g := &models.Grievance{Status: models.StatusPending}
	c := ClassifyGrievance(g, now)
	assert.Equal(t, TierNoSLA, c.Tier)

	zero := models.Date{}
	g.DueDate = &zero
	c = ClassifyGrievance(g, now)
	assert.Equal(t, TierNoSLA, c.Tier)
}
