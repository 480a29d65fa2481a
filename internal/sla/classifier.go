package sla

import (
	"fmt"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
)

// Tier is the urgency band a grievance falls into relative to its due date.
type Tier string

const (
	TierNoSLA   Tier = "NO_SLA"
	TierOverdue Tier = "OVERDUE"
	TierWarning Tier = "WARNING"
	TierHealthy Tier = "HEALTHY"
)

// warningWindowDays gives staff a two-day lead before a deadline is flagged
// urgent, distinct from the hard overdue cutoff at zero.
const warningWindowDays = 2

// NoSLALabel is rendered for grievances with no due date set.
const NoSLALabel = "No SLA"

// Classification is the derived urgency of one grievance at one instant.
type Classification struct {
	Tier     Tier   `json:"tier"`
	DaysLeft *int   `json:"days_left"`
	Label    string `json:"label"`
}

// daysBetween counts calendar days from a's day to b's day. Both are
// normalized to UTC-midnight days first so a DST transition inside the
// interval cannot skew the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}

// DaysLeft returns the signed calendar-day count from now's day to the due
// day. Negative means overdue; zero means due today.
func DaysLeft(due, now time.Time) int {
	return daysBetween(now, due)
}

// Classify maps (due day, now) to an urgency tier and display label.
// Thresholds, evaluated in order:
//
//	due == nil      -> NO_SLA,  "No SLA"
//	daysLeft <  0   -> OVERDUE, "-Nd"
//	daysLeft == 0   -> OVERDUE, "0d" (due today shares the overdue band)
//	daysLeft <= 2   -> WARNING, "+Nd"
//	otherwise       -> HEALTHY, "+Nd"
func Classify(due *time.Time, now time.Time) Classification {
	if due == nil {
		return Classification{Tier: TierNoSLA, Label: NoSLALabel}
	}

	d := DaysLeft(*due, now)
	c := Classification{DaysLeft: &d}
	switch {
	case d < 0:
		c.Tier = TierOverdue
		c.Label = fmt.Sprintf("%dd", d)
	case d == 0:
		c.Tier = TierOverdue
		c.Label = "0d"
	case d <= warningWindowDays:
		c.Tier = TierWarning
		c.Label = fmt.Sprintf("+%dd", d)
	default:
		c.Tier = TierHealthy
		c.Label = fmt.Sprintf("+%dd", d)
	}
	return c
}

// ClassifyGrievance classifies a record by its stored due date.
func ClassifyGrievance(g *models.Grievance, now time.Time) Classification {
	return Classify(DueDay(g), now)
}
