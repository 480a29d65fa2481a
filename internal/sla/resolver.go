package sla

import (
	"strings"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
)

// Resolve parses a date-only string ("YYYY-MM-DD") into a calendar day
// anchored at local midnight. Empty, absent, or malformed input resolves to
// nil — never an error; a grievance with an unreadable due date simply has
// no SLA.
func Resolve(dueDate string) *time.Time {
	s := strings.TrimSpace(dueDate)
	if s == "" || s == "null" {
		return nil
	}
	t, err := time.ParseInLocation(models.DateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	return &t
}

// DueDay extracts a grievance's due day as a local-midnight time, or nil
// when no SLA is set.
func DueDay(g *models.Grievance) *time.Time {
	if g.DueDate == nil || g.DueDate.IsZero() {
		return nil
	}
	t := g.DueDate.Time
	return &t
}
