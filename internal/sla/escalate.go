package sla

import (
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
)

// NextEscalation returns the status an overdue grievance escalates to:
// a triage queue entry (In Review) past its deadline goes to Pending
// Approval, and department work (In Progress) past its deadline goes to
// Policy Decision. The second return is false when no escalation applies —
// no due date, not yet overdue, or a status outside the two escalation
// paths.
func NextEscalation(g *models.Grievance, now time.Time) (string, bool) {
	due := DueDay(g)
	if due == nil || DaysLeft(*due, now) >= 0 {
		return "", false
	}
	switch g.Status {
	case models.StatusInReview:
		return models.StatusPendingApproval, true
	case models.StatusInProgress:
		return models.StatusPolicyDecision, true
	default:
		return "", false
	}
}

// ExtensionDays is the fixed SLA extension granted by a top authority.
const ExtensionDays = 14

// ExtensionEligible reports whether a grievance's status allows an SLA
// extension. Only grievances already escalated past their deadline
// (Policy Decision or Pending Approval) qualify.
func ExtensionEligible(status string) bool {
	return status == models.StatusPolicyDecision || status == models.StatusPendingApproval
}

// ExtendedDueDate computes the new due date for a granted extension: the
// existing due date pushed ExtensionDays forward, or today+ExtensionDays
// when no due date was set. Due dates only ever move forward.
func ExtendedDueDate(current *models.Date, now time.Time) models.Date {
	if current != nil && !current.IsZero() {
		return current.AddDays(ExtensionDays)
	}
	return models.DateOf(now).AddDays(ExtensionDays)
}
