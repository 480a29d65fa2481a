package services

import (
	"context"
	"sort"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/sla"
)

// AdminStats is the aggregate view on the top-authority dashboard.
type AdminStats struct {
	Total      int             `json:"total"`
	Pending    int             `json:"pending"`
	InProgress int             `json:"in_progress"`
	Resolved   int             `json:"resolved"`
	Overdue    int             `json:"overdue"`
	SLA        SLABuckets      `json:"sla"`
	ByDept     []DeptCount     `json:"by_dept"`
}

// SLABuckets counts grievances per urgency tier.
type SLABuckets struct {
	Healthy int `json:"healthy"`
	Warning int `json:"warning"`
	Overdue int `json:"overdue"`
	NoSLA   int `json:"no_sla"`
}

// DeptCount is one row of the per-department breakdown.
type DeptCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// topDepartments caps the per-department breakdown.
const topDepartments = 5

// ComputeStats aggregates a grievance list at one instant. All SLA buckets
// go through the one shared classifier, so the dashboard can never disagree
// with the per-row badges.
func ComputeStats(records []models.Grievance, now time.Time) AdminStats {
	stats := AdminStats{Total: len(records)}

	byDept := make(map[string]int)
	for i := range records {
		g := &records[i]
		switch g.Status {
		case models.StatusPending, models.StatusPendingAtTriage, models.StatusReopened:
			stats.Pending++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
		}

		switch sla.ClassifyGrievance(g, now).Tier {
		case sla.TierHealthy:
			stats.SLA.Healthy++
		case sla.TierWarning:
			stats.SLA.Warning++
		case sla.TierOverdue:
			stats.SLA.Overdue++
			stats.Overdue++
		case sla.TierNoSLA:
			stats.SLA.NoSLA++
		}

		if g.DepartmentName != "" {
			byDept[g.DepartmentName]++
		}
	}

	for dept, n := range byDept {
		stats.ByDept = append(stats.ByDept, DeptCount{Department: dept, Count: n})
	}
	sort.Slice(stats.ByDept, func(i, j int) bool {
		if stats.ByDept[i].Count != stats.ByDept[j].Count {
			return stats.ByDept[i].Count > stats.ByDept[j].Count
		}
		return stats.ByDept[i].Department < stats.ByDept[j].Department
	})
	if len(stats.ByDept) > topDepartments {
		stats.ByDept = stats.ByDept[:topDepartments]
	}
	return stats
}

// StatsService computes dashboard aggregates.
type StatsService struct {
	grievances *GrievanceService
	clock      sla.Clock
}

// NewStatsService creates a new stats service
func NewStatsService(grievances *GrievanceService, clock sla.Clock) *StatsService {
	return &StatsService{grievances: grievances, clock: clock}
}

// AdminStats aggregates the full grievance list.
func (s *StatsService) AdminStats(ctx context.Context) (*AdminStats, error) {
	records, err := s.grievances.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	stats := ComputeStats(records, s.clock.Now())
	return &stats, nil
}
