package sla

import (
	"sort"
	"time"

	"github.com/civicdesk/grievance-server/internal/models"
)

// Scope selects which synonym set the "Pending" bucket absorbs. Citizen
// screens fold "Pending at Triage" into Pending; staff dashboards fold
// "Reopened" instead. The two sets are deliberately kept separate.
type Scope int

const (
	ScopeCitizen Scope = iota
	ScopeStaff
)

// KeyAll is the tab key matching every record.
const KeyAll = "All"

// CitizenTabs is the fixed tab enumeration on citizen-facing screens.
var CitizenTabs = []string{
	KeyAll,
	models.StatusPending,
	models.StatusInProgress,
	models.StatusResolved,
	models.StatusRejected,
}

// StaffTabs is the fixed tab enumeration on staff dashboards.
var StaffTabs = []string{
	KeyAll,
	models.StatusPending,
	models.StatusInProgress,
	models.StatusResolved,
	models.StatusRejected,
	models.StatusPolicyDecision,
	models.StatusPendingApproval,
}

// Tabs returns the tab enumeration for a scope.
func Tabs(scope Scope) []string {
	if scope == ScopeCitizen {
		return CitizenTabs
	}
	return StaffTabs
}

// Matches reports whether a record's status falls under the given tab key.
func Matches(key string, scope Scope, status string) bool {
	switch key {
	case KeyAll:
		return true
	case models.StatusPending:
		if status == models.StatusPending {
			return true
		}
		if scope == ScopeCitizen {
			return status == models.StatusPendingAtTriage
		}
		return status == models.StatusReopened
	default:
		return status == key
	}
}

// Projection is a filtered view of a grievance list plus per-tab counts.
type Projection struct {
	Visible []models.Grievance `json:"visible"`
	Counts  map[string]int     `json:"counts"`
}

// Project filters records by the active tab key and recomputes every tab's
// count from the full, unfiltered list. Counts are never derived from a
// previously filtered subset, so they cannot drift. Input order is preserved.
func Project(records []models.Grievance, filterKey string, scope Scope) Projection {
	p := Projection{
		Visible: make([]models.Grievance, 0, len(records)),
		Counts:  make(map[string]int, len(Tabs(scope))),
	}
	for _, key := range Tabs(scope) {
		n := 0
		for i := range records {
			if Matches(key, scope, records[i].Status) {
				n++
			}
		}
		p.Counts[key] = n
	}
	for i := range records {
		if Matches(filterKey, scope, records[i].Status) {
			p.Visible = append(p.Visible, records[i])
		}
	}
	return p
}

// noSLASortKey sorts unset-SLA records after everything with a deadline.
const noSLASortKey = 9999

// SortByUrgency returns a copy of records ordered by ascending days left,
// most urgent first. Records without an SLA sort last. The sort is stable:
// equal days-left records keep their relative input order.
func SortByUrgency(records []models.Grievance, now time.Time) []models.Grievance {
	out := make([]models.Grievance, len(records))
	copy(out, records)
	key := func(g *models.Grievance) int {
		due := DueDay(g)
		if due == nil {
			return noSLASortKey
		}
		return DaysLeft(*due, now)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return key(&out[i]) < key(&out[j])
	})
	return out
}

// PageSize is the fixed page length for dashboard tables.
const PageSize = 10

// Page is one slice of a projected list.
type Page struct {
	Items      []models.Grievance `json:"results"`
	Number     int                `json:"page"`
	TotalPages int                `json:"total_pages"`
	TotalItems int                `json:"count"`
}

// Paginate slices visible into 1-based fixed-size pages. A page number past
// the end clamps to the last page; an empty list yields page 1 with no rows.
func Paginate(visible []models.Grievance, page int) Page {
	total := len(visible)
	pages := (total + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Items:      visible[start:end],
		Number:     page,
		TotalPages: pages,
		TotalItems: total,
	}
}
