// Package services contains business logic layers.
// Services are called by handlers and interact with the database.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/civicdesk/grievance-server/internal/middleware"
	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/sla"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const grievanceColumns = `
	g.id, g.title, g.description, g.status, COALESCE(g.location, ''),
	g.category_id, COALESCE(c.name, ''), g.department_id, COALESCE(d.name, ''),
	g.due_date, COALESCE(g.resolution_notes, ''),
	g.user_id, COALESCE(u.username, ''), g.created_at, g.updated_at`

const grievanceFrom = `
	FROM grievances g
	LEFT JOIN categories c ON c.id = g.category_id
	LEFT JOIN departments d ON d.id = g.department_id
	LEFT JOIN users u ON u.id = g.user_id`

// GrievanceService handles grievance business logic
type GrievanceService struct {
	db     *pgxpool.Pool
	events *EventService
	clock  sla.Clock
	logger *zap.SugaredLogger
}

// NewGrievanceService creates a new grievance service
func NewGrievanceService(db *pgxpool.Pool, events *EventService, clock sla.Clock, logger *zap.SugaredLogger) *GrievanceService {
	return &GrievanceService{db: db, events: events, clock: clock, logger: logger}
}

// SubmitRequest is the payload for filing a new grievance.
type SubmitRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location,omitempty"`
	CategoryID  *uuid.UUID `json:"category_id"`
	Images      []string   `json:"images,omitempty"`
}

// UpdatePatch is a partial update. Nil fields are left untouched.
type UpdatePatch struct {
	Status          *string      `json:"status"`
	CategoryID      *uuid.UUID   `json:"category_id"`
	DueDate         *models.Date `json:"due_date"`
	ResolutionNotes *string      `json:"resolution_notes"`
}

func scanGrievance(row pgx.Row) (*models.Grievance, error) {
	var g models.Grievance
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.Status, &g.Location,
		&g.CategoryID, &g.CategoryName, &g.DepartmentID, &g.DepartmentName,
		&g.DueDate, &g.ResolutionNotes,
		&g.UserID, &g.UserName, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *GrievanceService) collect(rows pgx.Rows) []models.Grievance {
	defer rows.Close()
	var out []models.Grievance
	for rows.Next() {
		g, err := scanGrievance(rows)
		if err != nil {
			s.logger.Errorw("Failed to scan grievance row", "error", err)
			continue
		}
		out = append(out, *g)
	}
	return out
}

// Create files a new grievance and routes it. A grievance against the
// "Other" category (or one filed by a triage user) enters the triage queue
// as In Review; otherwise the category's department takes it as Pending.
func (s *GrievanceService) Create(ctx context.Context, actor *middleware.Identity, req *SubmitRequest) (*models.Grievance, error) {
	id := uuid.New()
	now := s.clock.Now()

	title := req.Title
	if title == "" {
		// Auto-generate a title from the description.
		title = req.Description
		if len(title) > 50 {
			title = title[:50]
		}
	}

	status := models.StatusPending
	categoryID := req.CategoryID
	var departmentID *uuid.UUID

	if categoryID != nil {
		var name string
		err := s.db.QueryRow(ctx,
			`SELECT name, department_id FROM categories WHERE id = $1`, *categoryID,
		).Scan(&name, &departmentID)
		if err != nil {
			return nil, fmt.Errorf("category lookup: %w", err)
		}
		if name == models.CategoryOther || actor.Role == models.RoleTriageUser {
			status = models.StatusInReview
			categoryID, departmentID = s.triageRoute(ctx)
		}
	} else {
		// Uncategorized submissions go straight to triage.
		status = models.StatusInReview
		categoryID, departmentID = s.triageRoute(ctx)
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO grievances (id, title, description, status, location, category_id, department_id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		id, title, req.Description, status, req.Location, categoryID, departmentID, actor.UserID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert grievance: %w", err)
	}

	for _, path := range req.Images {
		if _, err := s.addImage(ctx, id, path, now); err != nil {
			s.logger.Errorw("Failed to attach image", "grievance", id, "error", err)
		}
	}

	_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionSubmitted, "Grievance filed")

	s.logger.Infow("Grievance submitted", "id", id, "status", status, "user", actor.Username)

	return s.GetByID(ctx, id)
}

// triageRoute resolves the In Review category and its triage department.
func (s *GrievanceService) triageRoute(ctx context.Context) (*uuid.UUID, *uuid.UUID) {
	var catID uuid.UUID
	var deptID *uuid.UUID
	err := s.db.QueryRow(ctx,
		`SELECT id, department_id FROM categories WHERE name = $1`, models.CategoryInReview,
	).Scan(&catID, &deptID)
	if err != nil {
		s.logger.Errorw("Triage category missing", "error", err)
		return nil, nil
	}
	return &catID, deptID
}

// GetByID fetches one grievance with its attachments.
func (s *GrievanceService) GetByID(ctx context.Context, id uuid.UUID) (*models.Grievance, error) {
	g, err := scanGrievance(s.db.QueryRow(ctx, `SELECT`+grievanceColumns+grievanceFrom+` WHERE g.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch grievance: %w", err)
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, path, uploaded_at FROM grievance_images WHERE grievance_id = $1 ORDER BY uploaded_at`, id)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var img models.GrievanceImage
			if err := rows.Scan(&img.ID, &img.Path, &img.UploadedAt); err == nil {
				g.Images = append(g.Images, img)
			}
		}
	}
	return g, nil
}

// ListFor returns the grievances visible to the caller, newest first:
// citizens see their own, department admins their department's, triage users
// the triage queue, and top authorities everything.
func (s *GrievanceService) ListFor(ctx context.Context, actor *middleware.Identity) ([]models.Grievance, error) {
	base := `SELECT` + grievanceColumns + grievanceFrom
	order := ` ORDER BY g.created_at DESC`

	var rows pgx.Rows
	var err error
	switch actor.Role {
	case models.RoleTopAuthority:
		rows, err = s.db.Query(ctx, base+order)
	case models.RoleDepartmentAdmin:
		if actor.DepartmentID == nil {
			return nil, nil
		}
		rows, err = s.db.Query(ctx, base+` WHERE g.department_id = $1`+order, *actor.DepartmentID)
	case models.RoleTriageUser:
		return s.ListTriageQueue(ctx)
	default:
		rows, err = s.db.Query(ctx, base+` WHERE g.user_id = $1`+order, actor.UserID)
	}
	if err != nil {
		return nil, fmt.Errorf("list grievances: %w", err)
	}
	return s.collect(rows), nil
}

// ListTriageQueue returns unclassified grievances awaiting triage.
func (s *GrievanceService) ListTriageQueue(ctx context.Context) ([]models.Grievance, error) {
	rows, err := s.db.Query(ctx,
		`SELECT`+grievanceColumns+grievanceFrom+`
		 WHERE c.name = ANY($1) AND g.status = $2
		 ORDER BY g.created_at DESC`,
		[]string{models.CategoryOther, models.CategoryInReview}, models.StatusInReview)
	if err != nil {
		return nil, fmt.Errorf("list triage queue: %w", err)
	}
	return s.collect(rows), nil
}

// ListAll returns every grievance, newest first. Used by stats and the
// escalation job.
func (s *GrievanceService) ListAll(ctx context.Context) ([]models.Grievance, error) {
	rows, err := s.db.Query(ctx, `SELECT`+grievanceColumns+grievanceFrom+` ORDER BY g.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list grievances: %w", err)
	}
	return s.collect(rows), nil
}

// Update applies a partial update and appends an audit event for every
// observable change.
func (s *GrievanceService) Update(ctx context.Context, id uuid.UUID, actor *middleware.Identity, patch *UpdatePatch) (*models.Grievance, error) {
	old, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := old.Status
	if patch.Status != nil {
		status = *patch.Status
	}
	categoryID := old.CategoryID
	departmentID := old.DepartmentID
	if patch.CategoryID != nil {
		categoryID = patch.CategoryID
		// Department follows the category.
		var deptID *uuid.UUID
		if err := s.db.QueryRow(ctx,
			`SELECT department_id FROM categories WHERE id = $1`, *patch.CategoryID,
		).Scan(&deptID); err != nil {
			return nil, fmt.Errorf("category lookup: %w", err)
		}
		departmentID = deptID
	}
	dueDate := old.DueDate
	if patch.DueDate != nil {
		dueDate = patch.DueDate
	}
	notes := old.ResolutionNotes
	if patch.ResolutionNotes != nil {
		notes = *patch.ResolutionNotes
	}

	_, err = s.db.Exec(ctx, `
		UPDATE grievances
		SET status = $2, category_id = $3, department_id = $4, due_date = $5, resolution_notes = $6, updated_at = $7
		WHERE id = $1`,
		id, status, categoryID, departmentID, dueDate, notes, s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("update grievance: %w", err)
	}

	if status != old.Status {
		_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionStatusChanged,
			fmt.Sprintf("%s -> %s", old.Status, status))
	}
	if patch.DueDate != nil && (old.DueDate == nil || !old.DueDate.Equal(patch.DueDate.Time)) {
		was := "unset"
		if old.DueDate != nil && !old.DueDate.IsZero() {
			was = old.DueDate.String()
		}
		_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionDueDateUpdated,
			fmt.Sprintf("%s -> %s", was, patch.DueDate.String()))
	}
	if patch.ResolutionNotes != nil && notes != old.ResolutionNotes {
		_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionResolutionUpdated, "Updated")
	}

	return s.GetByID(ctx, id)
}

// AssignCategory is the triage operation: assign a leaf category, route the
// grievance to that category's department, and move it to Pending.
func (s *GrievanceService) AssignCategory(ctx context.Context, id uuid.UUID, actor *middleware.Identity, categoryID uuid.UUID) (*models.Grievance, error) {
	var name string
	var deptID *uuid.UUID
	var children int
	err := s.db.QueryRow(ctx, `
		SELECT c.name, c.department_id,
			(SELECT COUNT(*) FROM categories sub WHERE sub.parent_id = c.id)
		FROM categories c WHERE c.id = $1`, categoryID,
	).Scan(&name, &deptID, &children)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("category lookup: %w", err)
	}
	if children > 0 {
		return nil, ErrNotLeafCategory
	}

	_, err = s.db.Exec(ctx, `
		UPDATE grievances SET category_id = $2, department_id = $3, status = $4, updated_at = $5
		WHERE id = $1`,
		id, categoryID, deptID, models.StatusPending, s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("assign category: %w", err)
	}

	_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionCategoryAssigned,
		fmt.Sprintf("Assigned to %s", name))

	s.logger.Infow("Grievance triaged", "id", id, "category", name)
	return s.GetByID(ctx, id)
}

// Reopen moves a closed grievance (Resolved or Rejected) back to Reopened.
func (s *GrievanceService) Reopen(ctx context.Context, id uuid.UUID, actor *middleware.Identity, reason string) (*models.Grievance, error) {
	old, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status != models.StatusResolved && old.Status != models.StatusRejected {
		return nil, &StatusError{Message: fmt.Sprintf("Cannot reopen a grievance in status: %s", old.Status)}
	}

	_, err = s.db.Exec(ctx,
		`UPDATE grievances SET status = $2, updated_at = $3 WHERE id = $1`,
		id, models.StatusReopened, s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("reopen grievance: %w", err)
	}

	_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionReopened, reason)
	return s.GetByID(ctx, id)
}

// GrantExtension pushes an eligible grievance's due date forward by the
// fixed extension window. Only Policy Decision / Pending Approval qualify;
// anything else is rejected with a caller-visible message.
func (s *GrievanceService) GrantExtension(ctx context.Context, id uuid.UUID, actor *middleware.Identity) (*models.Grievance, error) {
	old, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sla.ExtensionEligible(old.Status) {
		return nil, &StatusError{Message: fmt.Sprintf("Invalid status: %s", old.Status)}
	}

	newDue := sla.ExtendedDueDate(old.DueDate, s.clock.Now())
	_, err = s.db.Exec(ctx,
		`UPDATE grievances SET due_date = $2, updated_at = $3 WHERE id = $1`,
		id, newDue, s.clock.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("grant extension: %w", err)
	}

	_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionExtensionGranted,
		fmt.Sprintf("%d-day extension", sla.ExtensionDays))

	s.logger.Infow("SLA extension granted", "id", id, "new_due_date", newDue.String())
	return s.GetByID(ctx, id)
}

// AddImage attaches an image path to a grievance.
func (s *GrievanceService) AddImage(ctx context.Context, id uuid.UUID, actor *middleware.Identity, path string) (*models.GrievanceImage, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	now := s.clock.Now()
	imgID, err := s.addImage(ctx, id, path, now)
	if err != nil {
		return nil, err
	}
	_ = s.events.Append(ctx, id, &actor.UserID, actor.Username, models.ActionImageUploaded, path)
	return &models.GrievanceImage{ID: imgID, Path: path, UploadedAt: now}, nil
}

func (s *GrievanceService) addImage(ctx context.Context, grievanceID uuid.UUID, path string, at time.Time) (uuid.UUID, error) {
	id := uuid.New()
	_, err := s.db.Exec(ctx,
		`INSERT INTO grievance_images (id, grievance_id, path, uploaded_at) VALUES ($1, $2, $3, $4)`,
		id, grievanceID, path, at,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert image: %w", err)
	}
	return id, nil
}
