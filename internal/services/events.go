package services

import (
	"context"
	"fmt"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// EventService handles the append-only grievance audit log.
type EventService struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

// NewEventService creates a new event service
func NewEventService(db *pgxpool.Pool, logger *zap.SugaredLogger) *EventService {
	return &EventService{db: db, logger: logger}
}

// Append records an audit event. Events are never updated or deleted.
func (s *EventService) Append(ctx context.Context, grievanceID uuid.UUID, userID *uuid.UUID, userName, action, notes string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO grievance_events (id, grievance_id, user_id, action, notes, timestamp)
		VALUES ($1, $2, $3, $4, $5, NOW())`,
		uuid.New(), grievanceID, userID, action, notes,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	s.logger.Infow("Event recorded",
		"grievance", grievanceID,
		"action", action,
		"user", userName,
	)
	return nil
}

// ListForGrievance returns a grievance's audit trail, newest first.
func (s *EventService) ListForGrievance(ctx context.Context, grievanceID uuid.UUID) ([]models.GrievanceEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT e.id, e.grievance_id, e.user_id, COALESCE(u.username, ''), e.action, e.notes, e.timestamp
		FROM grievance_events e
		LEFT JOIN users u ON u.id = e.user_id
		WHERE e.grievance_id = $1
		ORDER BY e.timestamp DESC`, grievanceID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.GrievanceEvent
	for rows.Next() {
		var e models.GrievanceEvent
		if err := rows.Scan(&e.ID, &e.GrievanceID, &e.UserID, &e.UserName, &e.Action, &e.Notes, &e.Timestamp); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
