package services

import (
	"context"
	"fmt"

	"github.com/civicdesk/grievance-server/internal/models"
	"github.com/civicdesk/grievance-server/internal/sla"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// EscalationWorker runs the scheduled SLA escalation job: overdue triage
// entries (In Review) move to Pending Approval, overdue department work
// (In Progress) moves to Policy Decision. The transition decision lives in
// the sla package; this worker only applies it and records the events.
type EscalationWorker struct {
	grievances *GrievanceService
	events     *EventService
	clock      sla.Clock
	logger     *zap.SugaredLogger
	cron       *cron.Cron
}

// NewEscalationWorker creates a new escalation worker
func NewEscalationWorker(gs *GrievanceService, es *EventService, clock sla.Clock, logger *zap.SugaredLogger) *EscalationWorker {
	return &EscalationWorker{
		grievances: gs,
		events:     es,
		clock:      clock,
		logger:     logger,
		cron:       cron.New(),
	}
}

// Start schedules the job with the given cron expression and begins the
// scheduler. Returns an error for an unparseable expression.
func (w *EscalationWorker) Start(ctx context.Context, schedule string) error {
	_, err := w.cron.AddFunc(schedule, func() {
		if n, err := w.RunOnce(ctx); err != nil {
			w.logger.Errorw("Escalation run failed", "error", err)
		} else {
			w.logger.Infow("Escalation run complete", "escalated", n)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid escalation schedule %q: %w", schedule, err)
	}
	w.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for a running job to finish.
func (w *EscalationWorker) Stop() {
	<-w.cron.Stop().Done()
}

// RunOnce scans all grievances and escalates every overdue one. Returns the
// number escalated.
func (w *EscalationWorker) RunOnce(ctx context.Context) (int, error) {
	records, err := w.grievances.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	now := w.clock.Now()
	escalated := 0
	for i := range records {
		g := &records[i]
		next, ok := sla.NextEscalation(g, now)
		if !ok {
			continue
		}

		_, err := w.grievances.db.Exec(ctx,
			`UPDATE grievances SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
			g.ID, next, now, g.Status,
		)
		if err != nil {
			w.logger.Errorw("Failed to escalate grievance", "id", g.ID, "error", err)
			continue
		}

		_ = w.events.Append(ctx, g.ID, nil, "SYSTEM", models.ActionEscalated,
			fmt.Sprintf("%s -> %s", g.Status, next))
		escalated++
	}
	return escalated, nil
}
