package monitoring

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/hg9336099029/survey-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// CounterAuditor periodically recomputes per-option vote counters from the
// vote rows and repairs any drift. The vote path keeps both in sync inside a
// transaction, so a repair firing means something external touched the data.
type CounterAuditor struct {
	db       *sql.DB
	eventSvc services.EventServiceProvider
	schedule cron.Schedule
	done     chan bool
}

// NewCounterAuditor creates a new auditor. The schedule expression accepts
// standard five-field cron specs as well as @every durations.
func NewCounterAuditor(db *sql.DB, eventSvc services.EventServiceProvider, scheduleExpr string) (*CounterAuditor, error) {
	schedule, err := cron.ParseStandard(scheduleExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid audit schedule %q: %w", scheduleExpr, err)
	}
	return &CounterAuditor{
		db:       db,
		eventSvc: eventSvc,
		schedule: schedule,
		done:     make(chan bool),
	}, nil
}

// Run starts the auditor loop. It blocks until Stop is called.
func (a *CounterAuditor) Run() {
	log.Info().Msg("Starting background vote counter auditor...")

	// Run once immediately on start
	a.auditOnce()

	for {
		next := a.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-a.done:
			timer.Stop()
			log.Info().Msg("Stopping background vote counter auditor.")
			return
		case <-timer.C:
			a.auditOnce()
		}
	}
}

// Stop halts the auditor.
func (a *CounterAuditor) Stop() {
	a.done <- true
}

// auditOnce repairs every option counter that disagrees with its vote rows.
func (a *CounterAuditor) auditOnce() {
	repaired, err := a.Audit()
	if err != nil {
		log.Error().Err(err).Msg("Auditor: failed to audit vote counters")
		return
	}
	if repaired > 0 {
		log.Warn().Int("repaired", repaired).Msg("Auditor: repaired drifted vote counters")
		if a.eventSvc != nil {
			msg := fmt.Sprintf("Repaired %d drifted vote counter(s).", repaired)
			_ = a.eventSvc.CreateEvent("system.audit.repair", "warn", msg, nil)
		}
	}
}

// Audit recomputes counters from the votes table in one statement and
// returns how many option rows were corrected.
func (a *CounterAuditor) Audit() (int, error) {
	res, err := a.db.Exec(`
		UPDATE poll_options
		SET votes = (
			SELECT COUNT(*) FROM votes v
			WHERE v.poll_id = poll_options.poll_id AND v.option_idx = poll_options.idx
		)
		WHERE votes != (
			SELECT COUNT(*) FROM votes v
			WHERE v.poll_id = poll_options.poll_id AND v.option_idx = poll_options.idx
		)`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
