// ABOUTME: Cycle steps of the agent loop
// ABOUTME: Discovery, queue draining with panic recovery, reply polling, and approved draft dispatch
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/outbound"
)

// Task priorities.
const (
	priorityResearchBase   = 40
	priorityEngage         = 60
	priorityFollowUp       = 50
	priorityQualify        = 70
	priorityRespond        = 85
	priorityRespondMeeting = 95
	prioritySchedule       = 90
)

const repliesPerCycle = 100

// deferral returns a task to pending at until instead of failing it.
type deferral struct {
	until  time.Time
	reason string
}

func (d *deferral) Error() string {
	return "deferred: " + d.reason
}

// discover queues research for new prospects with recent intent.
func (a *Agent) discover(ctx context.Context) int {
	dc := a.cfg.Discovery
	since := a.now().AddDate(0, 0, -dc.RecencyDays)

	candidates, err := db.FindDiscoveryCandidates(a.db, dc.MinIntentScore, since, dc.Batch)
	if err != nil {
		a.logger.Warn("discovery query failed", zap.Error(err))
		return 0
	}

	queued := 0
	for i := range candidates {
		if a.queueResearch(ctx, &candidates[i]) {
			queued++
		}
	}
	return queued
}

func (a *Agent) queueResearch(ctx context.Context, p *models.Prospect) bool {
	if a.queue.HasActive(p.ID, models.TaskResearch) {
		return false
	}
	err := a.enqueue(ctx, p.ID, priorityResearchBase+p.IntentScore/4, a.now(),
		models.ResearchPayload{IntentScore: p.IntentScore})
	if err != nil {
		a.logger.Warn("failed to queue research", zap.String("prospect_id", p.ID.String()), zap.Error(err))
		return false
	}
	a.setStatus(p, models.ProspectQueued)
	return true
}

// drain runs the due tasks. Completed tasks leave the queue, failed tasks stay
// stored with their error, deferred tasks go back to pending.
func (a *Agent) drain(ctx context.Context) (processed, failed, deferred int) {
	if n, err := a.queue.Sync(ctx); err != nil {
		a.logger.Warn("failed to sync queue", zap.Error(err))
	} else if n > 0 {
		a.logger.Debug("picked up external tasks", zap.Int("count", n))
	}

	tasks := a.queue.DequeueTopN(ctx, a.now(), a.cfg.Loop.DrainBatch)
	for _, t := range tasks {
		err := a.execute(ctx, t)

		var def *deferral
		switch {
		case err == nil:
			processed++
			a.processed.Add(1)
			a.markStatus(ctx, t, models.TaskCompleted, "")
		case errors.As(err, &def):
			deferred++
			if derr := a.queue.Defer(ctx, t.ID, def.until); derr != nil {
				a.logger.Warn("failed to defer task", zap.String("task_id", t.ID), zap.Error(derr))
			}
			a.logger.Info("task deferred",
				zap.String("task_id", t.ID),
				zap.String("type", string(t.Type)),
				zap.String("reason", def.reason),
				zap.Time("until", def.until))
		default:
			failed++
			a.failed.Add(1)
			a.markStatus(ctx, t, models.TaskFailed, err.Error())
			a.logger.Error("task failed",
				zap.String("task_id", t.ID),
				zap.String("type", string(t.Type)),
				zap.String("prospect_id", t.ProspectID.String()),
				zap.Int("attempts", t.Attempts),
				zap.Error(err))
		}
	}
	return processed, failed, deferred
}

func (a *Agent) markStatus(ctx context.Context, t models.Task, status models.TaskStatus, msg string) {
	if err := a.queue.MarkStatus(ctx, t.ID, status, msg); err != nil {
		a.logger.Warn("failed to mark task", zap.String("task_id", t.ID), zap.String("status", string(status)), zap.Error(err))
	}
}

// execute runs the handler for t. A panicking handler fails the task.
func (a *Agent) execute(ctx context.Context, t models.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	p, err := db.GetProspect(a.db, t.ProspectID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("prospect %s not found", t.ProspectID)
	}

	switch t.Type {
	case models.TaskDiscover:
		return a.handleDiscover(ctx, p)
	case models.TaskResearch:
		return a.handleResearch(ctx, p)
	case models.TaskEngage:
		pl, ok := t.Payload.(models.EngagePayload)
		if !ok {
			return payloadError(t)
		}
		return a.handleEngage(ctx, t, p, pl)
	case models.TaskFollowUp:
		pl, ok := t.Payload.(models.FollowUpPayload)
		if !ok {
			return payloadError(t)
		}
		return a.handleFollowUp(ctx, t, p, pl)
	case models.TaskRespond:
		pl, ok := t.Payload.(models.RespondPayload)
		if !ok {
			return payloadError(t)
		}
		return a.handleRespond(ctx, p, pl)
	case models.TaskSchedule:
		pl, ok := t.Payload.(models.SchedulePayload)
		if !ok {
			return payloadError(t)
		}
		return a.handleSchedule(ctx, p, pl)
	case models.TaskQualify:
		pl, ok := t.Payload.(models.QualifyPayload)
		if !ok {
			return payloadError(t)
		}
		return a.qualify(ctx, p, pl.Trigger, pl.ReplyID)
	case models.TaskHandoff:
		pl, ok := t.Payload.(models.HandoffPayload)
		if !ok {
			return payloadError(t)
		}
		return a.handleHandoff(ctx, p, pl)
	}
	return fmt.Errorf("no handler for task type %s", t.Type)
}

func payloadError(t models.Task) error {
	return fmt.Errorf("task %s: unexpected %s payload %T", t.ID, t.Type, t.Payload)
}

// pollReplies ingests from the inbox and queues a respond task for every new
// reply.
func (a *Agent) pollReplies(ctx context.Context) int {
	if a.inbox != nil {
		n, err := a.inbox.Poll(ctx)
		if err != nil {
			a.logger.Warn("inbox poll failed", zap.Error(err))
		} else if n > 0 {
			a.logger.Info("ingested replies", zap.Int("count", n))
		}
	}

	replies, err := db.ListRepliesByStatus(a.db, models.ReplyNew, repliesPerCycle)
	if err != nil {
		a.logger.Warn("failed to list new replies", zap.Error(err))
		return 0
	}

	queued := 0
	for _, r := range replies {
		priority := priorityRespond
		p, err := db.GetProspect(a.db, r.ProspectID)
		if err == nil && p != nil && p.Status == models.ProspectMeetingPending {
			priority = priorityRespondMeeting
		}

		if err := a.enqueue(ctx, r.ProspectID, priority, a.now(), models.RespondPayload{ReplyID: r.ID}); err != nil {
			a.logger.Warn("failed to queue reply", zap.String("reply_id", r.ID.String()), zap.Error(err))
			continue
		}
		if err := db.UpdateReplyStatus(a.db, r.ID, models.ReplyQueued); err != nil {
			a.logger.Warn("failed to mark reply queued", zap.String("reply_id", r.ID.String()), zap.Error(err))
		}
		queued++
	}
	return queued
}

// dispatchApprovals sends drafts a human approved. The daily cap stops the
// pass; the rest wait for the next cycle.
func (a *Agent) dispatchApprovals(ctx context.Context) int {
	if a.sender == nil {
		return 0
	}
	approved, err := db.ListApprovalRequests(a.db, models.ApprovalApproved, 0)
	if err != nil {
		a.logger.Warn("failed to list approved drafts", zap.Error(err))
		return 0
	}

	sent := 0
	for _, req := range approved {
		p, err := db.GetProspect(a.db, req.ProspectID)
		if err != nil || p == nil {
			a.logger.Warn("approved draft has no prospect", zap.String("approval_id", req.ID.String()), zap.Error(err))
			continue
		}

		msg := outbound.Message{
			ProspectID: p.ID,
			Channel:    req.Channel,
			To:         recipient(p, req.Channel),
			ToName:     p.Name,
			Subject:    req.Subject,
			Body:       req.Draft,
		}
		if req.ReplyID != nil {
			if reply, err := db.GetReply(a.db, *req.ReplyID); err == nil && reply != nil {
				msg.ThreadID = reply.ThreadID
			}
		}

		if _, err := a.sender.Send(ctx, msg); err != nil {
			if errors.Is(err, outbound.ErrDailyLimitReached) {
				a.rateLimited.Add(1)
				break
			}
			a.logger.Warn("failed to send approved draft", zap.String("approval_id", req.ID.String()), zap.Error(err))
			continue
		}
		a.sent.Add(1)
		if err := db.MarkApprovalSent(a.db, req.ID); err != nil {
			a.logger.Warn("failed to mark approval sent", zap.String("approval_id", req.ID.String()), zap.Error(err))
		}
		sent++
	}
	return sent
}

// enqueue adds a task of the payload's type.
func (a *Agent) enqueue(ctx context.Context, prospectID uuid.UUID, priority int, at time.Time, payload models.TaskPayload) error {
	return a.queue.Enqueue(ctx, &models.Task{
		Type:         payload.TaskType(),
		ProspectID:   prospectID,
		Priority:     priority,
		ScheduledFor: at,
		Payload:      payload,
	})
}

// chain enqueues a follow-on task unless one of the same type is active.
func (a *Agent) chain(ctx context.Context, p *models.Prospect, priority int, at time.Time, payload models.TaskPayload) error {
	if a.queue.HasActive(p.ID, payload.TaskType()) {
		a.logger.Debug("task already active", zap.String("prospect_id", p.ID.String()), zap.String("type", string(payload.TaskType())))
		return nil
	}
	return a.enqueue(ctx, p.ID, priority, at, payload)
}

// setStatus writes the prospect status. Failures are logged; the in-memory
// copy is updated either way so later steps of the handler see it.
func (a *Agent) setStatus(p *models.Prospect, status string) {
	if p.Status == status {
		return
	}
	if err := db.UpdateProspectStatus(a.db, p.ID, status); err != nil {
		a.logger.Warn("failed to update prospect status",
			zap.String("prospect_id", p.ID.String()),
			zap.String("status", status),
			zap.Error(err))
	}
	a.logger.Debug("prospect status changed",
		zap.String("prospect_id", p.ID.String()),
		zap.String("from", p.Status),
		zap.String("to", status))
	p.Status = status
}

func (a *Agent) cancelOutreach(ctx context.Context, p *models.Prospect) {
	n := a.queue.Cancel(ctx, p.ID, models.TaskFollowUp)
	n += a.queue.Cancel(ctx, p.ID, models.TaskEngage)
	if n > 0 {
		a.logger.Info("cancelled outreach", zap.String("prospect_id", p.ID.String()), zap.Int("tasks", n))
	}
}

func recipient(p *models.Prospect, channel string) string {
	if channel == models.ChannelLinkedIn {
		return p.LinkedInURL
	}
	return p.Email
}
