// ABOUTME: Task handlers for each step of the prospect lifecycle
// ABOUTME: Research, engagement, follow-up, reply handling, meeting scheduling, qualification, and handoff
package agent

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/classifier"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/decision"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/router"
)

const (
	actionSkip = "skip"

	// oooFallback postpones follow-ups when no return date is stated.
	oooFallback = 7 * 24 * time.Hour

	historyMessages = 5
)

func (a *Agent) handleDiscover(ctx context.Context, p *models.Prospect) error {
	if p.Status != models.ProspectNew && p.Status != models.ProspectQueued {
		return nil
	}
	a.queueResearch(ctx, p)
	return nil
}

// handleResearch decides whether to pursue the prospect. An unreachable
// backend fails the task; a skip disqualifies; anything else qualifies.
func (a *Agent) handleResearch(ctx context.Context, p *models.Prospect) error {
	if models.IsTerminal(p.Status) {
		return nil
	}
	a.setStatus(p, models.ProspectResearching)

	d := a.decide(ctx, models.DecisionShouldEngage, a.prospectContext(p))
	if decision.IsTransportFallback(d) {
		return fmt.Errorf("%w: %s", ErrDecisionUnavailable, d.MetadataString("error"))
	}
	if d.Action == actionSkip {
		a.logger.Info("prospect skipped", zap.String("prospect_id", p.ID.String()), zap.String("reasoning", d.Reasoning))
		a.setStatus(p, models.ProspectDisqualified)
		return nil
	}
	return a.qualify(ctx, p, "research", nil)
}

// handleEngage sends the first touch of a new series.
func (a *Agent) handleEngage(ctx context.Context, t models.Task, p *models.Prospect, pl models.EngagePayload) error {
	switch p.Status {
	case models.ProspectNew, models.ProspectQueued, models.ProspectResearching, models.ProspectNurture:
	default:
		a.logger.Debug("engage skipped", zap.String("prospect_id", p.ID.String()), zap.String("status", p.Status))
		return nil
	}

	channel, err := a.chooseChannel(ctx, p, pl.Channel)
	if err != nil {
		return err
	}

	seriesID := uuid.NewString()
	subject, body := a.compose(ctx, p, channel, 1)
	sentAt, err := a.sendTouch(ctx, t, p, channel, seriesID, 1, subject, body)
	if err != nil {
		return err
	}
	if sentAt.IsZero() {
		return nil
	}

	a.setStatus(p, models.ProspectEngaged)
	return a.scheduleFollowUp(ctx, p, seriesID, 1, channel, sentAt, t.ID)
}

// handleFollowUp sends touch N of a series unless the prospect has moved on.
func (a *Agent) handleFollowUp(ctx context.Context, t models.Task, p *models.Prospect, pl models.FollowUpPayload) error {
	maxTouches := a.cfg.Cadence.MaxTouches
	if pl.TouchNumber < 2 || pl.TouchNumber > maxTouches {
		return fmt.Errorf("invalid touch number %d (max %d)", pl.TouchNumber, maxTouches)
	}

	if !models.IsFollowUpEligible(p.Status) {
		a.logger.Debug("follow-up skipped", zap.String("prospect_id", p.ID.String()), zap.String("status", p.Status))
		return nil
	}

	// A reply whose respond task already failed no longer holds the series;
	// the replied-since check below turns this touch into a no-op.
	if a.queue.HasActive(p.ID, models.TaskRespond) {
		return &deferral{until: a.now(), reason: "reply being handled"}
	}
	fresh, err := db.HasNewReplies(a.db, p.ID)
	if err != nil {
		return err
	}
	if fresh {
		return &deferral{until: a.now(), reason: "reply awaiting classification"}
	}

	if p.LastContactedAt != nil {
		replied, err := db.HasMeaningfulReplySince(a.db, p.ID, *p.LastContactedAt)
		if err != nil {
			return err
		}
		if replied {
			a.logger.Debug("follow-up skipped after reply", zap.String("prospect_id", p.ID.String()))
			return nil
		}
	}

	last, err := db.LastTouchNumber(a.db, pl.SeriesID)
	if err != nil {
		return err
	}
	if last >= pl.TouchNumber {
		a.logger.Debug("touch already sent", zap.String("series_id", pl.SeriesID), zap.Int("touch", pl.TouchNumber))
		return nil
	}

	channel := pl.Channel
	if !models.IsValidChannel(channel) {
		channel = a.cfg.Sending.DefaultChannel
	}

	subject, body := a.compose(ctx, p, channel, pl.TouchNumber)
	sentAt, err := a.sendTouch(ctx, t, p, channel, pl.SeriesID, pl.TouchNumber, subject, body)
	if err != nil {
		return err
	}
	if sentAt.IsZero() {
		return nil
	}

	if pl.TouchNumber >= maxTouches {
		a.logger.Info("follow-up series exhausted", zap.String("prospect_id", p.ID.String()), zap.Int("touches", pl.TouchNumber))
		a.setStatus(p, models.ProspectUnresponsive)
		return nil
	}
	return a.scheduleFollowUp(ctx, p, pl.SeriesID, pl.TouchNumber, channel, sentAt, t.ID)
}

// handleRespond classifies and routes a reply, then moves the prospect along.
func (a *Agent) handleRespond(ctx context.Context, p *models.Prospect, pl models.RespondPayload) error {
	reply, err := db.GetReply(a.db, pl.ReplyID)
	if err != nil {
		return err
	}
	if reply == nil {
		return fmt.Errorf("reply %s not found", pl.ReplyID)
	}
	if reply.Status == models.ReplyProcessed {
		return nil
	}

	history := a.threadHistory(p.ID, reply.ID)
	cls := a.classifier.Classify(ctx, classifier.ReplyInput{
		Subject:    reply.Subject,
		Body:       reply.Body,
		History:    history,
		ReceivedAt: reply.ReceivedAt,
	})

	_, routeErr := a.router.Route(ctx, router.RouteInput{
		Prospect:       p,
		Reply:          reply,
		Classification: cls,
		History:        history,
	})

	if err := db.MarkReplyProcessed(a.db, reply.ID, cls.Category); err != nil {
		a.logger.Warn("failed to mark reply processed", zap.String("reply_id", reply.ID.String()), zap.Error(err))
	}

	a.react(ctx, p, reply, cls)
	return routeErr
}

// react applies the lifecycle consequences of a classified reply.
func (a *Agent) react(ctx context.Context, p *models.Prospect, reply *models.Reply, cls models.Classification) {
	if !cls.Category.IsAutomated() && !models.IsTerminal(p.Status) && p.Status != models.ProspectMeetingPending {
		a.setStatus(p, models.ProspectReplied)
	}

	replyID := reply.ID
	var err error
	switch cls.Category {
	case models.CategoryMeetingRequest:
		err = a.chain(ctx, p, prioritySchedule, a.now(), models.SchedulePayload{
			ReplyID:       replyID,
			RequestedTime: cls.Entities.Timeline,
		})
	case models.CategoryPositiveInterest:
		err = a.chain(ctx, p, priorityQualify, a.now(), models.QualifyPayload{Trigger: "reply", ReplyID: &replyID})
	case models.CategoryNotInterested, models.CategoryUnsubscribe:
		a.setStatus(p, models.ProspectDisqualified)
		a.cancelOutreach(ctx, p)
	case models.CategoryOutOfOffice:
		until, ok := classifier.DetectReturnDate(reply.Body, a.now())
		if !ok {
			until = a.now().Add(oooFallback)
		}
		n := a.queue.Reschedule(ctx, p.ID, models.TaskFollowUp, until)
		a.logger.Info("follow-up postponed",
			zap.String("prospect_id", p.ID.String()),
			zap.Time("until", until),
			zap.Int("tasks", n))
	case models.CategoryWrongPerson, models.CategoryReferral, models.CategoryUnclear:
		a.cancelOutreach(ctx, p)
	}
	if err != nil {
		a.logger.Warn("failed to chain task after reply", zap.String("prospect_id", p.ID.String()), zap.Error(err))
	}
}

// handleSchedule proposes a meeting slot and hands the prospect to a human.
func (a *Agent) handleSchedule(ctx context.Context, p *models.Prospect, pl models.SchedulePayload) error {
	if p.Status == models.ProspectHandedOff {
		return nil
	}

	input := a.prospectContext(p)
	input["requested_time"] = pl.RequestedTime
	d := a.decide(ctx, models.DecisionTiming, input)

	proposed := pl.RequestedTime
	if !d.IsFallback() {
		if s := d.MetadataString("proposed_time"); s != "" {
			proposed = s
		}
	}

	a.setStatus(p, models.ProspectMeetingPending)
	replyID := pl.ReplyID
	reason := "meeting_requested"
	if proposed != "" {
		reason += ": " + proposed
	}
	return a.chain(ctx, p, a.cfg.Qualification.HandoffPriority, a.now(), models.HandoffPayload{
		Reason:  reason,
		Score:   p.QualificationScore,
		ReplyID: &replyID,
	})
}

// handleHandoff records a handoff for a human owner and stops automation.
func (a *Agent) handleHandoff(ctx context.Context, p *models.Prospect, pl models.HandoffPayload) error {
	if p.Status == models.ProspectHandedOff {
		return nil
	}

	existing, err := db.GetOpenHandoff(a.db, p.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		input := a.prospectContext(p)
		input["reason"] = pl.Reason
		input["score"] = pl.Score
		d := a.decide(ctx, models.DecisionHandoff, input)

		summary := d.MetadataString("summary")
		if d.IsFallback() || summary == "" {
			summary = fmt.Sprintf("%s (%s), qualification score %d: %s", p.Name, p.Title, p.QualificationScore, pl.Reason)
		}

		h := &models.Handoff{
			ProspectID: p.ID,
			ReplyID:    pl.ReplyID,
			Reason:     pl.Reason,
			Summary:    summary,
		}
		if pl.ReplyID != nil {
			if reply, err := db.GetReply(a.db, *pl.ReplyID); err == nil && reply != nil {
				h.Excerpt = reply.Body
			}
		}
		if err := db.CreateHandoff(a.db, h); err != nil {
			return err
		}
	}

	a.setStatus(p, models.ProspectHandedOff)
	a.cancelOutreach(ctx, p)
	a.logger.Info("prospect handed off", zap.String("prospect_id", p.ID.String()), zap.String("reason", pl.Reason))
	return nil
}

// qualify scores the prospect and picks the next step.
func (a *Agent) qualify(ctx context.Context, p *models.Prospect, trigger string, replyID *uuid.UUID) error {
	in := models.QualificationInput{
		Title:          p.Title,
		IntentScore:    p.IntentScore,
		LastActivityAt: p.LastActivityAt,
	}
	if p.CompanyID != nil {
		company, err := db.GetCompany(a.db, *p.CompanyID)
		if err != nil {
			return err
		}
		if company != nil {
			in.EmployeeCount = company.EmployeeCount
			in.FundingUSD = company.FundingUSD
		}
	}

	qc := a.cfg.Qualification
	score := models.QualificationScore(in, qc.Weights, a.now())
	if err := db.UpdateQualificationScore(a.db, p.ID, score); err != nil {
		a.logger.Warn("failed to store qualification score", zap.String("prospect_id", p.ID.String()), zap.Error(err))
	}
	p.QualificationScore = score

	outcome := models.QualificationOutcome(score, qc.HandoffThreshold, qc.EngageThreshold)
	a.logger.Info("prospect qualified",
		zap.String("prospect_id", p.ID.String()),
		zap.String("trigger", trigger),
		zap.Int("score", score),
		zap.String("outcome", outcome))

	switch outcome {
	case models.QualifyHandoff:
		return a.chain(ctx, p, qc.HandoffPriority, a.now(), models.HandoffPayload{
			Reason:  "qualified",
			Score:   score,
			ReplyID: replyID,
		})
	case models.QualifyContinue:
		switch p.Status {
		case models.ProspectEngaged, models.ProspectReplied, models.ProspectMeetingPending:
			return nil
		}
		return a.chain(ctx, p, priorityEngage, a.now(), models.EngagePayload{})
	default:
		a.setStatus(p, models.ProspectNurture)
		a.cancelOutreach(ctx, p)
		return nil
	}
}

// threadHistory returns the bodies of earlier outbound touches and replies,
// oldest first, capped at the most recent few.
func (a *Agent) threadHistory(prospectID, currentReply uuid.UUID) []string {
	type message struct {
		at   time.Time
		body string
	}
	var msgs []message

	touches, err := db.GetTouchesForProspect(a.db, prospectID)
	if err != nil {
		a.logger.Warn("failed to load touches", zap.String("prospect_id", prospectID.String()), zap.Error(err))
	}
	for _, t := range touches {
		msgs = append(msgs, message{t.SentAt, t.Body})
	}

	replies, err := db.GetRepliesForProspect(a.db, prospectID)
	if err != nil {
		a.logger.Warn("failed to load replies", zap.String("prospect_id", prospectID.String()), zap.Error(err))
	}
	for _, r := range replies {
		if r.ID == currentReply {
			continue
		}
		msgs = append(msgs, message{r.ReceivedAt, r.Body})
	}

	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].at.Before(msgs[j].at) })
	if len(msgs) > historyMessages {
		msgs = msgs[len(msgs)-historyMessages:]
	}

	history := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.body != "" {
			history = append(history, m.body)
		}
	}
	return history
}
