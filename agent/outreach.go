// ABOUTME: Outbound touch composition, sending, and follow-up cadence scheduling
// ABOUTME: Wraps decision calls with fallback accounting and falls back to message templates
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/decision"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/outbound"
)

// decide asks the decider and counts fallbacks. Without a decider every
// decision is a parse-style fallback, so handlers use their defaults.
func (a *Agent) decide(ctx context.Context, t models.DecisionType, input map[string]interface{}) models.Decision {
	var d models.Decision
	if a.decider == nil {
		d = decision.Fallback(decision.FailureParse, nil, "")
	} else {
		d = a.decider.Decide(ctx, t, input)
	}
	if d.IsFallback() {
		a.fallbacks.Add(1)
	}
	return d
}

func (a *Agent) prospectContext(p *models.Prospect) map[string]interface{} {
	input := map[string]interface{}{
		"prospect_id":         p.ID.String(),
		"name":                p.Name,
		"title":               p.Title,
		"intent_score":        p.IntentScore,
		"status":              p.Status,
		"contact_count":       p.ContactCount,
		"qualification_score": p.QualificationScore,
		"relationship_stage":  p.RelationshipStage,
		"has_email":           p.Email != "",
		"has_linkedin":        p.LinkedInURL != "",
	}
	if p.LastActivityAt != nil {
		input["last_activity_at"] = p.LastActivityAt.UTC().Format(time.RFC3339)
	}
	if p.CompanyID != nil {
		if c, err := db.GetCompany(a.db, *p.CompanyID); err == nil && c != nil {
			input["company"] = map[string]interface{}{
				"name":           c.Name,
				"industry":       c.Industry,
				"employee_count": c.EmployeeCount,
				"funding_usd":    c.FundingUSD,
			}
		}
	}
	return input
}

// chooseChannel picks the channel for a new series. A channel without an
// address falls back to the other one.
func (a *Agent) chooseChannel(ctx context.Context, p *models.Prospect, requested string) (string, error) {
	channel := requested
	if !models.IsValidChannel(channel) {
		d := a.decide(ctx, models.DecisionChannelSelection, a.prospectContext(p))
		channel = d.Action
		if d.IsFallback() || !models.IsValidChannel(channel) {
			channel = a.cfg.Sending.DefaultChannel
		}
	}

	if recipient(p, channel) == "" {
		other := models.ChannelEmail
		if channel == models.ChannelEmail {
			other = models.ChannelLinkedIn
		}
		if recipient(p, other) == "" {
			return "", fmt.Errorf("%w: prospect %s", outbound.ErrNoRecipient, p.ID)
		}
		channel = other
	}
	return channel, nil
}

// compose asks for a personalized message and falls back to a template.
func (a *Agent) compose(ctx context.Context, p *models.Prospect, channel string, touch int) (subject, body string) {
	input := a.prospectContext(p)
	input["channel"] = channel
	input["touch_number"] = touch
	input["max_touches"] = a.cfg.Cadence.MaxTouches

	d := a.decide(ctx, models.DecisionMessaging, input)
	if !d.IsFallback() {
		subject = strings.TrimSpace(d.MetadataString("subject"))
		body = strings.TrimSpace(d.MetadataString("body"))
	}

	tmplSubject, tmplBody := templateMessage(p, touch, a.cfg.Sending.SenderName)
	if body == "" {
		body = tmplBody
	}
	if subject == "" && channel == models.ChannelEmail {
		subject = tmplSubject
	}
	return subject, body
}

func templateMessage(p *models.Prospect, touch int, sender string) (string, string) {
	first := strings.Fields(p.Name)
	greeting := "Hi there,"
	if len(first) > 0 {
		greeting = "Hi " + first[0] + ","
	}
	signoff := ""
	if sender != "" {
		signoff = "\n\n" + sender
	}

	if touch <= 1 {
		return "Quick question",
			greeting + "\n\nI work with teams like yours on outbound pipeline. Would a short call next week be useful?" + signoff
	}
	return "Following up",
		fmt.Sprintf("%s\n\nFollowing up on my earlier note (%d). Happy to send a few details if the timing is better later.%s",
			greeting, touch-1, signoff)
}

// sendTouch sends one touch and records it. A zero time with a nil error
// means the recipient is suppressed and the prospect was disqualified. The
// daily cap defers the task to the next cycle.
func (a *Agent) sendTouch(ctx context.Context, t models.Task, p *models.Prospect, channel, seriesID string, touch int, subject, body string) (time.Time, error) {
	if a.sender == nil {
		return time.Time{}, fmt.Errorf("no outbound sender configured")
	}

	_, err := a.sender.Send(ctx, outbound.Message{
		ProspectID: p.ID,
		Channel:    channel,
		To:         recipient(p, channel),
		ToName:     p.Name,
		Subject:    subject,
		Body:       body,
	})
	switch {
	case err == nil:
	case errors.Is(err, outbound.ErrDailyLimitReached):
		a.rateLimited.Add(1)
		return time.Time{}, &deferral{until: a.now(), reason: "daily send limit reached"}
	case errors.Is(err, outbound.ErrSuppressed):
		a.logger.Info("recipient suppressed", zap.String("prospect_id", p.ID.String()))
		a.setStatus(p, models.ProspectDisqualified)
		a.cancelOutreach(ctx, p)
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("failed to send touch %d: %w", touch, err)
	}

	sentAt := a.now()
	a.sent.Add(1)

	err = db.CreateTouch(a.db, &models.Touch{
		ProspectID:  p.ID,
		SeriesID:    seriesID,
		TouchNumber: touch,
		Channel:     channel,
		Subject:     subject,
		Body:        body,
		SentAt:      sentAt,
		TaskID:      t.ID,
	})
	if err != nil {
		a.logger.Warn("failed to record touch", zap.String("prospect_id", p.ID.String()), zap.Int("touch", touch), zap.Error(err))
	}
	if err := db.RecordOutboundTouch(a.db, p.ID, sentAt); err != nil {
		a.logger.Warn("failed to stamp prospect contact", zap.String("prospect_id", p.ID.String()), zap.Error(err))
	}
	p.LastContactedAt = &sentAt
	p.ContactCount++

	a.logger.Info("touch sent",
		zap.String("prospect_id", p.ID.String()),
		zap.String("series_id", seriesID),
		zap.Int("touch", touch),
		zap.String("channel", channel))
	return sentAt, nil
}

// scheduleFollowUp queues the touch after sentTouch. It is a no-op when the
// prospect already has a follow-up other than the running task, or when the
// series is complete.
func (a *Agent) scheduleFollowUp(ctx context.Context, p *models.Prospect, seriesID string, sentTouch int, channel string, sentAt time.Time, runningTask string) error {
	if sentTouch >= a.cfg.Cadence.MaxTouches {
		return nil
	}
	for _, t := range a.queue.Tasks(p.ID) {
		if t.Type == models.TaskFollowUp && t.ID != runningTask {
			a.logger.Debug("follow-up already scheduled", zap.String("prospect_id", p.ID.String()), zap.String("task_id", t.ID))
			return nil
		}
	}

	at := sentAt.Add(models.FollowUpDelay(sentTouch, a.cfg.Cadence.Days))
	return a.enqueue(ctx, p.ID, priorityFollowUp, at, models.FollowUpPayload{
		SeriesID:    seriesID,
		TouchNumber: sentTouch + 1,
		Channel:     channel,
	})
}
