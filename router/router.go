// ABOUTME: Response router that turns a reply classification into a concrete action
// ABOUTME: Drafts responses, sends or queues them for approval, escalates to humans, and records the outcome
package router

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/db"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/outbound"
)

// Actions recorded on routing decisions besides the suggested action itself.
const (
	ActionResponseSent      = "response_sent"
	ActionQueuedForApproval = "queued_for_approval"
	ActionEscalated         = "escalated_to_human"
	ActionSuppressed        = "suppressed"
	ActionFailed            = "failed"
)

const maxExcerpt = 600

// Sender delivers outbound messages.
type Sender interface {
	Send(ctx context.Context, msg outbound.Message) (outbound.Ack, error)
}

// Decider produces decisions; satisfied by *decision.Engine.
type Decider interface {
	Decide(ctx context.Context, t models.DecisionType, input map[string]interface{}) models.Decision
}

// Config controls what the router may do without a human.
type Config struct {
	AutoApprove bool
}

// RouteInput is one classified reply.
type RouteInput struct {
	Prospect       *models.Prospect
	Reply          *models.Reply
	Classification models.Classification
	History        []string // earlier thread messages, oldest first
}

// Router applies the route table to classified replies.
type Router struct {
	db        *sql.DB
	approvals ApprovalQueue
	sender    Sender
	decider   Decider
	cfg       Config
	logger    *zap.Logger
}

// New creates a router. sender and decider may be nil, in which case drafts
// come only from the classification and nothing is sent directly.
func New(database *sql.DB, approvals ApprovalQueue, sender Sender, decider Decider, cfg Config, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if approvals == nil {
		approvals = NewDBApprovalQueue(database)
	}
	return &Router{
		db:        database,
		approvals: approvals,
		sender:    sender,
		decider:   decider,
		cfg:       cfg,
		logger:    logger,
	}
}

// Route acts on a classification and returns the recorded decision. The
// classification and decision are persisted on every path; a failure to
// persist them is logged, not returned. An error is returned only when the
// routed action itself failed.
func (r *Router) Route(ctx context.Context, in RouteInput) (models.RoutingDecision, error) {
	cls := in.Classification
	routedTo := Destination(cls)

	d := models.RoutingDecision{
		ProspectID:          in.Prospect.ID,
		ReplyID:             in.Reply.ID,
		Category:            cls.Category,
		RoutedTo:            routedTo,
		Reasoning:           routeReasoning(cls, routedTo),
		Confidence:          cls.Confidence,
		ActionTaken:         cls.SuggestedAction.Action,
		RequiresHumanReview: cls.RequiresHumanReview,
	}

	actErr := r.act(ctx, in, &d)
	if actErr != nil {
		d.ActionTaken = ActionFailed
		r.logger.Error("routing action failed",
			zap.String("prospect_id", in.Prospect.ID.String()),
			zap.String("routed_to", routedTo),
			zap.Error(actErr))
	}

	r.updateStage(in.Prospect, cls.Category)
	r.persist(in, &d)

	r.logger.Info("reply routed",
		zap.String("prospect_id", in.Prospect.ID.String()),
		zap.String("category", string(cls.Category)),
		zap.String("routed_to", routedTo),
		zap.String("action", d.ActionTaken),
		zap.Bool("response_sent", d.ResponseSent))

	if actErr != nil {
		return d, fmt.Errorf("failed to route reply %s: %w", in.Reply.ID, actErr)
	}
	return d, nil
}

func (r *Router) act(ctx context.Context, in RouteInput, d *models.RoutingDecision) error {
	cls := in.Classification

	// Opt-outs are honoured even when a human reviews the reply.
	if cls.Category == models.CategoryUnsubscribe {
		if err := r.suppress(in.Prospect); err != nil {
			return err
		}
		d.ActionTaken = ActionSuppressed
	}

	switch d.RoutedTo {
	case models.RouteHuman:
		return r.escalate(in, d)
	case models.RouteSuppression:
		return nil
	}

	draft := ""
	if needsDraft(d.RoutedTo, cls.Category) {
		draft = r.draft(ctx, in)
	}

	switch d.RoutedTo {
	case models.RouteObjectionHandler:
		d.ObjectionHandled = models.BoolPtr(draft != "")
	case models.RouteMeetingScheduler:
		defer func() { d.MeetingScheduled = models.BoolPtr(d.ResponseSent) }()
	}

	if draft == "" {
		return nil
	}
	return r.deliver(ctx, in, draft, d)
}

// deliver sends the draft when auto-approval is on and otherwise queues it.
// A send refused by the daily cap, or failing outright, falls back to the
// approval queue so the draft is not lost.
func (r *Router) deliver(ctx context.Context, in RouteInput, draft string, d *models.RoutingDecision) error {
	msg := r.message(in, draft)

	if r.cfg.AutoApprove && r.sender != nil {
		_, err := r.sender.Send(ctx, msg)
		switch {
		case err == nil:
			d.ResponseSent = true
			d.ActionTaken = ActionResponseSent
			return nil
		case errors.Is(err, outbound.ErrSuppressed):
			d.ActionTaken = ActionSuppressed
			return nil
		case errors.Is(err, outbound.ErrDailyLimitReached):
			d.Reasoning += "; daily send limit reached, queued for approval"
		default:
			r.logger.Warn("auto-send failed, queueing for approval",
				zap.String("prospect_id", in.Prospect.ID.String()),
				zap.Error(err))
			d.Reasoning += "; send failed, queued for approval"
		}
	}

	replyID := in.Reply.ID
	approvalID, err := r.approvals.Enqueue(ctx, Draft{
		ProspectID: in.Prospect.ID,
		ReplyID:    &replyID,
		Channel:    msg.Channel,
		Subject:    msg.Subject,
		Body:       draft,
		Reasoning:  in.Classification.SuggestedAction.Reasoning,
		Confidence: in.Classification.Confidence,
	})
	if err != nil {
		return fmt.Errorf("failed to queue draft for approval: %w", err)
	}
	d.ApprovalID = &approvalID
	d.ActionTaken = ActionQueuedForApproval
	return nil
}

func (r *Router) escalate(in RouteInput, d *models.RoutingDecision) error {
	d.EscalatedToHuman = models.BoolPtr(true)
	if d.ActionTaken != ActionSuppressed {
		d.ActionTaken = ActionEscalated
	}

	existing, err := db.GetOpenHandoff(r.db, in.Prospect.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		d.HandoffID = &existing.ID
		return nil
	}

	replyID := in.Reply.ID
	h := &models.Handoff{
		ProspectID: in.Prospect.ID,
		ReplyID:    &replyID,
		Reason:     handoffReason(in.Classification),
		Summary:    d.Reasoning,
		Excerpt:    conversationExcerpt(in.History, in.Reply.Body),
	}
	if err := db.CreateHandoff(r.db, h); err != nil {
		return err
	}
	d.HandoffID = &h.ID
	return nil
}

func (r *Router) suppress(p *models.Prospect) error {
	for _, addr := range []string{p.Email, p.LinkedInURL} {
		if addr == "" {
			continue
		}
		if err := db.AddSuppression(r.db, addr, "unsubscribe"); err != nil {
			return err
		}
	}
	return nil
}

// draft returns the response text: the classifier's suggestion when present,
// else one written by the decision engine. Empty means no usable draft.
func (r *Router) draft(ctx context.Context, in RouteInput) string {
	cls := in.Classification
	if s := strings.TrimSpace(cls.SuggestedAction.SuggestedResponse); s != "" {
		return s
	}
	if r.decider == nil {
		return ""
	}

	dec := r.decider.Decide(ctx, models.DecisionDraftResponse, map[string]interface{}{
		"prospect_id":      in.Prospect.ID.String(),
		"prospect_name":    in.Prospect.Name,
		"prospect_title":   in.Prospect.Title,
		"category":         string(cls.Category),
		"suggested_action": cls.SuggestedAction.Action,
		"objection":        cls.Objection,
		"reply":            in.Reply.Body,
		"history":          in.History,
	})
	if dec.IsFallback() {
		return ""
	}
	return strings.TrimSpace(dec.MetadataString("body"))
}

func (r *Router) message(in RouteInput, body string) outbound.Message {
	channel := in.Reply.Channel
	if !models.IsValidChannel(channel) {
		channel = models.ChannelEmail
	}
	to := in.Prospect.Email
	if channel == models.ChannelLinkedIn {
		to = in.Prospect.LinkedInURL
	}
	return outbound.Message{
		ProspectID: in.Prospect.ID,
		Channel:    channel,
		To:         to,
		ToName:     in.Prospect.Name,
		Subject:    replySubject(in.Reply.Subject),
		Body:       body,
		ThreadID:   in.Reply.ThreadID,
	}
}

func (r *Router) updateStage(p *models.Prospect, category models.Category) {
	stage := StageFor(category, p.RelationshipStage)
	if stage == p.RelationshipStage {
		return
	}
	if err := db.UpdateRelationshipStage(r.db, p.ID, stage); err != nil {
		r.logger.Warn("failed to update relationship stage", zap.String("prospect_id", p.ID.String()), zap.Error(err))
		return
	}
	p.RelationshipStage = stage
}

func (r *Router) persist(in RouteInput, d *models.RoutingDecision) {
	if err := db.SaveClassification(r.db, in.Reply.ID, in.Prospect.ID, in.Classification); err != nil {
		r.logger.Warn("failed to persist classification", zap.String("reply_id", in.Reply.ID.String()), zap.Error(err))
	}
	if err := db.SaveRoutingDecision(r.db, d); err != nil {
		r.logger.Warn("failed to persist routing decision", zap.String("reply_id", in.Reply.ID.String()), zap.Error(err))
	}
}

func routeReasoning(cls models.Classification, routedTo string) string {
	reason := fmt.Sprintf("%s (%.2f) routed to %s", cls.Category, cls.Confidence, routedTo)
	if cls.RequiresHumanReview {
		reason += "; requires human review"
	}
	if cls.SuggestedAction.Reasoning != "" {
		reason += "; " + cls.SuggestedAction.Reasoning
	}
	return reason
}

func handoffReason(cls models.Classification) string {
	if cls.RequiresHumanReview {
		return "review_required:" + string(cls.Category)
	}
	return string(cls.Category)
}

// conversationExcerpt returns the reply preceded by the last thread message,
// keeping at most the last maxExcerpt characters.
func conversationExcerpt(history []string, reply string) string {
	excerpt := strings.TrimSpace(reply)
	if len(history) > 0 {
		excerpt = strings.TrimSpace(history[len(history)-1]) + "\n---\n" + excerpt
	}
	if runes := []rune(excerpt); len(runes) > maxExcerpt {
		excerpt = string(runes[len(runes)-maxExcerpt:])
	}
	return excerpt
}

func replySubject(subject string) string {
	s := strings.TrimSpace(subject)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(s), "re:") {
		return s
	}
	return "Re: " + s
}
