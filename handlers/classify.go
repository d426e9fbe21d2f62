// ABOUTME: Reply classification MCP tool handler
// ABOUTME: Implements classify_reply, a dry run of the classifier and route table
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DoniaKassem/AIRevenueOrc-sub002/classifier"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/models"
	"github.com/DoniaKassem/AIRevenueOrc-sub002/router"
)

// ReplyClassifier is satisfied by *classifier.Classifier.
type ReplyClassifier interface {
	Classify(ctx context.Context, in classifier.ReplyInput) models.Classification
}

type ClassifyHandlers struct {
	classifier ReplyClassifier
}

func NewClassifyHandlers(c ReplyClassifier) *ClassifyHandlers {
	return &ClassifyHandlers{classifier: c}
}

type ClassifyReplyInput struct {
	Subject      string   `json:"subject,omitempty" jsonschema:"Reply subject line"`
	Body         string   `json:"body" jsonschema:"Reply body text (required)"`
	History      []string `json:"history,omitempty" jsonschema:"Earlier messages in the thread, oldest first"`
	CurrentStage string   `json:"current_stage,omitempty" jsonschema:"Prospect relationship stage before this reply"`
}

type ClassifyReplyOutput struct {
	Category            string   `json:"category"`
	Sentiment           string   `json:"sentiment"`
	SentimentScore      float64  `json:"sentiment_score"`
	Intents             []string `json:"intents"`
	Objection           string   `json:"objection,omitempty"`
	ReturnDate          string   `json:"return_date,omitempty"`
	SuggestedAction     string   `json:"suggested_action"`
	Priority            string   `json:"priority"`
	RequiresHumanReview bool     `json:"requires_human_review"`
	Confidence          float64  `json:"confidence"`
	Source              string   `json:"source"`
	RoutedTo            string   `json:"routed_to"`
	NextStage           string   `json:"next_stage"`
}

// ClassifyReply classifies text without storing anything or acting on it.
func (h *ClassifyHandlers) ClassifyReply(ctx context.Context, request *mcp.CallToolRequest, input ClassifyReplyInput) (*mcp.CallToolResult, ClassifyReplyOutput, error) {
	if strings.TrimSpace(input.Body) == "" {
		return nil, ClassifyReplyOutput{}, fmt.Errorf("body is required")
	}

	now := time.Now().UTC()
	cls := h.classifier.Classify(ctx, classifier.ReplyInput{
		Subject:    input.Subject,
		Body:       input.Body,
		History:    input.History,
		ReceivedAt: now,
	})

	out := classificationToOutput(cls, input.CurrentStage)
	if cls.Category == models.CategoryOutOfOffice {
		if until, ok := classifier.DetectReturnDate(input.Body, now); ok {
			out.ReturnDate = until.Format("2006-01-02")
		}
	}
	return nil, out, nil
}

func classificationToOutput(cls models.Classification, stage string) ClassifyReplyOutput {
	out := ClassifyReplyOutput{
		Category:            string(cls.Category),
		Sentiment:           cls.Sentiment.Label,
		SentimentScore:      cls.Sentiment.Score,
		Intents:             make([]string, len(cls.Intents)),
		SuggestedAction:     cls.SuggestedAction.Action,
		Priority:            cls.SuggestedAction.Priority,
		RequiresHumanReview: cls.RequiresHumanReview,
		Confidence:          cls.Confidence,
		Source:              cls.Source,
		RoutedTo:            router.Destination(cls),
		NextStage:           router.StageFor(cls.Category, stage),
	}
	for i, intent := range cls.Intents {
		out.Intents[i] = intent.Type
	}
	if cls.Objection != nil {
		out.Objection = cls.Objection.Type
	}
	return out
}
