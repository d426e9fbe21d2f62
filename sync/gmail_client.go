// ABOUTME: Google Gmail API client and the message source the inbox reads from
// ABOUTME: Wraps gmail.Service calls for profile, search, history, and message fetches
package sync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const maxGmailResults = 500

// NewGmailClient creates a Gmail API service authorized by token.
func NewGmailClient(ctx context.Context, token *oauth2.Token) (*gmail.Service, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	client := NewOAuthConfig().Client(ctx, token)
	service, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return service, nil
}

// MessageSource is the subset of the Gmail API the inbox needs.
type MessageSource interface {
	Profile(ctx context.Context) (address string, historyID uint64, err error)
	Search(ctx context.Context, query, pageToken string) (ids []string, next string, err error)
	History(ctx context.Context, startHistoryID uint64, pageToken string) (ids []string, next string, err error)
	Message(ctx context.Context, id string) (*gmail.Message, error)
}

type gmailSource struct {
	svc *gmail.Service
}

// NewGmailSource reads messages through svc.
func NewGmailSource(svc *gmail.Service) MessageSource {
	return &gmailSource{svc: svc}
}

func (s *gmailSource) Profile(ctx context.Context) (string, uint64, error) {
	profile, err := s.svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", 0, fmt.Errorf("failed to get user profile: %w", err)
	}
	return profile.EmailAddress, profile.HistoryId, nil
}

func (s *gmailSource) Search(ctx context.Context, query, pageToken string) ([]string, string, error) {
	call := s.svc.Users.Messages.List("me").Q(query).MaxResults(maxGmailResults)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch messages: %w", err)
	}

	ids := make([]string, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		ids = append(ids, m.Id)
	}
	return ids, resp.NextPageToken, nil
}

func (s *gmailSource) History(ctx context.Context, startHistoryID uint64, pageToken string) ([]string, string, error) {
	call := s.svc.Users.History.List("me").
		StartHistoryId(startHistoryID).
		HistoryTypes("messageAdded").
		MaxResults(maxGmailResults)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch history: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, h := range resp.History {
		for _, added := range h.MessagesAdded {
			if added.Message == nil || seen[added.Message.Id] {
				continue
			}
			seen[added.Message.Id] = true
			ids = append(ids, added.Message.Id)
		}
	}
	return ids, resp.NextPageToken, nil
}

func (s *gmailSource) Message(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := s.svc.Users.Messages.Get("me", id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message: %w", err)
	}
	return msg, nil
}
