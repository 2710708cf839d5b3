package chat

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service drives the support chat flow.
type Service struct {
	repo      Repository
	publisher Publisher
	now       func() time.Time
}

// NewService creates a chat Service. publisher may be nil when no realtime
// backend is configured; messages are then only persisted.
func NewService(repo Repository, publisher Publisher) *Service {
	return &Service{repo: repo, publisher: publisher, now: time.Now}
}

// Channel returns the realtime channel name for a conversation.
func Channel(conversationID string) string {
	return "chat:" + conversationID
}

// Start opens a conversation for the buyer, or returns the existing open one.
// A buyer has at most one open conversation at a time.
func (s *Service) Start(ctx context.Context, buyerID, buyerEmail string) (*Conversation, error) {
	existing, err := s.repo.FindOpenByBuyer(ctx, buyerID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "find conversation")
	}

	now := s.now()
	c := &Conversation{
		ID:         uuid.New().String(),
		BuyerID:    buyerID,
		BuyerEmail: buyerEmail,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateConversation(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create conversation")
	}
	return c, nil
}

// Post appends a message to the conversation and publishes it on the
// conversation's live channel.
func (s *Service) Post(ctx context.Context, conversationID string, sender Sender, body string) (*Message, error) {
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := s.repo.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	m := &Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Sender:         sender,
		Body:           body,
		CreatedAt:      s.now(),
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, errors.Wrap(err, "create message")
	}

	if s.publisher != nil {
		// Delivery is best effort; the message is already durable.
		_ = s.publisher.Publish(ctx, Channel(conversationID), m)
	}
	return m, nil
}

// Get returns a conversation by id.
func (s *Service) Get(ctx context.Context, conversationID string) (*Conversation, error) {
	return s.repo.GetConversation(ctx, conversationID)
}

// Claim assigns a pending conversation to a support agent.
func (s *Service) Claim(ctx context.Context, conversationID, agentID string) (*Conversation, error) {
	c, err := s.repo.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusPending {
		return nil, ErrAlreadyClaimed
	}

	c.Status = StatusActive
	c.AgentID = agentID
	c.UpdatedAt = s.now()
	if err := s.repo.UpdateConversation(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update conversation")
	}
	return c, nil
}

// History returns the conversation's messages in chronological order.
func (s *Service) History(ctx context.Context, conversationID string) ([]Message, error) {
	if _, err := s.repo.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.repo.ListMessages(ctx, conversationID)
}

// Pending lists unclaimed conversations for the support queue.
func (s *Service) Pending(ctx context.Context) ([]Conversation, error) {
	return s.repo.ListPending(ctx)
}
