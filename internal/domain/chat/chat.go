// Package chat implements the buyer support channel: one conversation per
// buyer, opened on first contact and claimed by a support agent.
package chat

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a conversation does not exist.
	ErrNotFound = errors.New("conversation not found")
	// ErrAlreadyClaimed is returned when an agent claims an active conversation.
	ErrAlreadyClaimed = errors.New("conversation already claimed")
	// ErrEmptyMessage is returned when a posted message has no body.
	ErrEmptyMessage = errors.New("message body required")
)

// ConversationStatus is the lifecycle state of a support conversation.
type ConversationStatus string

const (
	// StatusPending means no agent has picked the conversation up yet.
	StatusPending ConversationStatus = "pending"
	// StatusActive means an agent claimed it and both sides can talk.
	StatusActive ConversationStatus = "active"
)

// Sender identifies which side of the conversation wrote a message.
type Sender string

const (
	SenderBuyer   Sender = "buyer"
	SenderSupport Sender = "support"
)

// Conversation is one buyer's support thread.
type Conversation struct {
	ID         string
	BuyerID    string
	BuyerEmail string
	Status     ConversationStatus
	AgentID    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Message is a single chat message within a conversation.
type Message struct {
	ID             string
	ConversationID string
	Sender         Sender
	Body           string
	CreatedAt      time.Time
}

// Repository defines persistence for conversations and messages.
type Repository interface {
	// FindOpenByBuyer returns the buyer's pending or active conversation,
	// or ErrNotFound when none exists.
	FindOpenByBuyer(ctx context.Context, buyerID string) (*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	CreateConversation(ctx context.Context, c *Conversation) error
	UpdateConversation(ctx context.Context, c *Conversation) error
	ListPending(ctx context.Context) ([]Conversation, error)
	CreateMessage(ctx context.Context, m *Message) error
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}

// Publisher pushes a message to whoever is watching the conversation live.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}
