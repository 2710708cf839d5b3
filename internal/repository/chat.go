package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekalkan/pazaryeri/internal/domain/chat"
)

const (
	conversationColumns = `id, buyer_id, buyer_email, status, agent_id, created_at, updated_at`

	findOpenConversationSQL = `SELECT ` + conversationColumns + `
		FROM chat_conversations WHERE buyer_id = $1 LIMIT 1`

	getConversationSQL = `SELECT ` + conversationColumns + `
		FROM chat_conversations WHERE id = $1`

	createConversationSQL = `INSERT INTO chat_conversations
		(id, buyer_id, buyer_email, status, agent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	updateConversationSQL = `UPDATE chat_conversations
		SET status = $2, agent_id = $3, updated_at = $4 WHERE id = $1`

	listPendingConversationsSQL = `SELECT ` + conversationColumns + `
		FROM chat_conversations WHERE status = 'pending' ORDER BY created_at`

	createMessageSQL = `INSERT INTO chat_messages (id, conversation_id, sender, body, sent_at)
		VALUES ($1, $2, $3, $4, $5)`

	listMessagesSQL = `SELECT id, conversation_id, sender, body, sent_at
		FROM chat_messages WHERE conversation_id = $1 ORDER BY sent_at`
)

var _ chat.Repository = (*ChatRepository)(nil)

// ChatRepository implements chat.Repository backed by PostgreSQL.
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository returns a ChatRepository that uses the given pool.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// FindOpenByBuyer returns the buyer's open conversation.
func (r *ChatRepository) FindOpenByBuyer(ctx context.Context, buyerID string) (*chat.Conversation, error) {
	return r.one(ctx, findOpenConversationSQL, buyerID)
}

// GetConversation returns a conversation by id.
func (r *ChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	return r.one(ctx, getConversationSQL, id)
}

func (r *ChatRepository) one(ctx context.Context, query, arg string) (*chat.Conversation, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanConversation)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, chat.ErrNotFound
		}
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	return &c, nil
}

// CreateConversation persists a new conversation.
func (r *ChatRepository) CreateConversation(ctx context.Context, c *chat.Conversation) error {
	_, err := r.pool.Exec(ctx, createConversationSQL,
		c.ID, c.BuyerID, c.BuyerEmail, c.Status, c.AgentID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating conversation %q: %w", c.ID, err)
	}
	return nil
}

// UpdateConversation saves claim changes.
func (r *ChatRepository) UpdateConversation(ctx context.Context, c *chat.Conversation) error {
	tag, err := r.pool.Exec(ctx, updateConversationSQL, c.ID, c.Status, c.AgentID, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating conversation %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return chat.ErrNotFound
	}
	return nil
}

// ListPending returns unclaimed conversations, oldest first.
func (r *ChatRepository) ListPending(ctx context.Context) ([]chat.Conversation, error) {
	rows, err := r.pool.Query(ctx, listPendingConversationsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing pending conversations: %w", err)
	}
	return pgx.CollectRows(rows, scanConversation)
}

// CreateMessage appends a message.
func (r *ChatRepository) CreateMessage(ctx context.Context, m *chat.Message) error {
	_, err := r.pool.Exec(ctx, createMessageSQL,
		m.ID, m.ConversationID, m.Sender, m.Body, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating message %q: %w", m.ID, err)
	}
	return nil
}

// ListMessages returns the conversation's messages, oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	rows, err := r.pool.Query(ctx, listMessagesSQL, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return pgx.CollectRows(rows, scanMessage)
}

func scanConversation(row pgx.CollectableRow) (chat.Conversation, error) {
	var c chat.Conversation
	err := row.Scan(&c.ID, &c.BuyerID, &c.BuyerEmail, &c.Status, &c.AgentID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanMessage(row pgx.CollectableRow) (chat.Message, error) {
	var m chat.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Body, &m.CreatedAt)
	return m, err
}
