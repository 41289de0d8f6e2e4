package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/llmbridge/internal/llm"
)

// ErrNotFound is returned for unknown conversation ids.
var ErrNotFound = errors.New("not found")

// Conversation is the metadata of a stored conversation.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Messages  int       `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ConversationStore persists conversations and their messages.
type ConversationStore struct {
	db *DB
}

// NewConversationStore creates a conversation store using the given database.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Create starts a new conversation.
func (s *ConversationStore) Create(title, provider, model string) (*Conversation, error) {
	now := time.Now()
	c := &Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		Provider:  provider,
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.sql.Exec(
		`INSERT INTO conversations (id, title, provider, model, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, title, provider, model, now.Format(time.DateTime), now.Format(time.DateTime),
	)
	if err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return c, nil
}

// Get returns conversation metadata.
func (s *ConversationStore) Get(id string) (*Conversation, error) {
	var c Conversation
	var createdAt, updatedAt string
	err := s.db.sql.QueryRow(
		`SELECT c.id, c.title, c.provider, c.model, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		 FROM conversations c WHERE c.id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.Provider, &c.Model, &createdAt, &updatedAt, &c.Messages)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	c.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
	c.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
	return &c, nil
}

// SetModel records the model a conversation last used.
func (s *ConversationStore) SetModel(id, model string) error {
	_, err := s.db.sql.Exec(
		`UPDATE conversations SET model = ?, updated_at = ? WHERE id = ?`,
		model, time.Now().Format(time.DateTime), id,
	)
	return err
}

// Append adds messages to a conversation in order.
func (s *ConversationStore) Append(id string, msgs ...llm.Message) error {
	tx, err := s.db.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().Format(time.DateTime)
	for _, m := range msgs {
		blocks, err := nullJSON(m.Blocks, len(m.Blocks) > 0)
		if err != nil {
			return fmt.Errorf("encoding blocks: %w", err)
		}
		calls, err := nullJSON(m.ToolCalls, len(m.ToolCalls) > 0)
		if err != nil {
			return fmt.Errorf("encoding tool calls: %w", err)
		}
		if _, err := tx.Exec(
			`INSERT INTO messages (conversation_id, role, content, blocks, tool_calls, tool_call_id, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, string(m.Role), m.Content, blocks, calls, m.ToolCallID, now,
		); err != nil {
			return fmt.Errorf("appending message: %w", err)
		}
	}

	if _, err := tx.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, id); err != nil {
		return err
	}
	return tx.Commit()
}

// History returns the messages of a conversation in insertion order.
func (s *ConversationStore) History(id string) ([]llm.Message, error) {
	rows, err := s.db.sql.Query(
		`SELECT role, content, blocks, tool_calls, tool_call_id
		 FROM messages WHERE conversation_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []llm.Message
	for rows.Next() {
		var m llm.Message
		var role string
		var blocks, calls sql.NullString
		if err := rows.Scan(&role, &m.Content, &blocks, &calls, &m.ToolCallID); err != nil {
			return nil, err
		}
		m.Role = llm.Role(role)
		if blocks.Valid {
			if err := json.Unmarshal([]byte(blocks.String), &m.Blocks); err != nil {
				return nil, fmt.Errorf("decoding blocks: %w", err)
			}
		}
		if calls.Valid {
			if err := json.Unmarshal([]byte(calls.String), &m.ToolCalls); err != nil {
				return nil, fmt.Errorf("decoding tool calls: %w", err)
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// List returns all conversations, most recently updated first.
func (s *ConversationStore) List() ([]Conversation, error) {
	rows, err := s.db.sql.Query(
		`SELECT c.id, c.title, c.provider, c.model, c.created_at, c.updated_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		 FROM conversations c ORDER BY c.updated_at DESC, c.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Title, &c.Provider, &c.Model, &createdAt, &updatedAt, &c.Messages); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		c.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a conversation and its messages.
func (s *ConversationStore) Delete(id string) error {
	res, err := s.db.sql.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	return nil
}

// View returns a read-only llm.MessageStore over one conversation.
func (s *ConversationStore) View(id string) *ConversationView {
	return &ConversationView{store: s, id: id}
}

// ConversationView adapts one stored conversation to llm.MessageStore.
type ConversationView struct {
	store *ConversationStore
	id    string
}

// AllMessages loads the conversation. Load errors are logged and yield an
// empty history.
func (v *ConversationView) AllMessages() []llm.Message {
	msgs, err := v.store.History(v.id)
	if err != nil {
		v.store.db.log.Error().Err(err).Str("conversation", v.id).Msg("failed to load history")
		return nil
	}
	return msgs
}

func nullJSON(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
