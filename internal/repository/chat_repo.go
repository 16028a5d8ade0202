package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"chatproxy-backend/internal/models"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrVersionConflict = errors.New("chat was modified concurrently")
)

type ChatRepo struct {
	pool *pgxpool.Pool
}

func NewChatRepo(pool *pgxpool.Pool) *ChatRepo {
	return &ChatRepo{pool: pool}
}

const chatColumns = `id, user_id, name, messages, version, created_at, updated_at`

func (r *ChatRepo) Create(ctx context.Context, c *models.Chat) error {
	c.ID = uuid.New()
	if c.Name == "" {
		c.Name = models.DefaultChatName
	}
	if c.Messages == nil {
		c.Messages = []models.Message{}
	}
	messages, err := encodeMessages(c.Messages)
	if err != nil {
		return err
	}

	query := `INSERT INTO chats (id, user_id, name, messages)
		VALUES ($1, $2, $3, $4) RETURNING version, created_at, updated_at`

	return r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Name, messages).
		Scan(&c.Version, &c.CreatedAt, &c.UpdatedAt)
}

// FindByUserAndID loads a chat only if it belongs to userID. A missing row is ErrChatNotFound.
func (r *ChatRepo) FindByUserAndID(ctx context.Context, userID string, id uuid.UUID) (*models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 AND user_id = $2`

	c, err := scanChat(r.pool.QueryRow(ctx, query, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ChatRepo) ListByUser(ctx context.Context, userID string) ([]models.Chat, error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE user_id = $1 ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	chats := []models.Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

// Save writes the whole record in one statement. The write only applies when the stored
// version still equals c.Version; on success c.Version is advanced.
func (r *ChatRepo) Save(ctx context.Context, c *models.Chat) error {
	messages, err := encodeMessages(c.Messages)
	if err != nil {
		return err
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE chats SET name = $1, messages = $2, updated_at = $3, version = version + 1
		 WHERE id = $4 AND user_id = $5 AND version = $6`,
		c.Name, messages, c.UpdatedAt, c.ID, c.UserID, c.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, c.UserID, c.ID)
	}

	c.Version++
	return nil
}

func (r *ChatRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM chats WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrChatNotFound
	}
	return nil
}

func (r *ChatRepo) missOrConflict(ctx context.Context, userID string, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM chats WHERE id = $1 AND user_id = $2)", id, userID,
	).Scan(&exists)
	if err != nil {
		return err
	}
	return zeroRowsError(exists)
}

// zeroRowsError classifies a guarded update that touched nothing: the row is still there
// (its version moved on) or it is gone for this user.
func zeroRowsError(exists bool) error {
	if exists {
		return ErrVersionConflict
	}
	return ErrChatNotFound
}

func scanChat(row pgx.Row) (*models.Chat, error) {
	c := &models.Chat{}
	var raw []byte
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &raw, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	messages, err := decodeMessages(raw)
	if err != nil {
		return nil, fmt.Errorf("chat %s: %w", c.ID, err)
	}
	c.Messages = messages
	return c, nil
}

func encodeMessages(messages []models.Message) ([]byte, error) {
	if messages == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode messages: %w", err)
	}
	return b, nil
}

func decodeMessages(raw []byte) ([]models.Message, error) {
	messages := []models.Message{}
	if len(raw) == 0 {
		return messages, nil
	}
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
