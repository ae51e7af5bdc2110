package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"lingochat/internal/chat"
)

// MessageRepository persists chat messages in PostgreSQL.
type MessageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

const messageColumns = `id, sender_id, receiver_id, original_text, translated_text, original_audio, translated_audio, image, seen, created_at`

// Create inserts one message. Messages are immutable after insert except for
// the seen flag.
func (r *MessageRepository) Create(ctx context.Context, msg chat.Message) error {
	const insertMessage = `
		INSERT INTO messages (
			id, sender_id, receiver_id, original_text, translated_text, original_audio, translated_audio, image, seen, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`
	if _, err := r.db.ExecContext(ctx, insertMessage,
		msg.ID,
		msg.SenderID,
		msg.ReceiverID,
		msg.OriginalText,
		msg.TranslatedText,
		msg.OriginalAudio,
		msg.TranslatedAudio,
		msg.Image,
		msg.Seen,
		msg.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetByID fetches a single message.
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Message, error) {
	const query = `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	var msg chat.Message
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.OriginalText,
		&msg.TranslatedText,
		&msg.OriginalAudio,
		&msg.TranslatedAudio,
		&msg.Image,
		&msg.Seen,
		&msg.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Message{}, chat.ErrNotFound
		}
		return chat.Message{}, fmt.Errorf("select message: %w", err)
	}
	return msg, nil
}

// Conversation returns all messages exchanged between a and b in creation
// order.
func (r *MessageRepository) Conversation(ctx context.Context, a, b uuid.UUID) ([]chat.Message, error) {
	const query = `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, a, b)
	if err != nil {
		return nil, fmt.Errorf("select conversation: %w", err)
	}
	defer rows.Close()

	var result []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.OriginalText,
			&msg.TranslatedText,
			&msg.OriginalAudio,
			&msg.TranslatedAudio,
			&msg.Image,
			&msg.Seen,
			&msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// MarkSeen flags one message as seen. Already-seen messages are left as-is,
// so repeat calls are harmless.
func (r *MessageRepository) MarkSeen(ctx context.Context, id uuid.UUID) error {
	const update = `UPDATE messages SET seen = TRUE WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, update, id); err != nil {
		return fmt.Errorf("mark seen: %w", err)
	}
	return nil
}

// MarkConversationSeen flags every message from one user to another as seen.
func (r *MessageRepository) MarkConversationSeen(ctx context.Context, from, to uuid.UUID) error {
	const update = `UPDATE messages SET seen = TRUE WHERE sender_id = $1 AND receiver_id = $2`
	if _, err := r.db.ExecContext(ctx, update, from, to); err != nil {
		return fmt.Errorf("mark conversation seen: %w", err)
	}
	return nil
}

// CountUnseen returns the number of unseen messages from one user to another.
func (r *MessageRepository) CountUnseen(ctx context.Context, from, to uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*) FROM messages WHERE sender_id = $1 AND receiver_id = $2 AND seen = FALSE`

	var count int
	if err := r.db.QueryRowContext(ctx, query, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unseen: %w", err)
	}
	return count, nil
}

// UserRepository persists chat participants in PostgreSQL and serves as the
// pipeline's user directory.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, full_name, email, language, profile_pic, bio, created_at`

// GetByID fetches one user.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u chat.User
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.Language,
		&u.ProfilePic,
		&u.Bio,
		&u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.User{}, chat.ErrUserNotFound
		}
		return chat.User{}, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

// ListOthers returns every user except the given one, newest first.
func (r *UserRepository) ListOthers(ctx context.Context, id uuid.UUID) ([]chat.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id <> $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var result []chat.User
	for rows.Next() {
		var u chat.User
		if err := rows.Scan(&u.ID, &u.FullName, &u.Email, &u.Language, &u.ProfilePic, &u.Bio, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

// Upsert creates a user or updates the mutable profile fields of an existing
// one.
func (r *UserRepository) Upsert(ctx context.Context, u chat.User) error {
	const upsert = `
		INSERT INTO users (id, full_name, email, language, profile_pic, bio, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			language = EXCLUDED.language,
			profile_pic = EXCLUDED.profile_pic,
			bio = EXCLUDED.bio
	`
	if _, err := r.db.ExecContext(ctx, upsert,
		u.ID,
		u.FullName,
		u.Email,
		u.Language,
		u.ProfilePic,
		u.Bio,
		u.CreatedAt,
	); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
