package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pigletlabs/peppavoice/internal/repository"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindRoom(ctx context.Context, name string) (*repository.RoomSession, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT room_name, user_joined_at, user_left_at, chat_duration_seconds, created_at, updated_at
		 FROM rooms WHERE room_name = $1`,
		name)
	var s repository.RoomSession
	var joinedAt, leftAt *time.Time
	err := row.Scan(&s.RoomName, &joinedAt, &leftAt, &s.ChatDurationSeconds, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	s.UserJoinedAt = joinedAt
	s.UserLeftAt = leftAt
	return &s, nil
}

func (r *PostgresRepository) MarkJoined(ctx context.Context, name string, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO rooms (room_name, user_joined_at)
		 VALUES ($1, $2)
		 ON CONFLICT (room_name)
		 DO UPDATE SET user_joined_at = EXCLUDED.user_joined_at, updated_at = NOW()
		 WHERE rooms.user_joined_at IS NULL`,
		name, at)
	return err
}

func (r *PostgresRepository) MarkLeft(ctx context.Context, name string, at time.Time, durationSeconds int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE rooms
		 SET user_left_at = $2, chat_duration_seconds = $3, updated_at = NOW()
		 WHERE room_name = $1 AND user_left_at IS NULL`,
		name, at, durationSeconds)
	return err
}

func (r *PostgresRepository) AppendConversation(ctx context.Context, input repository.AppendConversationInput) (*repository.ConversationRecord, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO conversations (room_name, user_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, room_name, user_id, role, content, created_at`,
		input.RoomName, input.UserID, string(input.Role), input.Content, input.CreatedAt)
	var rec repository.ConversationRecord
	var role string
	if err := row.Scan(&rec.ID, &rec.RoomName, &rec.UserID, &role, &rec.Content, &rec.CreatedAt); err != nil {
		return nil, err
	}
	rec.Role = repository.Role(role)
	return &rec, nil
}

func (r *PostgresRepository) ListConversation(ctx context.Context, room string, limit int) ([]repository.ConversationRecord, error) {
	query := `SELECT id, room_name, user_id, role, content, created_at
		 FROM conversations WHERE room_name = $1 ORDER BY created_at ASC`
	args := []any{room}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.ConversationRecord
	for rows.Next() {
		var rec repository.ConversationRecord
		var role string
		if err := rows.Scan(&rec.ID, &rec.RoomName, &rec.UserID, &role, &rec.Content, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Role = repository.Role(role)
		list = append(list, rec)
	}
	return list, rows.Err()
}
