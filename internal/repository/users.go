package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/mi4u/lembrete-api/internal/common"
)

// UserRepository resolves uploader identities. The orchestrator looks a name
// up once per ingestion batch and stamps it on every record.
type UserRepository interface {
	FullName(ctx context.Context, userID int) (string, error)
}

type userRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewUserRepository(db *sql.DB, logger *slog.Logger) UserRepository {
	return &userRepository{db: db, logger: logger}
}

func (r *userRepository) FullName(ctx context.Context, userID int) (string, error) {
	var name sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT nomecompleto FROM usuarios WHERE id = $1`, userID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.WrapError(common.ErrNotFound, "user")
	}
	if err != nil {
		r.logger.Error("failed to look up user", "user_id", userID, "error", err)
		return "", err
	}
	return name.String, nil
}
