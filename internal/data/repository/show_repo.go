package repository

import (
	"context"
	"errors"
	"fmt"

	"showtime-reservation/internal/data/entity"
	"showtime-reservation/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ShowRepository interface {
	Create(ctx context.Context, show *entity.Show) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error)
}

type showRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowRepository(db database.PgxIface, log *zap.Logger) ShowRepository {
	return &showRepository{
		db:  db,
		log: log.With(zap.String("repository", "show")),
	}
}

func (r *showRepository) Create(ctx context.Context, show *entity.Show) error {
	query := `
		INSERT INTO shows (id, name, description, language, genre, duration, rating, poster_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		show.ID,
		show.Name,
		show.Description,
		show.Language,
		show.Genre,
		show.DurationMinutes,
		show.Rating,
		show.PosterURL,
		show.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create show",
			zap.Error(err),
			zap.String("name", show.Name),
		)
		return fmt.Errorf("create show %s: %w", show.Name, err)
	}

	return nil
}

func (r *showRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Show, error) {
	query := `
		SELECT id, name, description, language, genre, duration, rating::float8, poster_url, created_at
		FROM shows
		WHERE id = $1
	`

	var show entity.Show
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&show.ID,
		&show.Name,
		&show.Description,
		&show.Language,
		&show.Genre,
		&show.DurationMinutes,
		&show.Rating,
		&show.PosterURL,
		&show.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find show by ID",
			zap.Error(err),
			zap.String("show_id", id.String()),
		)
		return nil, fmt.Errorf("find show by ID %s: %w", id, err)
	}

	return &show, nil
}
