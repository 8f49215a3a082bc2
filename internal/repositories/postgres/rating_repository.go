package postgres

import (
	"context"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RatingRepository struct {
	pool *pgxpool.Pool
}

func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

func (r *RatingRepository) BulkCreate(ctx context.Context, ratings []*models.RatingRecord) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO run_ratings (timestamp, run_id, run, problem, criteria, score)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	for _, rating := range ratings {
		_, err = tx.Exec(ctx, query,
			rating.Timestamp,
			rating.RunID,
			rating.Run,
			rating.Problem,
			rating.Criteria,
			rating.Score,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *RatingRepository) GetByProblem(ctx context.Context, problem string) ([]*models.RatingRecord, error) {
	query := `
        SELECT timestamp, run_id, run, problem, criteria, score
        FROM run_ratings
        WHERE problem = $1
        ORDER BY run, criteria
    `
	rows, err := r.pool.Query(ctx, query, problem)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*models.RatingRecord
	for rows.Next() {
		rating := &models.RatingRecord{}
		err := rows.Scan(
			&rating.Timestamp,
			&rating.RunID,
			&rating.Run,
			&rating.Problem,
			&rating.Criteria,
			&rating.Score,
		)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, rating)
	}
	return ratings, rows.Err()
}

func (r *RatingRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE run_ratings")
	return err
}
