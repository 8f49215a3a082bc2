package repositories

import (
	"context"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
)

type EventRepository interface {
	BulkCreate(ctx context.Context, events []*models.EventRecord) error
	CountByRun(ctx context.Context, runID string) (int, error)
	DeleteAll(ctx context.Context) error
}

type RatingRepository interface {
	BulkCreate(ctx context.Context, ratings []*models.RatingRecord) error
	GetByProblem(ctx context.Context, problem string) ([]*models.RatingRecord, error)
	DeleteAll(ctx context.Context) error
}

type RegionRepository interface {
	Save(ctx context.Context, name string, region *routing.Region) error
	Load(ctx context.Context, name string) (*routing.Region, error)
	Count(ctx context.Context) (int, error)
}
