package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var eventColumns = []string{
	"timestamp", "run_id", "run", "problem", "tick", "event_type", "vehicle_id",
	"node_name", "node_x", "node_y", "edge_name", "edge_duration",
	"order_id", "order_weight", "window_start", "window_end",
}

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// BulkCreate streams the records with COPY.
func (r *EventRepository) BulkCreate(ctx context.Context, events []*models.EventRecord) error {
	if len(events) == 0 {
		return nil
	}
	rows := pgx.CopyFromSlice(len(events), func(i int) ([]any, error) {
		e := events[i]
		return []any{
			e.Timestamp, e.RunID, e.Run, e.Problem, e.Tick, e.EventType, e.VehicleID,
			e.NodeName, e.NodeX, e.NodeY, e.EdgeName, e.EdgeDuration,
			e.OrderID, e.OrderWeight, e.WindowStart, e.WindowEnd,
		}, nil
	})
	copied, err := r.pool.CopyFrom(ctx, pgx.Identifier{"simulation_events"}, eventColumns, rows)
	if err != nil {
		return fmt.Errorf("copy simulation events: %w", err)
	}
	if copied != int64(len(events)) {
		return fmt.Errorf("copied %d of %d simulation events", copied, len(events))
	}
	return nil
}

func (r *EventRepository) CountByRun(ctx context.Context, runID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM simulation_events WHERE run_id = $1", runID).Scan(&count)
	return count, err
}

func (r *EventRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE simulation_events")
	return err
}
