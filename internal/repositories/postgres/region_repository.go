package postgres

import (
	"context"
	"fmt"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegionRepository keeps regions in the region_nodes and region_edges
// tables. Locations are stored as POINT(x y) geometries.
type RegionRepository struct {
	pool *pgxpool.Pool
}

func NewRegionRepository(pool *pgxpool.Pool) *RegionRepository {
	return &RegionRepository{pool: pool}
}

// Save replaces the stored region with the given name.
func (r *RegionRepository) Save(ctx context.Context, name string, region *routing.Region) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM region_edges WHERE region = $1", name); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "DELETE FROM region_nodes WHERE region = $1", name); err != nil {
		return err
	}

	for _, node := range region.Nodes() {
		query := `
            INSERT INTO region_nodes (region, name, kind, location, food)
            VALUES ($1, $2, $3, ST_GeomFromText($4), $5)
        `
		_, err = tx.Exec(ctx, query,
			name,
			node.Name(),
			node.Kind().String(),
			node.Location().Point(),
			node.AvailableFood(),
		)
		if err != nil {
			return fmt.Errorf("insert node %s: %w", node.Location(), err)
		}
	}

	for _, edge := range region.Edges() {
		query := `
            INSERT INTO region_edges (region, name, location_a, location_b, duration)
            VALUES ($1, $2, ST_GeomFromText($3), ST_GeomFromText($4), $5)
        `
		_, err = tx.Exec(ctx, query,
			name,
			edge.Name(),
			edge.LocationA().Point(),
			edge.LocationB().Point(),
			edge.Duration(),
		)
		if err != nil {
			return fmt.Errorf("insert edge %s: %w", edge.Name(), err)
		}
	}
	return tx.Commit(ctx)
}

// Load rebuilds a stored region. Structural problems surface as
// routing.ErrConfiguration from the builder.
func (r *RegionRepository) Load(ctx context.Context, name string) (*routing.Region, error) {
	b := routing.NewRegionBuilder()

	nodeQuery := `
        SELECT name, kind, ST_AsText(location), food
        FROM region_nodes
        WHERE region = $1
    `
	rows, err := r.pool.Query(ctx, nodeQuery, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nodes := 0
	for rows.Next() {
		var (
			nodeName, kind string
			location       models.Location
			food           []string
		)
		if err := rows.Scan(&nodeName, &kind, &location, &food); err != nil {
			return nil, err
		}
		switch kind {
		case routing.KindRestaurant.String():
			b.AddRestaurant(nodeName, location, food)
		case routing.KindNeighborhood.String():
			b.AddNeighborhood(nodeName, location)
		default:
			b.AddNode(nodeName, location)
		}
		nodes++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if nodes == 0 {
		return nil, fmt.Errorf("%w: region %q not found", routing.ErrConfiguration, name)
	}

	edgeQuery := `
        SELECT name, ST_AsText(location_a), ST_AsText(location_b), duration
        FROM region_edges
        WHERE region = $1
    `
	edgeRows, err := r.pool.Query(ctx, edgeQuery, name)
	if err != nil {
		return nil, err
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var (
			edgeName string
			a, c     models.Location
			duration int64
		)
		if err := edgeRows.Scan(&edgeName, &a, &c, &duration); err != nil {
			return nil, err
		}
		b.AddEdge(edgeName, a, c, duration)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	return b.Build()
}

func (r *RegionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT region) FROM region_nodes").Scan(&count)
	return count, err
}
