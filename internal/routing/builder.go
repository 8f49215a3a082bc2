package routing

import (
	"errors"
	"fmt"
	"math"

	"github.com/chrisdamba/foodroutesim/internal/models"
)

type nodeSpec struct {
	name     string
	location models.Location
	kind     NodeKind
	food     []string
}

type edgeSpec struct {
	name     string
	a, b     models.Location
	duration int64
}

// RegionBuilder collects nodes and edges and derives node connections from the edges.
type RegionBuilder struct {
	opts  []RegionOption
	nodes []nodeSpec
	edges []edgeSpec
}

func NewRegionBuilder(opts ...RegionOption) *RegionBuilder {
	return &RegionBuilder{opts: opts}
}

func (b *RegionBuilder) AddNode(name string, location models.Location) *RegionBuilder {
	b.nodes = append(b.nodes, nodeSpec{name: name, location: location, kind: KindNode})
	return b
}

func (b *RegionBuilder) AddRestaurant(name string, location models.Location, food []string) *RegionBuilder {
	b.nodes = append(b.nodes, nodeSpec{name: name, location: location, kind: KindRestaurant, food: food})
	return b
}

func (b *RegionBuilder) AddNeighborhood(name string, location models.Location) *RegionBuilder {
	b.nodes = append(b.nodes, nodeSpec{name: name, location: location, kind: KindNeighborhood})
	return b
}

// AddEdge accepts the endpoints in any order.
func (b *RegionBuilder) AddEdge(name string, a, c models.Location, duration int64) *RegionBuilder {
	if a.Compare(c) > 0 {
		a, c = c, a
	}
	b.edges = append(b.edges, edgeSpec{name: name, a: a, b: c, duration: duration})
	return b
}

// AddEdgeByDistance uses the rounded-up straight distance as the duration.
func (b *RegionBuilder) AddEdgeByDistance(name string, a, c models.Location) *RegionBuilder {
	region := NewRegion(b.opts...)
	duration := int64(math.Ceil(region.DistanceCalculator().Distance(a, c)))
	return b.AddEdge(name, a, c, duration)
}

// Build creates a fresh region from everything added so far.
func (b *RegionBuilder) Build() (*Region, error) {
	region := NewRegion(b.opts...)

	connections := make(map[models.Location][]models.Location, len(b.nodes))
	for _, e := range b.edges {
		connections[e.a] = append(connections[e.a], e.b)
		connections[e.b] = append(connections[e.b], e.a)
	}

	var errs []error
	for _, spec := range b.nodes {
		node := newNode(region, spec.name, spec.location, connections[spec.location], spec.kind, spec.food)
		if err := region.PutNode(node); err != nil {
			errs = append(errs, err)
		}
	}
	for _, spec := range b.edges {
		edge, err := NewEdge(region, spec.name, spec.a, spec.b, spec.duration)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := region.PutEdge(edge); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("build region: %w", errors.Join(errs...))
	}
	return region, nil
}
