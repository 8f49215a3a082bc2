package routing

import (
	"testing"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loc(x, y int64) models.Location {
	return models.NewLocation(x, y)
}

func TestNewEdgeRejectsUnorderedLocations(t *testing.T) {
	region := NewRegion()

	_, err := NewEdge(region, "backwards", loc(1, 0), loc(0, 5), 3)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewEdge(region, "negative", loc(0, 0), loc(1, 0), -1)
	assert.ErrorIs(t, err, ErrConfiguration)

	edge, err := NewEdge(region, "ok", loc(0, 0), loc(0, 1), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), edge.Duration())
}

func TestRegionEdgeLookupIsSymmetric(t *testing.T) {
	region, err := NewRegionBuilder().
		AddRestaurant("R", loc(0, 0), []string{"pizza"}).
		AddNeighborhood("N", loc(2, 1)).
		AddEdge("R-N", loc(2, 1), loc(0, 0), 4).
		Build()
	require.NoError(t, err)

	forward := region.Edge(loc(0, 0), loc(2, 1))
	backward := region.Edge(loc(2, 1), loc(0, 0))
	require.NotNil(t, forward)
	assert.Same(t, forward, backward)
	assert.Equal(t, loc(0, 0), forward.LocationA())
	assert.Equal(t, loc(2, 1), forward.LocationB())
	assert.Same(t, region.Node(loc(2, 1)), forward.FarEnd(loc(0, 0)))
	assert.Same(t, region.Node(loc(0, 0)), forward.FarEnd(loc(2, 1)))
	assert.Nil(t, region.Edge(loc(0, 0), loc(9, 9)))
}

func TestRegionPutNodeAndEdgeErrors(t *testing.T) {
	region := NewRegion()
	other := NewRegion()

	assert.ErrorIs(t, region.PutNode(NewNode(other, "foreign", loc(0, 0), nil)), ErrConfiguration)

	a := NewNode(region, "a", loc(0, 0), []models.Location{loc(1, 0)})
	require.NoError(t, region.PutNode(a))
	assert.ErrorIs(t, region.PutNode(NewNode(region, "dup", loc(0, 0), nil)), ErrConfiguration)

	edge, err := NewEdge(region, "a-b", loc(0, 0), loc(1, 0), 1)
	require.NoError(t, err)
	err = region.PutEdge(edge)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "nodeB")

	require.NoError(t, region.PutNode(NewNode(region, "b", loc(1, 0), []models.Location{loc(0, 0)})))
	require.NoError(t, region.PutEdge(edge))

	again, err := NewEdge(region, "a-b again", loc(0, 0), loc(1, 0), 2)
	require.NoError(t, err)
	assert.ErrorIs(t, region.PutEdge(again), ErrConfiguration)

	foreign, err := NewEdge(other, "foreign", loc(0, 0), loc(1, 0), 1)
	require.NoError(t, err)
	assert.ErrorIs(t, region.PutEdge(foreign), ErrConfiguration)

	assert.Len(t, region.Nodes(), 2)
	assert.Len(t, region.Edges(), 1)
}

func TestRegionBuilderJoinsErrors(t *testing.T) {
	_, err := NewRegionBuilder().
		AddNode("a", loc(0, 0)).
		AddNode("a again", loc(0, 0)).
		AddEdge("dangling", loc(0, 0), loc(5, 5), 1).
		AddEdge("negative", loc(0, 0), loc(0, 0), -2).
		Build()
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "already taken")
	assert.Contains(t, err.Error(), "dangling")
	assert.Contains(t, err.Error(), "negative")
}

func TestRegionBuilderDerivesConnections(t *testing.T) {
	region, err := NewRegionBuilder(WithDistanceCalculator(ManhattanDistanceCalculator{})).
		AddNode("center", loc(1, 1)).
		AddNode("west", loc(0, 1)).
		AddNode("east", loc(3, 1)).
		AddEdgeByDistance("c-w", loc(1, 1), loc(0, 1)).
		AddEdgeByDistance("c-e", loc(3, 1), loc(1, 1)).
		Build()
	require.NoError(t, err)

	center := region.Node(loc(1, 1))
	assert.Equal(t, []models.Location{loc(0, 1), loc(3, 1)}, center.Connections())
	assert.Len(t, center.AdjacentEdges(), 2)
	assert.Len(t, center.AdjacentNodes(), 2)
	assert.Equal(t, int64(2), region.Edge(loc(1, 1), loc(3, 1)).Duration())
	assert.Equal(t, KindNode, center.Kind())
}

func TestNodeEquality(t *testing.T) {
	region := NewRegion()
	a := NewNode(region, "a", loc(0, 0), []models.Location{loc(1, 0), loc(1, 0)})
	b := NewNode(region, "a", loc(0, 0), []models.Location{loc(1, 0)})
	c := NewNode(region, "c", loc(0, 0), []models.Location{loc(1, 0)})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, 0, a.Compare(c))
	assert.Empty(t, a.AvailableFood())
}
