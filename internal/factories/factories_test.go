package factories

import (
	"strings"
	"testing"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegion = `
name: corner-shop
distance: manhattan
nodes:
  - name: Diner
    location: "0,0"
    kind: restaurant
    food: [pancakes, coffee]
  - name: Crossing
    location: {x: 2, y: 0}
  - name: Uptown
    location: "2,3"
    kind: neighborhood
edges:
  - name: Main Street
    a: "2,0"
    b: "0,0"
    duration: 4
  - name: Hill Road
    a: "2,0"
    b: "2,3"
vehicles:
  - location: "0,0"
    capacity: 1.5
orders:
  - tick: 2
    restaurant: "0,0"
    destination: "2,3"
    window: {start: 2, end: 20}
    foods: [coffee]
    weight: 0.3
`

func TestDecodeRegionFile(t *testing.T) {
	file, err := DecodeRegionFile(strings.NewReader(sampleRegion))
	require.NoError(t, err)
	assert.Equal(t, "corner-shop", file.Name)
	require.Len(t, file.Vehicles, 1)
	assert.Equal(t, models.NewLocation(0, 0), file.Vehicles[0].Location)
	require.Len(t, file.Orders, 1)
	assert.Equal(t, models.TickInterval{Start: 2, End: 20}, file.Orders[0].Window)

	region, err := file.Build()
	require.NoError(t, err)
	assert.Len(t, region.Nodes(), 3)
	assert.True(t, region.Node(models.NewLocation(0, 0)).IsRestaurant())
	assert.Equal(t, []string{"pancakes", "coffee"}, region.Node(models.NewLocation(0, 0)).AvailableFood())
	assert.Equal(t, int64(4), region.Edge(models.NewLocation(0, 0), models.NewLocation(2, 0)).Duration())
	assert.Equal(t, int64(3), region.Edge(models.NewLocation(2, 0), models.NewLocation(2, 3)).Duration())
}

func TestRegionFileErrors(t *testing.T) {
	_, err := DecodeRegionFile(strings.NewReader("nodes:\n  - name: x\n    colour: red\n"))
	assert.Error(t, err)

	_, err = DecodeRegionFile(strings.NewReader("nodes:\n  - name: x\n    location: \"nope\"\n"))
	assert.Error(t, err)

	file := &RegionFile{Nodes: []NodeSpec{{Name: "x", Kind: "castle"}}}
	_, err = file.Build()
	assert.ErrorIs(t, err, routing.ErrConfiguration)

	duration := int64(1)
	file = &RegionFile{Edges: []EdgeSpec{{Name: "nowhere", A: models.NewLocation(0, 0), B: models.NewLocation(1, 0), Duration: &duration}}}
	_, err = file.Build()
	assert.ErrorIs(t, err, routing.ErrConfiguration)
}

func gridConfig() models.GridConfig {
	return models.GridConfig{Width: 4, Height: 3, Restaurants: 2, Neighborhoods: 5, MinDuration: 1, MaxDuration: 4}
}

func TestGridFactoryCreatesConnectedGrid(t *testing.T) {
	region, err := NewGridFactory(42, nil).CreateRegion(gridConfig())
	require.NoError(t, err)

	nodes := region.Nodes()
	require.Len(t, nodes, 12)
	// 3 rows of 3 horizontal streets, 4 columns of 2 vertical streets
	assert.Len(t, region.Edges(), 17)

	var restaurants, neighborhoods int
	names := map[string]bool{}
	for _, n := range nodes {
		assert.False(t, names[n.Name()], "duplicate name %q", n.Name())
		names[n.Name()] = true
		switch n.Kind() {
		case routing.KindRestaurant:
			restaurants++
			assert.NotEmpty(t, n.AvailableFood())
		case routing.KindNeighborhood:
			neighborhoods++
		}
	}
	assert.Equal(t, 2, restaurants)
	assert.Equal(t, 5, neighborhoods)
	for _, e := range region.Edges() {
		assert.GreaterOrEqual(t, e.Duration(), int64(1))
		assert.LessOrEqual(t, e.Duration(), int64(4))
	}

	calculator := routing.NewDijkstraPathCalculator()
	for _, n := range nodes[1:] {
		_, err := calculator.Path(nodes[0], n)
		assert.NoError(t, err)
	}
}

func TestGridFactoryIsSeeded(t *testing.T) {
	a, err := NewGridFactory(7, []models.MenuDish{{Name: "soup"}, {Name: "bread"}}).CreateRegion(gridConfig())
	require.NoError(t, err)
	b, err := NewGridFactory(7, []models.MenuDish{{Name: "soup"}, {Name: "bread"}}).CreateRegion(gridConfig())
	require.NoError(t, err)

	for i, n := range a.Nodes() {
		other := b.Nodes()[i]
		assert.True(t, n.Equal(other))
		assert.Equal(t, n.Kind(), other.Kind())
		if n.IsRestaurant() {
			assert.Subset(t, []string{"soup", "bread"}, n.AvailableFood())
		}
	}
	for i, e := range a.Edges() {
		assert.True(t, e.Equal(b.Edges()[i]))
	}
}

func TestGridFactoryRejectsBadConfig(t *testing.T) {
	cfg := gridConfig()
	cfg.Neighborhoods = 11
	_, err := NewGridFactory(1, nil).CreateRegion(cfg)
	assert.ErrorIs(t, err, routing.ErrConfiguration)

	cfg = gridConfig()
	cfg.MaxDuration = 0
	_, err = NewGridFactory(1, nil).CreateRegion(cfg)
	assert.ErrorIs(t, err, routing.ErrConfiguration)
}
