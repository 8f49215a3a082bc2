package routing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomRegion(t *testing.T, rng *rand.Rand, size int) *Region {
	t.Helper()
	b := NewRegionBuilder()
	for i := 0; i < size; i++ {
		b.AddNode(fmt.Sprintf("n%d", i), loc(int64(i), 0))
	}
	for i := 0; i < size; i++ {
		for j := i + 1; j < size; j++ {
			if rng.Intn(3) == 0 {
				b.AddEdge(fmt.Sprintf("e%d-%d", i, j), loc(int64(i), 0), loc(int64(j), 0), int64(rng.Intn(6)))
			}
		}
	}
	region, err := b.Build()
	require.NoError(t, err)
	return region
}

// bruteForceCost explores every simple path and returns the cheapest, or -1.
func bruteForceCost(start, end *Node) int64 {
	best := int64(-1)
	visited := map[models.Location]bool{start.Location(): true}
	var walk func(current *Node, cost int64)
	walk = func(current *Node, cost int64) {
		if current == end {
			if best < 0 || cost < best {
				best = cost
			}
			return
		}
		for _, edge := range current.AdjacentEdges() {
			next := edge.FarEnd(current.Location())
			if visited[next.Location()] {
				continue
			}
			visited[next.Location()] = true
			walk(next, cost+edge.Duration())
			visited[next.Location()] = false
		}
	}
	walk(start, 0)
	return best
}

func TestDijkstraMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	calculator := NewDijkstraPathCalculator()

	for round := 0; round < 40; round++ {
		region := randomRegion(t, rng, 2+rng.Intn(7))
		nodes := region.Nodes()
		for _, start := range nodes {
			for _, end := range nodes {
				expected := bruteForceCost(start, end)
				path, err := calculator.Path(start, end)
				if expected < 0 {
					assert.ErrorIs(t, err, ErrNoPath, "round %d %s->%s", round, start.Location(), end.Location())
					continue
				}
				require.NoError(t, err)
				if start == end {
					assert.Empty(t, path)
					continue
				}
				require.NotEmpty(t, path)
				assert.Same(t, end, path[len(path)-1])
				assert.NotContains(t, path, start)
				cost, err := PathDuration(start, path)
				require.NoError(t, err)
				assert.Equal(t, expected, cost, "round %d %s->%s", round, start.Location(), end.Location())
			}
		}
	}
}

func TestDijkstraPrefersSmallerLocationOnTies(t *testing.T) {
	region, err := NewRegionBuilder().
		AddNode("start", loc(0, 0)).
		AddNode("high", loc(1, 5)).
		AddNode("low", loc(1, -5)).
		AddNode("end", loc(2, 0)).
		AddEdge("s-high", loc(0, 0), loc(1, 5), 2).
		AddEdge("s-low", loc(0, 0), loc(1, -5), 2).
		AddEdge("high-e", loc(1, 5), loc(2, 0), 2).
		AddEdge("low-e", loc(1, -5), loc(2, 0), 2).
		Build()
	require.NoError(t, err)

	path, err := NewDijkstraPathCalculator().Path(region.Node(loc(0, 0)), region.Node(loc(2, 0)))
	require.NoError(t, err)
	require.Len(t, path, 2)
	assert.Equal(t, loc(1, -5), path[0].Location())
}

func TestDijkstraErrors(t *testing.T) {
	region, err := NewRegionBuilder().
		AddNode("a", loc(0, 0)).
		AddNode("b", loc(1, 0)).
		AddNode("island", loc(5, 5)).
		AddEdge("a-b", loc(0, 0), loc(1, 0), 1).
		Build()
	require.NoError(t, err)
	other, err := NewRegionBuilder().AddNode("x", loc(0, 0)).Build()
	require.NoError(t, err)

	calculator := NewDijkstraPathCalculator()
	_, err = calculator.Path(region.Node(loc(0, 0)), region.Node(loc(5, 5)))
	assert.ErrorIs(t, err, ErrNoPath)

	_, err = calculator.Path(region.Node(loc(0, 0)), other.Node(loc(0, 0)))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = calculator.Path(nil, region.Node(loc(0, 0)))
	assert.ErrorIs(t, err, ErrUsage)
}

func TestCachedPathCalculatorIsTransparent(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	region := randomRegion(t, rng, 8)
	plain := NewDijkstraPathCalculator()
	cached := NewCachedPathCalculator(plain)

	for pass := 0; pass < 2; pass++ {
		for _, start := range region.Nodes() {
			for _, end := range region.Nodes() {
				want, wantErr := plain.Path(start, end)
				got, err := cached.Path(start, end)
				if wantErr != nil {
					assert.ErrorIs(t, err, ErrNoPath)
					continue
				}
				require.NoError(t, err)
				assert.Equal(t, want, got)
			}
		}
	}
	hits, misses := cached.Stats()
	assert.Positive(t, hits)
	assert.Positive(t, misses)
}

func TestCachedPathCalculatorReturnsCopies(t *testing.T) {
	region, err := NewRegionBuilder().
		AddNode("a", loc(0, 0)).
		AddNode("b", loc(1, 0)).
		AddNode("c", loc(2, 0)).
		AddEdge("a-b", loc(0, 0), loc(1, 0), 1).
		AddEdge("b-c", loc(1, 0), loc(2, 0), 1).
		Build()
	require.NoError(t, err)
	cached := NewCachedPathCalculator(NewDijkstraPathCalculator())
	a, c := region.Node(loc(0, 0)), region.Node(loc(2, 0))

	first, err := cached.Path(a, c)
	require.NoError(t, err)
	first[0] = nil

	second, err := cached.Path(a, c)
	require.NoError(t, err)
	assert.NotNil(t, second[0])

	back, err := cached.Path(c, a)
	require.NoError(t, err)
	assert.Equal(t, []*Node{region.Node(loc(1, 0)), a}, back)
	assert.Equal(t, 1, cached.Len())

	cached.Clear()
	assert.Equal(t, 0, cached.Len())
	hits, misses := cached.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestCachedPathCalculatorRebindsOnNewRegion(t *testing.T) {
	build := func(duration int64) *Region {
		region, err := NewRegionBuilder().
			AddNode("a", loc(0, 0)).
			AddNode("b", loc(1, 0)).
			AddEdge("a-b", loc(0, 0), loc(1, 0), duration).
			Build()
		require.NoError(t, err)
		return region
	}
	cached := NewCachedPathCalculator(NewDijkstraPathCalculator())

	first := build(1)
	path, err := cached.Path(first.Node(loc(0, 0)), first.Node(loc(1, 0)))
	require.NoError(t, err)
	assert.Same(t, first.Node(loc(1, 0)), path[0])

	second := build(2)
	path, err = cached.Path(second.Node(loc(0, 0)), second.Node(loc(1, 0)))
	require.NoError(t, err)
	assert.Same(t, second.Node(loc(1, 0)), path[0])
	assert.Equal(t, 1, cached.Len())
}
