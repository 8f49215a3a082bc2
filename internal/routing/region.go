package routing

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/samber/lo"
)

type NodeKind int

const (
	KindNode NodeKind = iota
	KindRestaurant
	KindNeighborhood
)

func (k NodeKind) String() string {
	switch k {
	case KindRestaurant:
		return "restaurant"
	case KindNeighborhood:
		return "neighborhood"
	default:
		return "node"
	}
}

// Component is a node or an edge of a Region.
type Component interface {
	Name() string
	Region() *Region
	String() string
	component()
}

// Node is a graph vertex. The kind decides whether it is a plain node,
// a restaurant with a menu, or a neighborhood orders are delivered to.
type Node struct {
	region      *Region
	name        string
	location    models.Location
	connections []models.Location
	kind        NodeKind
	food        []string
}

func NewNode(region *Region, name string, location models.Location, connections []models.Location) *Node {
	return newNode(region, name, location, connections, KindNode, nil)
}

func NewRestaurant(region *Region, name string, location models.Location, connections []models.Location, food []string) *Node {
	return newNode(region, name, location, connections, KindRestaurant, food)
}

func NewNeighborhood(region *Region, name string, location models.Location, connections []models.Location) *Node {
	return newNode(region, name, location, connections, KindNeighborhood, nil)
}

func newNode(region *Region, name string, location models.Location, connections []models.Location, kind NodeKind, food []string) *Node {
	conns := lo.Uniq(connections)
	slices.SortFunc(conns, models.Location.Compare)
	return &Node{
		region:      region,
		name:        name,
		location:    location,
		connections: conns,
		kind:        kind,
		food:        slices.Clone(food),
	}
}

func (n *Node) component() {}

func (n *Node) Name() string              { return n.name }
func (n *Node) Location() models.Location { return n.location }
func (n *Node) Region() *Region           { return n.region }
func (n *Node) Kind() NodeKind            { return n.kind }
func (n *Node) IsRestaurant() bool        { return n.kind == KindRestaurant }
func (n *Node) IsNeighborhood() bool      { return n.kind == KindNeighborhood }

func (n *Node) Connections() []models.Location {
	return slices.Clone(n.connections)
}

// AvailableFood is the menu of a restaurant; other kinds have none.
func (n *Node) AvailableFood() []string {
	return slices.Clone(n.food)
}

// AdjacentEdges resolves the connections through the region, skipping missing edges.
func (n *Node) AdjacentEdges() []*Edge {
	edges := make([]*Edge, 0, len(n.connections))
	for _, loc := range n.connections {
		if e := n.region.Edge(n.location, loc); e != nil {
			edges = append(edges, e)
		}
	}
	return edges
}

func (n *Node) AdjacentNodes() []*Node {
	nodes := make([]*Node, 0, len(n.connections))
	for _, loc := range n.connections {
		if other := n.region.Node(loc); other != nil {
			nodes = append(nodes, other)
		}
	}
	return nodes
}

// Compare orders nodes by location.
func (n *Node) Compare(o *Node) int {
	return n.location.Compare(o.location)
}

// Equal compares name, location and connections.
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	return n.name == o.name && n.location == o.location && slices.Equal(n.connections, o.connections)
}

func (n *Node) String() string {
	conns := lo.Map(n.connections, func(l models.Location, _ int) string { return l.String() })
	return fmt.Sprintf("%s(name=%q, location=%s, connections=[%s])", n.kind, n.name, n.location, strings.Join(conns, " "))
}

// Edge is an undirected connection stored with LocationA <= LocationB.
type Edge struct {
	region    *Region
	name      string
	locationA models.Location
	locationB models.Location
	duration  int64
}

func NewEdge(region *Region, name string, locationA, locationB models.Location, duration int64) (*Edge, error) {
	if locationA.Compare(locationB) > 0 {
		return nil, fmt.Errorf("%w: edge %q: locationA %s must be <= locationB %s", ErrConfiguration, name, locationA, locationB)
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: edge %q: negative duration %d", ErrConfiguration, name, duration)
	}
	return &Edge{
		region:    region,
		name:      name,
		locationA: locationA,
		locationB: locationB,
		duration:  duration,
	}, nil
}

func (e *Edge) component() {}

func (e *Edge) Name() string               { return e.name }
func (e *Edge) Region() *Region            { return e.region }
func (e *Edge) LocationA() models.Location { return e.locationA }
func (e *Edge) LocationB() models.Location { return e.locationB }
func (e *Edge) Duration() int64            { return e.duration }
func (e *Edge) NodeA() *Node               { return e.region.Node(e.locationA) }
func (e *Edge) NodeB() *Node               { return e.region.Node(e.locationB) }

// FarEnd returns the endpoint opposite to from.
func (e *Edge) FarEnd(from models.Location) *Node {
	if from == e.locationA {
		return e.NodeB()
	}
	return e.NodeA()
}

func (e *Edge) Compare(o *Edge) int {
	if c := e.locationA.Compare(o.locationA); c != 0 {
		return c
	}
	return e.locationB.Compare(o.locationB)
}

func (e *Edge) Equal(o *Edge) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil {
		return false
	}
	return e.name == o.name && e.locationA == o.locationA && e.locationB == o.locationB && e.duration == o.duration
}

func (e *Edge) String() string {
	return fmt.Sprintf("edge(name=%q, locationA=%s, locationB=%s, duration=%d)", e.name, e.locationA, e.locationB, e.duration)
}

// DistanceCalculator measures the straight distance between two locations.
type DistanceCalculator interface {
	Distance(a, b models.Location) float64
}

type EuclideanDistanceCalculator struct{}

func (EuclideanDistanceCalculator) Distance(a, b models.Location) float64 {
	d := a.Subtract(b)
	return math.Hypot(float64(d.X), float64(d.Y))
}

type ManhattanDistanceCalculator struct{}

func (ManhattanDistanceCalculator) Distance(a, b models.Location) float64 {
	d := a.Subtract(b)
	return math.Abs(float64(d.X)) + math.Abs(float64(d.Y))
}

// Region owns every node and edge of one simulation. It only grows.
type Region struct {
	nodes    map[models.Location]*Node
	edges    map[models.Location]map[models.Location]*Edge
	allEdges []*Edge
	distance DistanceCalculator
}

type RegionOption func(*Region)

func WithDistanceCalculator(dc DistanceCalculator) RegionOption {
	return func(r *Region) {
		r.distance = dc
	}
}

func NewRegion(opts ...RegionOption) *Region {
	r := &Region{
		nodes:    make(map[models.Location]*Node),
		edges:    make(map[models.Location]map[models.Location]*Edge),
		distance: EuclideanDistanceCalculator{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Region) Node(location models.Location) *Node {
	return r.nodes[location]
}

// Edge looks the edge up in either endpoint order.
func (r *Region) Edge(locationA, locationB models.Location) *Edge {
	if locationA.Compare(locationB) > 0 {
		locationA, locationB = locationB, locationA
	}
	return r.edges[locationA][locationB]
}

func (r *Region) Nodes() []*Node {
	nodes := lo.Values(r.nodes)
	slices.SortFunc(nodes, (*Node).Compare)
	return nodes
}

func (r *Region) Edges() []*Edge {
	edges := slices.Clone(r.allEdges)
	slices.SortFunc(edges, (*Edge).Compare)
	return edges
}

func (r *Region) DistanceCalculator() DistanceCalculator {
	return r.distance
}

func (r *Region) PutNode(node *Node) error {
	if node.region != r {
		return fmt.Errorf("%w: node %s has incorrect region", ErrConfiguration, node)
	}
	if existing, ok := r.nodes[node.location]; ok && existing != node {
		return fmt.Errorf("%w: node %s: location %s already taken by %q", ErrConfiguration, node, node.location, existing.name)
	}
	r.nodes[node.location] = node
	return nil
}

func (r *Region) PutEdge(edge *Edge) error {
	if edge.region != r {
		return fmt.Errorf("%w: edge %s has incorrect region", ErrConfiguration, edge)
	}
	if edge.NodeA() == nil {
		return fmt.Errorf("%w: edge %s: nodeA %s is not part of the region", ErrConfiguration, edge, edge.locationA)
	}
	if edge.NodeB() == nil {
		return fmt.Errorf("%w: edge %s: nodeB %s is not part of the region", ErrConfiguration, edge, edge.locationB)
	}
	if existing := r.Edge(edge.locationA, edge.locationB); existing != nil {
		return fmt.Errorf("%w: edge %s: endpoints already joined by %q", ErrConfiguration, edge, existing.name)
	}
	byB, ok := r.edges[edge.locationA]
	if !ok {
		byB = make(map[models.Location]*Edge)
		r.edges[edge.locationA] = byB
	}
	byB[edge.locationB] = edge
	r.allEdges = append(r.allEdges, edge)
	return nil
}
