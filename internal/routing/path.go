package routing

import (
	"container/heap"
	"fmt"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/samber/lo"
)

// PathCalculator plans the node sequence from start to end. The result excludes
// start and includes end; start == end yields an empty path.
type PathCalculator interface {
	Path(start, end *Node) ([]*Node, error)
}

type pathItem struct {
	node     *Node
	distance int64
	index    int
}

// priorityQueue orders by distance, then by node location so ties resolve the same way every run
type priorityQueue []*pathItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].distance != pq[j].distance {
		return pq[i].distance < pq[j].distance
	}
	return pq[i].node.Compare(pq[j].node) < 0
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*pathItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// DijkstraPathCalculator finds shortest paths weighted by edge duration.
type DijkstraPathCalculator struct{}

func NewDijkstraPathCalculator() *DijkstraPathCalculator {
	return &DijkstraPathCalculator{}
}

func (d *DijkstraPathCalculator) Path(start, end *Node) ([]*Node, error) {
	if err := checkEndpoints(start, end); err != nil {
		return nil, err
	}
	if start == end {
		return []*Node{}, nil
	}

	distances := map[models.Location]int64{start.location: 0}
	cameFrom := make(map[models.Location]*Node)
	settled := make(map[models.Location]bool)
	items := make(map[models.Location]*pathItem)

	pq := &priorityQueue{}
	heap.Init(pq)
	first := &pathItem{node: start}
	heap.Push(pq, first)
	items[start.location] = first

	for pq.Len() > 0 {
		current := heap.Pop(pq).(*pathItem)
		settled[current.node.location] = true
		if current.node == end {
			break
		}
		for _, edge := range current.node.AdjacentEdges() {
			next := edge.FarEnd(current.node.location)
			if next == nil || settled[next.location] {
				continue
			}
			candidate := current.distance + edge.Duration()
			known, seen := distances[next.location]
			if seen && (candidate > known || (candidate == known && cameFrom[next.location].Compare(current.node) <= 0)) {
				continue
			}
			distances[next.location] = candidate
			cameFrom[next.location] = current.node
			if item, ok := items[next.location]; ok {
				item.distance = candidate
				heap.Fix(pq, item.index)
			} else {
				item := &pathItem{node: next, distance: candidate}
				heap.Push(pq, item)
				items[next.location] = item
			}
		}
	}

	if !settled[end.location] {
		return nil, fmt.Errorf("%w: from %s to %s", ErrNoPath, start.location, end.location)
	}
	return reconstructPath(cameFrom, start, end), nil
}

func reconstructPath(cameFrom map[models.Location]*Node, start, end *Node) []*Node {
	reversed := []*Node{end}
	for current := cameFrom[end.location]; current != start; current = cameFrom[current.location] {
		reversed = append(reversed, current)
	}
	return lo.Reverse(reversed)
}

func checkEndpoints(start, end *Node) error {
	if start == nil || end == nil {
		return fmt.Errorf("%w: path endpoints must not be nil", ErrUsage)
	}
	region := start.Region()
	if end.Region() != region || region.Node(start.location) != start || region.Node(end.location) != end {
		return fmt.Errorf("%w: path from %s to %s crosses regions", ErrConfiguration, start, end)
	}
	return nil
}

// PathDuration sums the edge durations along a path that begins at start.
func PathDuration(start *Node, path []*Node) (int64, error) {
	var total int64
	previous := start
	for _, n := range path {
		edge := start.Region().Edge(previous.location, n.location)
		if edge == nil {
			return 0, fmt.Errorf("%w: no edge between %s and %s", ErrInvariant, previous.location, n.location)
		}
		total += edge.Duration()
		previous = n
	}
	return total, nil
}
