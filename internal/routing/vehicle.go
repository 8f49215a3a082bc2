package routing

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// ArrivalAction runs once when a vehicle has walked the whole node sequence of a path.
type ArrivalAction func(v *Vehicle, currentTick int64) error

// Path is a read-only view of one queued leg.
type Path struct {
	Nodes  []*Node
	Target *Node
	Action ArrivalAction
}

type plannedPath struct {
	nodes  []*Node
	target *Node
	action ArrivalAction
}

// Visit records a component the vehicle entered and when.
type Visit struct {
	Tick      int64
	Component Component
}

type Vehicle struct {
	id           int
	capacity     float64
	manager      *VehicleManager
	startingNode *OccupiedRestaurant
	occupied     Occupied
	orders       []*ConfirmedOrder
	moveQueue    []*plannedPath
	history      []Visit
}

func newVehicle(id int, capacity float64, manager *VehicleManager, startingNode *OccupiedRestaurant) *Vehicle {
	return &Vehicle{
		id:           id,
		capacity:     capacity,
		manager:      manager,
		startingNode: startingNode,
		occupied:     startingNode,
	}
}

func (v *Vehicle) ID() int                           { return v.id }
func (v *Vehicle) Capacity() float64                 { return v.capacity }
func (v *Vehicle) VehicleManager() *VehicleManager   { return v.manager }
func (v *Vehicle) StartingNode() *OccupiedRestaurant { return v.startingNode }
func (v *Vehicle) Occupied() Occupied                { return v.occupied }

func (v *Vehicle) CurrentWeight() float64 {
	return lo.SumBy(v.orders, func(o *ConfirmedOrder) float64 { return o.Weight() })
}

func (v *Vehicle) Orders() []*ConfirmedOrder {
	return slices.Clone(v.orders)
}

func (v *Vehicle) History() []Visit {
	return slices.Clone(v.history)
}

// Paths returns the move queue, head first.
func (v *Vehicle) Paths() []Path {
	return lo.Map(v.moveQueue, func(p *plannedPath, _ int) Path {
		return Path{Nodes: slices.Clone(p.nodes), Target: p.target, Action: p.action}
	})
}

// Idle reports whether the move queue is empty.
func (v *Vehicle) Idle() bool {
	return len(v.moveQueue) == 0
}

// PreviousOccupied is the component the vehicle was on before its current one.
func (v *Vehicle) PreviousOccupied() Occupied {
	if v.occupied == nil {
		return nil
	}
	return v.occupied.base().previousOf(v)
}

// CurrentNode returns the node the vehicle stands on, or nil while it is on an edge.
func (v *Vehicle) CurrentNode() *Node {
	if v.occupied == nil {
		return nil
	}
	node, _ := v.occupied.Component().(*Node)
	return node
}

// MoveDirect replaces the move queue with a single path to node.
func (v *Vehicle) MoveDirect(node *Node, action ArrivalAction) error {
	if err := v.checkMoveTarget(node); err != nil {
		return err
	}
	start, exit, err := v.restingNode()
	if err != nil {
		return err
	}
	nodes, err := v.manager.pathCalculator.Path(start, node)
	if err != nil {
		return fmt.Errorf("move vehicle %d to %s: %w", v.id, node.location, err)
	}

	queue := make([]*plannedPath, 0, 2)
	if exit != nil {
		queue = append(queue, exit)
	}
	v.moveQueue = append(queue, &plannedPath{nodes: nodes, target: node, action: action})
	return nil
}

// MoveQueued appends a path to node, planned from the end of the last queued path.
func (v *Vehicle) MoveQueued(node *Node, action ArrivalAction) error {
	if err := v.checkMoveTarget(node); err != nil {
		return err
	}
	var (
		start *Node
		exit  *plannedPath
	)
	if len(v.moveQueue) > 0 {
		start = v.moveQueue[len(v.moveQueue)-1].target
	} else {
		var err error
		if start, exit, err = v.restingNode(); err != nil {
			return err
		}
	}
	nodes, err := v.manager.pathCalculator.Path(start, node)
	if err != nil {
		return fmt.Errorf("queue move of vehicle %d to %s: %w", v.id, node.location, err)
	}

	if exit != nil {
		v.moveQueue = append(v.moveQueue, exit)
	}
	v.moveQueue = append(v.moveQueue, &plannedPath{nodes: nodes, target: node, action: action})
	return nil
}

func (v *Vehicle) checkMoveTarget(node *Node) error {
	if node == nil {
		return fmt.Errorf("%w: vehicle %d: move target is nil", ErrUsage, v.id)
	}
	if node.Region() != v.manager.region {
		return fmt.Errorf("%w: vehicle %d: node %s belongs to another region", ErrConfiguration, v.id, node)
	}
	if v.occupied != nil && v.occupied.Component() == Component(node) && len(v.moveQueue) == 0 {
		return fmt.Errorf("%w: vehicle %d is already at %s", ErrUsage, v.id, node.location)
	}
	return nil
}

// restingNode is the node a new plan starts from. On an edge it is the far
// node, reached through the returned exit path.
func (v *Vehicle) restingNode() (*Node, *plannedPath, error) {
	if v.occupied == nil {
		return nil, nil, fmt.Errorf("%w: vehicle %d has no position", ErrInvariant, v.id)
	}
	switch c := v.occupied.Component().(type) {
	case *Node:
		return c, nil, nil
	case *Edge:
		previous := v.PreviousOccupied()
		if previous == nil {
			return nil, nil, fmt.Errorf("%w: vehicle %d entered %q without a node", ErrInvariant, v.id, c.name)
		}
		from, ok := previous.Component().(*Node)
		if !ok {
			return nil, nil, fmt.Errorf("%w: vehicle %d entered %q from %s", ErrInvariant, v.id, c.name, previous.Component())
		}
		far := c.FarEnd(from.location)
		return far, &plannedPath{nodes: []*Node{far}, target: far}, nil
	default:
		return nil, nil, fmt.Errorf("%w: vehicle %d is on %T", ErrInvariant, v.id, c)
	}
}

// move advances the vehicle by at most one transition.
func (v *Vehicle) move(currentTick int64) error {
	if len(v.moveQueue) == 0 {
		return nil
	}
	head := v.moveQueue[0]
	if len(head.nodes) == 0 {
		v.moveQueue = v.moveQueue[1:]
		if head.action == nil {
			return v.move(currentTick)
		}
		return head.action(v, currentTick)
	}

	next := head.nodes[0]
	switch c := v.occupied.Component().(type) {
	case *Node:
		edge := v.manager.region.Edge(c.location, next.location)
		if edge == nil {
			return fmt.Errorf("%w: no edge from %s to %s", ErrInvariant, c.location, next.location)
		}
		occupied, err := v.manager.occupiedEdge(edge)
		if err != nil {
			return err
		}
		return occupied.addVehicle(v, currentTick)
	case *Edge:
		if next.location != c.locationA && next.location != c.locationB {
			return fmt.Errorf("%w: %s is not an end of %q", ErrInvariant, next.location, c.name)
		}
		occupied, err := v.manager.occupiedNode(next)
		if err != nil {
			return err
		}
		if err := occupied.addVehicle(v, currentTick); err != nil {
			return err
		}
		head.nodes = head.nodes[1:]
		return nil
	default:
		return fmt.Errorf("%w: vehicle %d is on %T", ErrInvariant, v.id, c)
	}
}

func (v *Vehicle) loadOrder(order *ConfirmedOrder) error {
	if lo.ContainsBy(v.orders, func(o *ConfirmedOrder) bool { return o.ID() == order.ID() }) {
		return fmt.Errorf("%w: order %s is already loaded on vehicle %d", ErrUsage, order.ID(), v.id)
	}
	weight := v.CurrentWeight() + order.Weight()
	if weight > v.capacity {
		return &VehicleOverloadedError{VehicleID: v.id, Weight: weight, Capacity: v.capacity}
	}
	v.orders = append(v.orders, order)
	return nil
}

func (v *Vehicle) unloadOrder(order *ConfirmedOrder) error {
	index := slices.IndexFunc(v.orders, func(o *ConfirmedOrder) bool { return o.ID() == order.ID() })
	if index < 0 {
		return fmt.Errorf("%w: order %s is not loaded on vehicle %d", ErrUsage, order.ID(), v.id)
	}
	v.orders = slices.Delete(v.orders, index, index+1)
	return nil
}

func (v *Vehicle) recordVisit(currentTick int64, component Component) {
	v.history = append(v.history, Visit{Tick: currentTick, Component: component})
}

// Reset puts the vehicle back on its starting restaurant, empty and without plans.
func (v *Vehicle) Reset() {
	v.occupied = v.startingNode
	v.orders = nil
	v.moveQueue = nil
	v.history = nil
}

func (v *Vehicle) Compare(o *Vehicle) int {
	return cmp.Compare(v.id, o.id)
}

func (v *Vehicle) String() string {
	at := "nowhere"
	if v.occupied != nil {
		at = v.occupied.Component().String()
	}
	return fmt.Sprintf("vehicle(id=%d, capacity=%.3f, load=%.3f, orders=%d, at=%s)",
		v.id, v.capacity, v.CurrentWeight(), len(v.orders), at)
}
