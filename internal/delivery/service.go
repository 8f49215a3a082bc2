package delivery

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Service accepts confirmed orders from any goroutine and dispatches them
// to vehicles once per tick.
type Service interface {
	Deliver(orders ...*routing.ConfirmedOrder)
	Tick(currentTick int64) ([]models.Event, error)
	PendingOrders() []*routing.ConfirmedOrder
	VehicleManager() *routing.VehicleManager
	Reset()
}

// handoff is the only lock in the simulation: producers append, the tick swaps.
type handoff struct {
	mu     sync.Mutex
	orders []*routing.ConfirmedOrder
}

func (h *handoff) add(orders []*routing.ConfirmedOrder) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orders = append(h.orders, orders...)
}

func (h *handoff) take() []*routing.ConfirmedOrder {
	h.mu.Lock()
	defer h.mu.Unlock()
	taken := h.orders
	h.orders = nil
	return taken
}

// BasicService loads every parked vehicle with the waiting orders of its
// restaurant, then sends it on a tour of the destinations and back.
type BasicService struct {
	vm      *routing.VehicleManager
	inbox   handoff
	pending []*routing.ConfirmedOrder
	log     *logrus.Entry
}

func NewBasicService(vm *routing.VehicleManager) *BasicService {
	return &BasicService{
		vm:  vm,
		log: logrus.WithField("component", "delivery"),
	}
}

func (s *BasicService) Deliver(orders ...*routing.ConfirmedOrder) {
	s.inbox.add(orders)
}

func (s *BasicService) VehicleManager() *routing.VehicleManager {
	return s.vm
}

func (s *BasicService) PendingOrders() []*routing.ConfirmedOrder {
	return slices.Clone(s.pending)
}

func (s *BasicService) Tick(currentTick int64) ([]models.Event, error) {
	received := s.inbox.take()
	for _, order := range received {
		s.vm.EventBus().QueuePost(routing.NewOrderReceivedEvent(currentTick, order))
	}

	events, err := s.vm.Tick(currentTick)
	if err != nil {
		return nil, err
	}

	s.pending = append(s.pending, received...)
	sort.SliceStable(s.pending, func(i, j int) bool {
		return s.pending[i].DeliveryInterval().Start < s.pending[j].DeliveryInterval().Start
	})

	for _, restaurant := range s.vm.OccupiedRestaurants() {
		for _, vehicle := range restaurant.ParkedVehicles() {
			if err := s.dispatch(restaurant, vehicle, currentTick); err != nil {
				return nil, fmt.Errorf("dispatch vehicle %d: %w", vehicle.ID(), err)
			}
		}
	}

	return append(events, s.vm.EventBus().PopEvents(currentTick)...), nil
}

// dispatch loads an idle vehicle and queues its tour. Orders whose
// destination cannot be reached from the restaurant stay pending. Nothing is
// loaded or queued until every leg of the tour has a path.
func (s *BasicService) dispatch(restaurant *routing.OccupiedRestaurant, vehicle *routing.Vehicle, currentTick int64) error {
	if !vehicle.Idle() {
		return nil
	}
	origin := restaurant.Node()
	weight := vehicle.CurrentWeight()
	var selected []*routing.ConfirmedOrder
	for _, order := range s.pending {
		if order.Restaurant() != restaurant || weight+order.Weight() > vehicle.Capacity() {
			continue
		}
		if err := s.reachable(origin, order); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"tick":  currentTick,
				"order": order.ID(),
			}).Warn("order destination unreachable, keeping it pending")
			continue
		}
		selected = append(selected, order)
		weight += order.Weight()
	}

	loaded := append(vehicle.Orders(), selected...)
	if len(loaded) == 0 {
		return nil
	}
	region := s.vm.Region()
	destinations := lo.Map(
		lo.Uniq(lo.Map(loaded, func(o *routing.ConfirmedOrder, _ int) models.Location { return o.Location() })),
		func(l models.Location, _ int) *routing.Node { return region.Node(l) },
	)
	if err := s.planTour(origin, destinations, vehicle.StartingNode().Node()); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"tick":    currentTick,
			"vehicle": vehicle.ID(),
		}).Warn("no tour for vehicle, leaving it idle")
		return nil
	}

	for _, order := range selected {
		if err := restaurant.LoadOrder(vehicle, order, currentTick); err != nil {
			return err
		}
	}
	s.pending = slices.DeleteFunc(s.pending, func(o *routing.ConfirmedOrder) bool {
		return slices.Contains(selected, o)
	})
	for _, node := range destinations {
		if err := vehicle.MoveQueued(node, s.deliverAt(node)); err != nil {
			return err
		}
	}
	if err := vehicle.MoveQueued(vehicle.StartingNode().Node(), nil); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"tick":         currentTick,
		"vehicle":      vehicle.ID(),
		"orders":       len(loaded),
		"destinations": len(destinations),
	}).Debug("dispatched vehicle")
	return nil
}

func (s *BasicService) reachable(origin *routing.Node, order *routing.ConfirmedOrder) error {
	node := s.vm.Region().Node(order.Location())
	if node == nil {
		return fmt.Errorf("%w: order destination %s is not in the region", routing.ErrConfiguration, order.Location())
	}
	_, err := s.vm.PathCalculator().Path(origin, node)
	return err
}

// planTour checks that every leg from origin through the destinations and
// back home has a path.
func (s *BasicService) planTour(origin *routing.Node, destinations []*routing.Node, home *routing.Node) error {
	from := origin
	for _, to := range append(slices.Clone(destinations), home) {
		if to == nil {
			return fmt.Errorf("%w: tour stop is not in the region", routing.ErrConfiguration)
		}
		if _, err := s.vm.PathCalculator().Path(from, to); err != nil {
			return fmt.Errorf("plan tour leg %s -> %s: %w", from.Location(), to.Location(), err)
		}
		from = to
	}
	return nil
}

// deliverAt hands over every loaded order addressed to node.
func (s *BasicService) deliverAt(node *routing.Node) routing.ArrivalAction {
	return func(v *routing.Vehicle, currentTick int64) error {
		neighborhood, err := s.vm.OccupiedNeighborhood(node)
		if err != nil {
			return err
		}
		orders := lo.Filter(v.Orders(), func(o *routing.ConfirmedOrder, _ int) bool {
			return o.Location() == node.Location()
		})
		slices.SortStableFunc(orders, func(a, b *routing.ConfirmedOrder) int {
			return cmp.Compare(a.DeliveryInterval().End, b.DeliveryInterval().End)
		})
		for _, order := range orders {
			if err := neighborhood.DeliverOrder(v, order, currentTick); err != nil {
				return err
			}
		}
		return nil
	}
}

// Reset drops every pending and buffered order and resets the vehicle manager.
func (s *BasicService) Reset() {
	s.inbox.take()
	s.pending = nil
	s.vm.Reset()
}
