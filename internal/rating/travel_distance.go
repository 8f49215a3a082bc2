package rating

import (
	"fmt"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/sirupsen/logrus"
)

const DefaultTravelDistanceFactor = 0.5

// TravelDistanceRater compares the distance driven with a worst case of one
// separate round trip per delivered order.
type TravelDistanceRater struct {
	region         *routing.Region
	pathCalculator routing.PathCalculator
	factor         float64

	actualDistance int64
	worstDistance  int64
	log            *logrus.Entry
}

func NewTravelDistanceRater(vm *routing.VehicleManager, factor float64) (*TravelDistanceRater, error) {
	if factor < 0 || factor > 1 {
		return nil, fmt.Errorf("travel distance factor must be between 0 and 1, got %f", factor)
	}
	return &TravelDistanceRater{
		region:         vm.Region(),
		pathCalculator: vm.PathCalculator(),
		factor:         factor,
		log:            logrus.WithField("component", "travel-distance-rater"),
	}, nil
}

func (r *TravelDistanceRater) Criteria() Criteria { return CriteriaTravelDistance }

func (r *TravelDistanceRater) OnTick(events []models.Event, _ int64) {
	for _, event := range events {
		switch e := event.(type) {
		case *routing.DeliverOrderEvent:
			distance, err := r.shortestDistance(e.Order.Restaurant().Node(), e.Node)
			if err != nil {
				r.log.WithError(err).WithField("order", e.Order.ID()).Warn("skipping order in worst distance")
				continue
			}
			r.worstDistance += 2 * distance
		case *routing.ArrivedAtNodeEvent:
			if e.LastEdge != nil {
				r.actualDistance += e.LastEdge.Duration()
			}
		}
	}
}

func (r *TravelDistanceRater) shortestDistance(from, to *routing.Node) (int64, error) {
	path, err := r.pathCalculator.Path(from, to)
	if err != nil {
		return 0, err
	}
	return routing.PathDuration(from, path)
}

func (r *TravelDistanceRater) Score() float64 {
	limit := float64(r.worstDistance) * r.factor
	actual := float64(r.actualDistance)
	if actual > 0 && actual < limit {
		return 1 - actual/limit
	}
	return 0
}

func (r *TravelDistanceRater) Reset() {
	r.actualDistance = 0
	r.worstDistance = 0
}
