package rating

import (
	"fmt"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
)

const (
	DefaultInTimeIgnoredTicksOff int64 = 5
	DefaultInTimeMaxTicksOff     int64 = 25
)

// InTimeRater scores how far deliveries land outside their window. Deviations
// up to ignoredTicksOff are free and each order costs at most maxTicksOff.
type InTimeRater struct {
	ignoredTicksOff int64
	maxTicksOff     int64

	outstanding      map[string]*routing.ConfirmedOrder
	actualTicksOff   int64
	maxTotalTicksOff int64
}

func NewInTimeRater(ignoredTicksOff, maxTicksOff int64) (*InTimeRater, error) {
	if ignoredTicksOff < 0 {
		return nil, fmt.Errorf("ignored ticks off must not be negative, got %d", ignoredTicksOff)
	}
	if maxTicksOff <= 0 {
		return nil, fmt.Errorf("max ticks off must be positive, got %d", maxTicksOff)
	}
	return &InTimeRater{
		ignoredTicksOff: ignoredTicksOff,
		maxTicksOff:     maxTicksOff,
		outstanding:     make(map[string]*routing.ConfirmedOrder),
	}, nil
}

func (r *InTimeRater) Criteria() Criteria { return CriteriaInTime }

func (r *InTimeRater) OnTick(events []models.Event, tick int64) {
	for _, event := range events {
		switch e := event.(type) {
		case *routing.DeliverOrderEvent:
			r.actualTicksOff += r.ticksOff(tick, e.Order)
			r.maxTotalTicksOff += r.maxTicksOff
			delete(r.outstanding, e.Order.ID())
		case *routing.OrderReceivedEvent:
			r.outstanding[e.Order.ID()] = e.Order
		}
	}
}

// ticksOff is the capped delay of a delivery at tick; zero when on time.
func (r *InTimeRater) ticksOff(tick int64, order *routing.ConfirmedOrder) int64 {
	window := order.DeliveryInterval()
	delay := max(tick-(window.End+r.ignoredTicksOff), (window.Start-r.ignoredTicksOff)-tick)
	if delay <= 0 {
		return 0
	}
	return min(delay, r.maxTicksOff)
}

// Score counts every order still outstanding as maximally late.
func (r *InTimeRater) Score() float64 {
	outstanding := int64(len(r.outstanding)) * r.maxTicksOff
	actual := r.actualTicksOff + outstanding
	total := r.maxTotalTicksOff + outstanding
	if total == 0 {
		return 0
	}
	return 1 - float64(actual)/float64(total)
}

func (r *InTimeRater) Reset() {
	clear(r.outstanding)
	r.actualTicksOff = 0
	r.maxTotalTicksOff = 0
}
