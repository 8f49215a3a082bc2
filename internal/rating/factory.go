package rating

import (
	"errors"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
)

// NewRaters builds one rater per criteria from the rating settings.
func NewRaters(vm *routing.VehicleManager, cfg models.RatingConfig) ([]Rater, error) {
	amount, errAmount := NewAmountDeliveredRater(cfg.AmountDeliveredFactor)
	inTime, errInTime := NewInTimeRater(cfg.InTimeIgnoredTicksOff, cfg.InTimeMaxTicksOff)
	distance, errDistance := NewTravelDistanceRater(vm, cfg.TravelDistanceFactor)
	if err := errors.Join(errAmount, errInTime, errDistance); err != nil {
		return nil, err
	}
	return []Rater{amount, inTime, distance}, nil
}
