package simulator

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/foodroutesim/internal/delivery"
	"github.com/chrisdamba/foodroutesim/internal/factories"
	"github.com/chrisdamba/foodroutesim/internal/generator"
	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/rating"
	"github.com/chrisdamba/foodroutesim/internal/repositories"
	"github.com/chrisdamba/foodroutesim/internal/routing"
)

// Problem is everything one simulation run needs: the fleet on its region,
// the service dispatching it, the order source and the raters.
type Problem struct {
	Name      string
	Manager   *routing.VehicleManager
	Service   delivery.Service
	Generator generator.OrderGenerator
	Raters    []rating.Rater
}

// NewProblem assembles a Problem from cfg. The region comes from the region
// file, the database (regions must then be non-nil) or a generated grid.
func NewProblem(ctx context.Context, cfg *models.Config, regions repositories.RegionRepository) (*Problem, error) {
	var (
		region   *routing.Region
		file     *factories.RegionFile
		vehicles = cfg.Vehicles
		err      error
	)

	switch {
	case cfg.RegionFile != "":
		file, err = factories.LoadRegionFile(cfg.RegionFile)
		if err != nil {
			return nil, err
		}
		region, err = file.Build()
		if len(file.Vehicles) > 0 {
			vehicles = file.Vehicles
		}
	case cfg.RegionFromDatabase:
		if regions == nil {
			return nil, fmt.Errorf("%w: region_from_database needs a database", routing.ErrConfiguration)
		}
		region, err = regions.Load(ctx, cfg.ProblemName)
	default:
		region, err = factories.NewGridFactory(cfg.Seed, cfg.MenuDishes).CreateRegion(cfg.Grid)
	}
	if err != nil {
		return nil, fmt.Errorf("create region: %w", err)
	}

	vm := routing.NewVehicleManager(region, nil)
	if err := addVehicles(vm, vehicles, cfg); err != nil {
		return nil, err
	}

	var orders generator.OrderGenerator
	if file != nil && len(file.Orders) > 0 {
		orders, err = generator.NewScriptedOrderGenerator(vm, file.Orders)
	} else {
		orders, err = generator.NewFridayOrderGenerator(vm, cfg.Orders)
	}
	if err != nil {
		return nil, fmt.Errorf("create order generator: %w", err)
	}

	raters, err := rating.NewRaters(vm, cfg.Rating)
	if err != nil {
		return nil, fmt.Errorf("create raters: %w", err)
	}

	service, err := delivery.New(cfg.DeliveryService, vm)
	if err != nil {
		return nil, err
	}

	name := cfg.ProblemName
	if file != nil && file.Name != "" {
		name = file.Name
	}
	return &Problem{
		Name:      name,
		Manager:   vm,
		Service:   service,
		Generator: orders,
		Raters:    raters,
	}, nil
}

// addVehicles places the configured fleet, or VehiclesPerRestaurant
// vehicles on every restaurant when none is configured.
func addVehicles(vm *routing.VehicleManager, vehicles []models.VehicleConfig, cfg *models.Config) error {
	var errs []error
	if len(vehicles) > 0 {
		for _, v := range vehicles {
			if _, err := vm.AddVehicle(v.Location, v.Capacity); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	if cfg.VehiclesPerRestaurant <= 0 {
		return fmt.Errorf("%w: no vehicles configured", routing.ErrConfiguration)
	}
	for _, restaurant := range vm.Region().Nodes() {
		if !restaurant.IsRestaurant() {
			continue
		}
		for i := 0; i < cfg.VehiclesPerRestaurant; i++ {
			if _, err := vm.AddVehicle(restaurant.Location(), cfg.VehicleCapacity); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
