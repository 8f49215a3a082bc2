package delivery

import (
	"fmt"
	"sort"

	"github.com/chrisdamba/foodroutesim/internal/routing"
	"github.com/samber/lo"
)

// Factory builds a delivery service on top of a vehicle manager.
type Factory func(vm *routing.VehicleManager) Service

var factories = map[string]Factory{
	"basic": func(vm *routing.VehicleManager) Service { return NewBasicService(vm) },
}

// Register makes a service selectable by name from the configuration.
func Register(name string, factory Factory) {
	factories[name] = factory
}

func New(name string, vm *routing.VehicleManager) (Service, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown delivery service %q, available: %v", name, Names())
	}
	return factory(vm), nil
}

func Names() []string {
	names := lo.Keys(factories)
	sort.Strings(names)
	return names
}
