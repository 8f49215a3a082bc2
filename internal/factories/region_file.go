package factories

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chrisdamba/foodroutesim/internal/generator"
	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/routing"
	"gopkg.in/yaml.v3"
)

type NodeSpec struct {
	Name     string          `yaml:"name"`
	Location models.Location `yaml:"location"`
	Kind     string          `yaml:"kind"`
	Food     []string        `yaml:"food"`
}

type EdgeSpec struct {
	Name     string          `yaml:"name"`
	A        models.Location `yaml:"a"`
	B        models.Location `yaml:"b"`
	Duration *int64          `yaml:"duration"`
}

// RegionFile is a hand-written scenario: the graph, the fleet and optionally
// a fixed order script.
type RegionFile struct {
	Name     string                    `yaml:"name"`
	Distance string                    `yaml:"distance"`
	Nodes    []NodeSpec                `yaml:"nodes"`
	Edges    []EdgeSpec                `yaml:"edges"`
	Vehicles []models.VehicleConfig    `yaml:"vehicles"`
	Orders   []generator.ScriptedOrder `yaml:"orders"`
}

func LoadRegionFile(path string) (*RegionFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open region file: %w", err)
	}
	defer f.Close()
	return DecodeRegionFile(f)
}

func DecodeRegionFile(r io.Reader) (*RegionFile, error) {
	var file RegionFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode region file: %w", err)
	}
	return &file, nil
}

// Build turns the file into a region. Edges without a duration get the
// rounded-up distance between their ends.
func (f *RegionFile) Build() (*routing.Region, error) {
	var opts []routing.RegionOption
	switch strings.ToLower(f.Distance) {
	case "", "euclidean":
	case "manhattan":
		opts = append(opts, routing.WithDistanceCalculator(routing.ManhattanDistanceCalculator{}))
	default:
		return nil, fmt.Errorf("%w: unknown distance %q", routing.ErrConfiguration, f.Distance)
	}

	b := routing.NewRegionBuilder(opts...)
	for _, n := range f.Nodes {
		switch strings.ToLower(n.Kind) {
		case "", "node":
			b.AddNode(n.Name, n.Location)
		case "restaurant":
			b.AddRestaurant(n.Name, n.Location, n.Food)
		case "neighborhood":
			b.AddNeighborhood(n.Name, n.Location)
		default:
			return nil, fmt.Errorf("%w: node %q has unknown kind %q", routing.ErrConfiguration, n.Name, n.Kind)
		}
	}
	for _, e := range f.Edges {
		if e.Duration == nil {
			b.AddEdgeByDistance(e.Name, e.A, e.B)
		} else {
			b.AddEdge(e.Name, e.A, e.B, *e.Duration)
		}
	}
	return b.Build()
}
