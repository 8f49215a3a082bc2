package models

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Location is an integer grid coordinate. It is the only stable key for nodes.
type Location struct {
	X int64 `json:"x" parquet:"name=x,type=INT64" yaml:"x" mapstructure:"x"`
	Y int64 `json:"y" parquet:"name=y,type=INT64" yaml:"y" mapstructure:"y"`
}

func NewLocation(x, y int64) Location {
	return Location{X: x, Y: y}
}

// Compare orders locations by X, then by Y.
func (l Location) Compare(o Location) int {
	switch {
	case l.X < o.X:
		return -1
	case l.X > o.X:
		return 1
	case l.Y < o.Y:
		return -1
	case l.Y > o.Y:
		return 1
	}
	return 0
}

func (l Location) Less(o Location) bool {
	return l.Compare(o) < 0
}

func (l Location) Add(o Location) Location {
	return Location{X: l.X + o.X, Y: l.Y + o.Y}
}

func (l Location) Subtract(o Location) Location {
	return Location{X: l.X - o.X, Y: l.Y - o.Y}
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.X, l.Y)
}

// Point renders the location in the PostGIS text form stored by the region tables.
func (l Location) Point() string {
	return fmt.Sprintf("POINT(%d %d)", l.X, l.Y)
}

func (l *Location) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		_, err := fmt.Sscanf(string(v), "POINT(%d %d)", &l.X, &l.Y)
		return err
	case string:
		_, err := fmt.Sscanf(v, "POINT(%d %d)", &l.X, &l.Y)
		return err
	default:
		return fmt.Errorf("unsupported type for Location: %T", value)
	}
}

// ParseLocation reads the "x,y" form used in config files and flags.
func ParseLocation(s string) (Location, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "()"), ",")
	if len(parts) != 2 {
		return Location{}, fmt.Errorf("invalid location %q: expected x,y", s)
	}
	x, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", s, err)
	}
	y, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return Location{}, fmt.Errorf("invalid location %q: %w", s, err)
	}
	return Location{X: x, Y: y}, nil
}

// UnmarshalYAML accepts both the "x,y" scalar form and an {x, y} mapping.
func (l *Location) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		parsed, err := ParseLocation(value.Value)
		if err != nil {
			return err
		}
		*l = parsed
		return nil
	}
	var raw struct {
		X int64 `yaml:"x"`
		Y int64 `yaml:"y"`
	}
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid location at line %d: %w", value.Line, err)
	}
	*l = Location{X: raw.X, Y: raw.Y}
	return nil
}
