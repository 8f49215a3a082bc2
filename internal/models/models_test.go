package models

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationOrder(t *testing.T) {
	locations := []Location{{2, 0}, {0, 5}, {0, -1}, {1, 1}, {0, 5}}
	slices.SortFunc(locations, Location.Compare)
	assert.Equal(t, []Location{{0, -1}, {0, 5}, {0, 5}, {1, 1}, {2, 0}}, locations)

	assert.Equal(t, -1, NewLocation(0, 9).Compare(NewLocation(1, -9)))
	assert.Equal(t, 1, NewLocation(1, 1).Compare(NewLocation(1, 0)))
	assert.Equal(t, 0, NewLocation(3, 3).Compare(NewLocation(3, 3)))
	assert.True(t, NewLocation(0, 0).Less(NewLocation(0, 1)))
	assert.Equal(t, NewLocation(4, -2), NewLocation(1, 1).Add(NewLocation(3, -3)))
	assert.Equal(t, "(1,2)", NewLocation(1, 2).String())
}

func TestLocationParseAndScan(t *testing.T) {
	l, err := ParseLocation(" (3, -4) ")
	require.NoError(t, err)
	assert.Equal(t, NewLocation(3, -4), l)

	_, err = ParseLocation("3")
	assert.Error(t, err)
	_, err = ParseLocation("a,b")
	assert.Error(t, err)

	var scanned Location
	require.NoError(t, scanned.Scan([]byte("POINT(7 -2)")))
	assert.Equal(t, NewLocation(7, -2), scanned)
	assert.Equal(t, "POINT(7 -2)", scanned.Point())
	assert.Error(t, scanned.Scan(42))
}

func TestTickInterval(t *testing.T) {
	_, err := NewTickInterval(5, 4)
	assert.Error(t, err)

	interval, err := NewTickInterval(10, 25)
	require.NoError(t, err)
	assert.Equal(t, int64(15), interval.Duration())
	assert.True(t, interval.Contains(10))
	assert.True(t, interval.Contains(25))
	assert.False(t, interval.Contains(26))
	assert.Equal(t, "[10,25]", interval.String())
}

type testEvent struct {
	tick int64
	name string
}

func (e testEvent) Tick() int64  { return e.tick }
func (e testEvent) Type() string { return e.name }

func TestEventBusPopsTickInPostOrder(t *testing.T) {
	bus := NewEventBus()
	bus.QueuePost(testEvent{tick: 3, name: "later"})
	bus.QueuePost(testEvent{tick: 2, name: "b"})
	bus.QueuePost(testEvent{tick: 2, name: "a"})
	bus.QueuePost(testEvent{tick: 1, name: "stale"})
	bus.QueuePost(testEvent{tick: 2, name: "c"})

	assert.Equal(t, 5, bus.Len())
	assert.Equal(t, int64(1), bus.Peek().Tick())

	events := bus.PopEvents(2)
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.Type())
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	assert.Equal(t, 1, bus.Len())
	assert.Empty(t, bus.PopEvents(2))

	later := bus.PopEvents(3)
	require.Len(t, later, 1)
	assert.Equal(t, "later", later[0].Type())
	assert.True(t, bus.IsEmpty())
	assert.Nil(t, bus.Peek())
}

func TestEventBusConcurrentPosts(t *testing.T) {
	bus := NewEventBus()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				bus.QueuePost(testEvent{tick: 0, name: "e"})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, bus.PopEvents(0), 800)

	bus.QueuePost(testEvent{tick: 9})
	bus.Clear()
	assert.True(t, bus.IsEmpty())
}

func TestDecodeConfig(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("vehicles", []map[string]interface{}{
		{"location": "0,0", "capacity": 2.5},
		{"location": map[string]interface{}{"x": 4, "y": 1}, "capacity": 1},
	})
	v.Set("kafka_timeout", "5s")
	v.Set("rating.in_time_max_ticks_off", 30)

	cfg, err := DecodeConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "basic", cfg.DeliveryService)
	assert.Equal(t, 0.99, cfg.Rating.AmountDeliveredFactor)
	assert.Equal(t, int64(30), cfg.Rating.InTimeMaxTicksOff)
	assert.Equal(t, 5*time.Second, cfg.KafkaTimeout)
	assert.Equal(t, int64(-1), cfg.Orders.Seed)
	assert.Equal(t, 4.0, cfg.Orders.StandardDeviation)
	require.Len(t, cfg.Vehicles, 2)
	assert.Equal(t, NewLocation(0, 0), cfg.Vehicles[0].Location)
	assert.Equal(t, NewLocation(4, 1), cfg.Vehicles[1].Location)
	assert.Equal(t, 2.5, cfg.Vehicles[0].Capacity)
}

func TestLoadMenuDishData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dishes.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,burger\n2,\n3,ramen\n"), 0o644))

	var cfg Config
	require.NoError(t, cfg.LoadMenuDishData(path))
	assert.Equal(t, []MenuDish{{Name: "burger"}, {Name: "ramen"}}, cfg.MenuDishes)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: "5432", User: "sim", Password: "pw", DBName: "routes", SSLMode: "disable"}
	assert.Equal(t, "postgres://sim:pw@db:5432/routes?sslmode=disable", db.DSN())
}
