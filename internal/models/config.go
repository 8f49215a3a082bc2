package models

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type MenuDish struct {
	Name string `mapstructure:"name"`
}

type GridConfig struct {
	Width         int   `mapstructure:"width"`
	Height        int   `mapstructure:"height"`
	Restaurants   int   `mapstructure:"restaurants"`
	Neighborhoods int   `mapstructure:"neighborhoods"`
	MinDuration   int64 `mapstructure:"min_duration"`
	MaxDuration   int64 `mapstructure:"max_duration"`
}

type VehicleConfig struct {
	Location Location `mapstructure:"location"`
	Capacity float64  `mapstructure:"capacity"`
}

type OrderGeneratorConfig struct {
	DeliveryInterval  int64   `mapstructure:"delivery_interval"`
	MaxWeight         float64 `mapstructure:"max_weight"`
	StandardDeviation float64 `mapstructure:"standard_deviation"`
	LastTick          int64   `mapstructure:"last_tick"`
	OrderCount        int     `mapstructure:"order_count"`
	Seed              int64   `mapstructure:"seed"`
}

type RatingConfig struct {
	AmountDeliveredFactor float64 `mapstructure:"amount_delivered_factor"`
	InTimeIgnoredTicksOff int64   `mapstructure:"in_time_ignored_ticks_off"`
	InTimeMaxTicksOff     int64   `mapstructure:"in_time_max_ticks_off"`
	TravelDistanceFactor  float64 `mapstructure:"travel_distance_factor"`
}

type CloudStorageConfig struct {
	Provider   string `mapstructure:"provider"`
	BucketName string `mapstructure:"bucket_name"`
	Region     string `mapstructure:"region"`
	Endpoint   string `mapstructure:"endpoint"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN renders the pgx connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type Config struct {
	Seed             int64   `mapstructure:"seed"`
	LogLevel         string  `mapstructure:"log_level"`
	SimulationRuns   int     `mapstructure:"simulation_runs"`
	SimulationLength int64   `mapstructure:"simulation_length"`
	TicksPerSecond   float64 `mapstructure:"ticks_per_second"`
	DeliveryService  string  `mapstructure:"delivery_service"`
	ProblemName      string  `mapstructure:"problem_name"`
	Progress         bool    `mapstructure:"progress"`

	// StartTime anchors event timestamps; one tick is one minute after it
	StartTime time.Time `mapstructure:"start_time"`

	// region source: a YAML file, the database, or a generated grid
	RegionFile            string          `mapstructure:"region_file"`
	RegionFromDatabase    bool            `mapstructure:"region_from_database"`
	Grid                  GridConfig      `mapstructure:"grid"`
	Vehicles              []VehicleConfig `mapstructure:"vehicles"`
	VehiclesPerRestaurant int             `mapstructure:"vehicles_per_restaurant"`
	VehicleCapacity       float64         `mapstructure:"vehicle_capacity"`
	MenuDishes            []MenuDish      `mapstructure:"menu_dishes"`
	MenuDishFile          string          `mapstructure:"menu_dish_file"`

	Orders OrderGeneratorConfig `mapstructure:"orders"`
	Rating RatingConfig         `mapstructure:"rating"`

	OutputFormat      string             `mapstructure:"output_format"`
	OutputPath        string             `mapstructure:"output_path"`
	OutputFolder      string             `mapstructure:"output_folder"`
	OutputDestination string             `mapstructure:"output_destination"`
	CloudStorage      CloudStorageConfig `mapstructure:"cloud_storage"`

	KafkaEnabled     bool          `mapstructure:"kafka_enabled"`
	KafkaBrokerList  string        `mapstructure:"kafka_broker_list"`
	KafkaTopicPrefix string        `mapstructure:"kafka_topic_prefix"`
	KafkaTimeout     time.Duration `mapstructure:"kafka_timeout"`

	NATSEnabled       bool   `mapstructure:"nats_enabled"`
	NATSURL           string `mapstructure:"nats_url"`
	NATSSubjectPrefix string `mapstructure:"nats_subject_prefix"`

	MQTTEnabled     bool   `mapstructure:"mqtt_enabled"`
	MQTTBroker      string `mapstructure:"mqtt_broker"`
	MQTTClientID    string `mapstructure:"mqtt_client_id"`
	MQTTTopicPrefix string `mapstructure:"mqtt_topic_prefix"`

	Database DatabaseConfig `mapstructure:"database"`
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("seed", 42)
	v.SetDefault("log_level", "info")
	v.SetDefault("simulation_runs", 1)
	v.SetDefault("simulation_length", 500)
	v.SetDefault("ticks_per_second", 0)
	v.SetDefault("delivery_service", "basic")
	v.SetDefault("problem_name", "default")

	v.SetDefault("grid.width", 6)
	v.SetDefault("grid.height", 6)
	v.SetDefault("grid.restaurants", 2)
	v.SetDefault("grid.neighborhoods", 8)
	v.SetDefault("grid.min_duration", 1)
	v.SetDefault("grid.max_duration", 5)
	v.SetDefault("vehicles_per_restaurant", 2)
	v.SetDefault("vehicle_capacity", 1.0)

	v.SetDefault("orders.delivery_interval", 15)
	v.SetDefault("orders.max_weight", 0.5)
	// orders per tick are int(sd*(0.25+N(0,1))/2); 4 gives roughly 0.8 orders per tick
	v.SetDefault("orders.standard_deviation", 4.0)
	v.SetDefault("orders.last_tick", 480)
	v.SetDefault("orders.order_count", 1000)
	v.SetDefault("orders.seed", -1)

	v.SetDefault("rating.amount_delivered_factor", 0.99)
	v.SetDefault("rating.in_time_ignored_ticks_off", 5)
	v.SetDefault("rating.in_time_max_ticks_off", 25)
	v.SetDefault("rating.travel_distance_factor", 0.5)

	v.SetDefault("output_format", "console")
	v.SetDefault("output_folder", "events")
	v.SetDefault("output_destination", "local")
	v.SetDefault("kafka_broker_list", "localhost:9092")
	v.SetDefault("kafka_topic_prefix", "foodroutesim")
	v.SetDefault("kafka_timeout", "30s")
	v.SetDefault("nats_url", "nats://localhost:4222")
	v.SetDefault("nats_subject_prefix", "foodroutesim")
	v.SetDefault("mqtt_broker", "tcp://localhost:1883")
	v.SetDefault("mqtt_client_id", "foodroutesim")
	v.SetDefault("mqtt_topic_prefix", "foodroutesim")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
}

// LoadConfig initializes and reads the configuration using Viper
func LoadConfig(cfgFile string) (*Config, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("examples")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return DecodeConfig(viper.GetViper())
}

// DecodeConfig unmarshals the settings held by v.
func DecodeConfig(v *viper.Viper) (*Config, error) {
	var config Config
	decoderConfigOption := viper.DecoderConfigOption(func(config *mapstructure.DecoderConfig) {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			config.DecodeHook,
			StringToLocationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		)
	})
	if err := v.Unmarshal(&config, decoderConfigOption); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if config.MenuDishFile != "" {
		if err := config.LoadMenuDishData(config.MenuDishFile); err != nil {
			return nil, fmt.Errorf("load menu dishes: %w", err)
		}
	}
	return &config, nil
}

// StringToLocationHookFunc decodes "x,y" strings into a Location.
func StringToLocationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(Location{}) {
			return data, nil
		}
		return ParseLocation(data.(string))
	}
}

func (cfg *Config) LoadMenuDishData(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// header
	if _, err := reader.Read(); err != nil {
		return err
	}

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if len(fields) == 0 || fields[len(fields)-1] == "" {
			continue
		}
		cfg.MenuDishes = append(cfg.MenuDishes, MenuDish{Name: fields[len(fields)-1]})
	}

	return nil
}
