package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/repositories"
	"github.com/chrisdamba/foodroutesim/internal/repositories/postgres"
	"github.com/chrisdamba/foodroutesim/internal/simulator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "foodroutesim",
	Short: "Simulates food delivery vehicles on a city graph",
	Long: `foodroutesim is a tick-based simulation of delivery vehicles carrying orders from
restaurants to neighborhoods over a weighted street graph. Each run is rated on
delivered amount, punctuality and travel distance, and every event can be streamed
to files, Kafka, NATS, MQTT or Postgres.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return run(ctx, cfg)
	},
}

var saveRegionCmd = &cobra.Command{
	Use:   "save-region",
	Short: "Stores the configured region in the database under the problem name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Database.Enabled {
			return fmt.Errorf("save-region needs database.enabled")
		}
		ctx := cmd.Context()
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()

		cfg.RegionFromDatabase = false
		problem, err := simulator.NewProblem(ctx, cfg, nil)
		if err != nil {
			return err
		}
		if err := postgres.NewRegionRepository(pool).Save(ctx, cfg.ProblemName, problem.Manager.Region()); err != nil {
			return err
		}
		logrus.WithField("region", cfg.ProblemName).Info("region saved")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	flags := rootCmd.PersistentFlags()
	flags.Int64("seed", 42, "Random seed for generated regions")
	flags.Int("runs", 1, "Number of simulation runs")
	flags.Int64("ticks", 500, "Ticks per run")
	flags.Float64("ticks-per-second", 0, "Real-time pacing, 0 runs as fast as possible")
	flags.Float64("orders-sd", 4, "Standard deviation of the friday order count per tick")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("problem", "default", "Problem name, also the database region name")
	flags.String("region-file", "", "YAML region file (default is a generated grid)")
	flags.Bool("region-from-database", false, "Load the region from the database")
	flags.String("delivery-service", "basic", "Delivery service implementation")
	flags.String("output-format", "console", "Output format (console, json, csv, parquet, none)")
	flags.String("output-path", "", "Output base path for file formats")
	flags.Bool("kafka-enabled", false, "Enable Kafka output")
	flags.String("kafka-broker-list", "localhost:9092", "Kafka broker list")
	flags.Bool("nats-enabled", false, "Enable NATS output")
	flags.String("nats-url", "nats://localhost:4222", "NATS server URL")
	flags.Bool("mqtt-enabled", false, "Enable MQTT output")
	flags.String("mqtt-broker", "tcp://localhost:1883", "MQTT broker URL")
	flags.Bool("progress", false, "Show a progress bar over the runs")

	bindings := map[string]string{
		"seed":                 "seed",
		"runs":                 "simulation_runs",
		"ticks":                "simulation_length",
		"ticks-per-second":     "ticks_per_second",
		"orders-sd":            "orders.standard_deviation",
		"log-level":            "log_level",
		"problem":              "problem_name",
		"region-file":          "region_file",
		"region-from-database": "region_from_database",
		"delivery-service":     "delivery_service",
		"output-format":        "output_format",
		"output-path":          "output_path",
		"kafka-enabled":        "kafka_enabled",
		"kafka-broker-list":    "kafka_broker_list",
		"nats-enabled":         "nats_enabled",
		"nats-url":             "nats_url",
		"mqtt-enabled":         "mqtt_enabled",
		"mqtt-broker":          "mqtt_broker",
		"progress":             "progress",
	}
	for flag, key := range bindings {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(flag)))
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	rootCmd.AddCommand(saveRegionCmd)
}

func loadConfig() (*models.Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	cfg, err := models.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	logrus.SetLevel(level)
	if used := viper.ConfigFileUsed(); used != "" {
		logrus.WithField("file", used).Info("using config file")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *models.Config) error {
	var (
		events  repositories.EventRepository
		ratings repositories.RatingRepository
		regions repositories.RegionRepository
	)
	if cfg.Database.Enabled {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		events = postgres.NewEventRepository(pool)
		ratings = postgres.NewRatingRepository(pool)
		regions = postgres.NewRegionRepository(pool)
	}

	problem, err := simulator.NewProblem(ctx, cfg, regions)
	if err != nil {
		return err
	}

	output, err := simulator.NewOutputDestination(ctx, cfg, events)
	if err != nil {
		return err
	}
	defer func() {
		if err := output.Close(); err != nil {
			logrus.WithError(err).Error("failed to close output")
		}
	}()

	opts := []simulator.SimulationOption{simulator.WithTicksPerSecond(cfg.TicksPerSecond)}
	if !cfg.StartTime.IsZero() {
		opts = append(opts, simulator.WithStartTime(cfg.StartTime))
	}
	sim := simulator.NewSimulation(problem, output, opts...)

	var runnerOpts []simulator.RunnerOption
	if ratings != nil {
		runnerOpts = append(runnerOpts, simulator.WithRatingRepository(ratings))
	}
	if cfg.Progress {
		runnerOpts = append(runnerOpts, simulator.WithProgress(os.Stderr))
	}

	summary, err := simulator.NewRunner(sim, cfg.SimulationRuns, cfg.SimulationLength, runnerOpts...).Run(ctx)
	if err != nil {
		return err
	}
	for criteria, avg := range summary.Averages {
		fmt.Fprintf(os.Stderr, "%-18s %.4f\n", criteria, avg)
	}
	return nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
