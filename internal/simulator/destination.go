package simulator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chrisdamba/foodroutesim/internal/cloudwriter"
	"github.com/chrisdamba/foodroutesim/internal/models"
	"github.com/chrisdamba/foodroutesim/internal/repositories"
	"github.com/chrisdamba/foodroutesim/internal/simulator/producers"
)

// NewOutputDestination builds every sink enabled in cfg. The file format
// sink and the brokers can be combined; events is optional and adds the
// Postgres sink when the database is enabled.
func NewOutputDestination(ctx context.Context, cfg *models.Config, events repositories.EventRepository) (OutputDestination, error) {
	var outputs []OutputDestination
	fail := func(err error) (OutputDestination, error) {
		if closeErr := NewMultiOutput(outputs...).Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}

	switch cfg.OutputFormat {
	case "", "console":
		outputs = append(outputs, NewConsoleOutput(os.Stdout))
	case "none":
	case "json", "csv", "parquet":
		output, err := newFileOutput(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		outputs = append(outputs, output)
	default:
		return fail(fmt.Errorf("unsupported output format: %s", cfg.OutputFormat))
	}

	if cfg.KafkaEnabled {
		producer, err := producers.NewSaramaProducer(cfg)
		if err != nil {
			return fail(err)
		}
		outputs = append(outputs, producer)
	}
	if cfg.NATSEnabled {
		output, err := NewNATSOutput(ctx, cfg.NATSURL, cfg.NATSSubjectPrefix)
		if err != nil {
			return fail(err)
		}
		outputs = append(outputs, output)
	}
	if cfg.MQTTEnabled {
		output, err := NewMQTTOutput(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTTopicPrefix)
		if err != nil {
			return fail(err)
		}
		outputs = append(outputs, output)
	}
	if cfg.Database.Enabled && events != nil {
		outputs = append(outputs, NewPostgresOutput(ctx, events, 0))
	}

	switch len(outputs) {
	case 0:
		return fail(errors.New("no output destination configured"))
	case 1:
		return outputs[0], nil
	default:
		return NewMultiOutput(outputs...), nil
	}
}

func newFileOutput(ctx context.Context, cfg *models.Config) (OutputDestination, error) {
	if cfg.OutputDestination != "" && cfg.OutputDestination != "local" {
		if cfg.OutputFormat != "parquet" {
			return nil, fmt.Errorf("output destination %s only supports parquet", cfg.OutputDestination)
		}
		var factory cloudwriter.CloudWriterFactory
		switch cfg.CloudStorage.Provider {
		case "s3":
			s3Factory, err := cloudwriter.NewS3WriterFactory(ctx, cfg.CloudStorage.Region, cfg.CloudStorage.Endpoint)
			if err != nil {
				return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
			}
			factory = s3Factory
		default:
			return nil, fmt.Errorf("unsupported cloud storage provider: %s", cfg.CloudStorage.Provider)
		}
		return NewParquetOutput("", cfg.OutputFolder, factory, cfg.CloudStorage.BucketName), nil
	}

	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("output format %s needs an output path", cfg.OutputFormat)
	}
	switch cfg.OutputFormat {
	case "parquet":
		return NewParquetOutput(cfg.OutputPath, cfg.OutputFolder, nil, ""), nil
	case "json":
		return NewJSONOutput(cfg.OutputPath, cfg.OutputFolder), nil
	default:
		return NewCSVOutput(cfg.OutputPath, cfg.OutputFolder), nil
	}
}
