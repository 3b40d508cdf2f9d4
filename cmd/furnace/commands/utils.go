/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the furnace commands. Provides configuration loading,
logging setup and input helpers used across all command implementations.
*/

package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kleascm/furnace/pkg/jsonvalue"
	"github.com/kleascm/furnace/pkg/logging"
	"github.com/kleascm/furnace/pkg/melt"
	"github.com/kleascm/furnace/pkg/stream"
	"github.com/spf13/viper"
)

// Settings is the merged view of flags, environment and config file
type Settings struct {
	Melt        melt.Config          `mapstructure:"melt"`
	Log         logging.LoggerConfig `mapstructure:"log"`
	Framing     string               `mapstructure:"framing"`
	MaxSkipped  int                  `mapstructure:"max_skipped"`
	NoParentIDs bool                 `mapstructure:"no_parent_ids"`
}

// LoadConfig loads configuration from files and environment
func LoadConfig() (*Settings, error) {
	// Set config file if specified
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// FURNACE_MELT_MAX_DEPTH overrides melt.max_depth
	viper.SetEnvPrefix("FURNACE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	settings := &Settings{
		Melt:    melt.DefaultConfig(),
		Log:     *logging.DefaultLoggerConfig(),
		Framing: "auto",
	}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if settings.NoParentIDs {
		settings.Melt.IncludeParentIDs = false
	}
	settings.Melt = settings.Melt.WithScalarFields(settings.Melt.ScalarFields...)

	return settings, nil
}

// SetupLogging configures the logging system
func SetupLogging(settings *Settings) (*logging.Logger, error) {
	logger, err := logging.NewLogger(&settings.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// openInput opens the single optional FILE argument, defaulting to stdin
func openInput(args []string) (*stream.FileSource, error) {
	path := "-"
	if len(args) > 0 {
		path = args[0]
	}
	src, err := stream.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return src, nil
}

// sampleRecords feeds up to limit well-formed records to consume.
// Malformed NDJSON lines are passed to skipped and do not count toward limit.
func sampleRecords(src io.Reader, settings *Settings, limit int, consume func(jsonvalue.Value) error, skipped func(*stream.MalformedInputError)) (int, error) {
	framing, err := stream.ParseFraming(settings.Framing)
	if err != nil {
		return 0, err
	}
	reader, _, err := stream.NewRecordReader(src, framing)
	if err != nil {
		return 0, err
	}

	read := 0
	for read < limit {
		v, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var malformed *stream.MalformedInputError
		if errors.As(err, &malformed) && !malformed.Terminal {
			skipped(malformed)
			continue
		}
		if err != nil {
			return read, err
		}
		if err := consume(v); err != nil {
			return read, err
		}
		read++
	}
	return read, nil
}
