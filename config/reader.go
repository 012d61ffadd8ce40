package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/touchsense/logging"
	"go.viam.com/touchsense/resource"
)

// Read reads a config from the given file. Environment variables in the file are expanded.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(ctx, filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	unprocessedConfig := Config{
		ConfigFilePath: originalPath,
	}
	if err := json.NewDecoder(r).Decode(&unprocessedConfig); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg, err := processConfig(ctx, &unprocessedConfig, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	return cfg, nil
}

// processConfig converts the attributes of every registered component into its native config and
// validates the result.
func processConfig(ctx context.Context, cfg *Config, logger logging.Logger) (*Config, error) {
	for idx, conf := range cfg.Components {
		resName := conf.ResourceName()
		reg, ok := resource.LookupRegistration(resName.API, conf.Model)
		if !ok || reg.AttributeMapConverter == nil {
			logger.CWarnw(ctx, "no registration found for component, leaving attributes unconverted",
				"name", conf.Name, "api", resName.API, "model", conf.Model)
			continue
		}

		converted, err := reg.AttributeMapConverter(conf.Attributes)
		if err != nil {
			return nil, errors.Wrapf(err, "error converting attributes for (%s, %s)", resName.API, conf.Model)
		}
		cfg.Components[idx].ConvertedAttributes = converted
	}

	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}
