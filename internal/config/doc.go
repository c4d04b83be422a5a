// Package config provides centralized configuration for the explorer.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later ones
// overriding earlier ones:
//
//	1. Default values (Default)
//	2. A YAML file: $EXPLORER_CONFIG, config.yaml or configs/config.yaml
//	3. Environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// All environment variables use the EXPLORER_ prefix followed by the
// section and field name:
//
//	EXPLORER_SERVER_PORT=8080
//	EXPLORER_DATASETS_SOURCE=http
//	EXPLORER_DATASETS_BASE_URL=https://example.org/data
//	EXPLORER_AGGREGATION_THRESHOLD_PERCENT=1
//	EXPLORER_EXPORT_SQL_DRIVER=postgres
//	EXPLORER_EXPORT_DSN=postgres://...
//
// # Paths
//
// Relative paths resolve against Paths.BaseDir (the working directory when
// unset):
//
//	paths, err := cfg.ResolvePaths()
//	src := paths.DataFile(cfg.Datasets.EVFile)
//
// # Testing
//
// Use Default() for a configuration that needs no environment or files.
package config
