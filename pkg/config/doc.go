// Package config loads p95status settings.
//
// Sources are applied in order, later ones winning:
//
//  1. DefaultConfig
//  2. a YAML file (--config, .p95status.yaml, ~/.config/p95status/config.yaml)
//  3. .env files loaded with godotenv, then P95STATUS_* environment variables
//  4. command line flags the user set explicitly
//
// Environment variables:
//
//	P95STATUS_DIRECTORY       directory to scan
//	P95STATUS_PATTERN         save file name pattern (regular expression)
//	P95STATUS_WORKERS         decoder workers
//	P95STATUS_FORMAT          report format: text or table
//	P95STATUS_MAX_FAILURES    failed files listed before summarising (0 = all)
//	P95STATUS_EXPORT          export file path
//	P95STATUS_EXPORT_FORMAT   json, yaml or msgpack
//	P95STATUS_DEBOUNCE        watch mode debounce, e.g. 2s
//	P95STATUS_NOTIFICATIONS   desktop notifications in watch mode (true/false)
//	P95STATUS_LOG_LEVEL       debug, info, warn, error
//	P95STATUS_LOG_FILE        also write logs to this file
//	NO_COLOR                  disable ANSI colors when set
package config
