// Package config loads the service configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Default()
//  2. a YAML file (SHORTWATCH_CONFIG, else config.yaml or configs/config.yaml)
//  3. environment variables prefixed SHORTWATCH_
//
// Nested sections map to underscored names:
//
//	SHORTWATCH_SERVER_PORT=8080
//	SHORTWATCH_DATA_SOURCE=https://example.com/data/master-dashboard.json
//	SHORTWATCH_DATA_S3_REGION=ap-northeast-2
//	SHORTWATCH_DASHBOARD_SEARCH_DEBOUNCE=300ms
//	SHORTWATCH_LOGGING_LEVEL=debug
//
// Load validates the result; an invalid configuration is a startup error.
package config
