// Package config loads the application configuration.
//
// Values are resolved in increasing order of precedence:
//
//	1. Defaults (see Default)
//	2. A YAML file named by ENERLYTICS_CONFIG, or config.yaml in the working directory
//	3. Environment variables, optionally seeded from a .env file
//
// Environment variables follow the pattern ENERLYTICS_<SECTION>_<FIELD>:
//
//	ENERLYTICS_SERVER_PORT=8080
//	ENERLYTICS_LOGGING_LEVEL=debug
//	ENERLYTICS_ANALYSIS_EXPORT_DIR=/var/lib/enerlytics/exports
//	ENERLYTICS_RATE_LIMIT_RPS=50
package config
