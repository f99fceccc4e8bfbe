// Package config provides YAML configuration loading and validation for the
// service. API keys left empty in the file fall back to environment variables;
// a missing key starts the service in degraded mode rather than failing load.
package config
