// Package config loads strategykit configuration with Viper.
//
// Values are read from a YAML file (cmd/<service>/config.yml by default),
// then overridden by environment variables prefixed with the upper-cased
// service name. A .env file, when present, is loaded with godotenv before
// the environment is bound.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("strategyc", &cfg, config.WithConfigFile(path))
//
// STRATEGYC_LEDGER_URL overrides ledger.url.
package config
