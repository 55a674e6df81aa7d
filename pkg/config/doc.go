// Package config loads application configuration from environment variables.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tag parsing). Each config type is parsed
// once and cached for the life of the process; structs implementing Validator
// are checked before they are cached, so an invalid combination such as a
// Stripe provider without a webhook secret stops the service at start-up.
//
//	if err := config.LoadEnv(envFile); err != nil { // optional, e.g. --env-file
//		return err
//	}
//
//	var cfg AppConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Errors wrap ErrParsingConfig, ErrInvalidConfig or ErrLoadingEnvFile and can
// be inspected with errors.Is. ResetCache forces the next Load to parse again.
package config
