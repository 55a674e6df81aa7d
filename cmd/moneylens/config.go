package main

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/moneylens/pkg/environment"
	"github.com/dmitrymomot/moneylens/pkg/httpserver"
)

// Storage drivers.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"
)

// Billing providers.
const (
	ProviderStripe = "stripe"
	ProviderPaddle = "paddle"
)

var (
	ErrUnknownStorageDriver   = errors.New("unknown storage driver")
	ErrUnknownBillingProvider = errors.New("unknown billing provider")
	ErrMemoryStoreInProd      = errors.New("memory storage is not allowed in production")
)

// AppConfig is the process configuration. Driver specific settings
// (pg.Config, mongo.Config, redis.Config, provider keys) are loaded only
// when the driver is selected, so their required variables stay optional.
type AppConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"moneylens"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver   string `env:"STORAGE_DRIVER" envDefault:"memory"`
	BillingProvider string `env:"BILLING_PROVIDER" envDefault:"stripe"`
	AutoMigrate     bool   `env:"PG_AUTO_MIGRATE" envDefault:"false"`

	Currency           string `env:"CURRENCY" envDefault:"GBP"`
	PlansFile          string `env:"PLANS_FILE"`
	CheckoutSuccessURL string `env:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL  string `env:"CHECKOUT_CANCEL_URL"`

	ReturnRedirectEnabled bool          `env:"ENTITLEMENT_RETURN_REDIRECT_ENABLED" envDefault:"true"`
	LedgerEnabled         bool          `env:"LEDGER_ENABLED" envDefault:"false"`
	LedgerTTL             time.Duration `env:"LEDGER_TTL" envDefault:"72h"`

	HealthCheckTimeout time.Duration `env:"HEALTHCHECK_TIMEOUT" envDefault:"2s"`

	HTTP httpserver.Config
}

// Validate checks the driver selections.
func (c *AppConfig) Validate() error {
	if !slices.Contains([]string{StorageMemory, StoragePostgres, StorageMongo}, c.StorageDriver) {
		return fmt.Errorf("%w: %q", ErrUnknownStorageDriver, c.StorageDriver)
	}
	if !slices.Contains([]string{ProviderStripe, ProviderPaddle}, c.BillingProvider) {
		return fmt.Errorf("%w: %q", ErrUnknownBillingProvider, c.BillingProvider)
	}
	if c.StorageDriver == StorageMemory && environment.Parse(c.Env) == environment.Production {
		return ErrMemoryStoreInProd
	}
	return nil
}
