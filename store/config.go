package store

import (
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Config holds configuration for the Store.
type Config struct {
	// ReadCapacity is the provisioned read capacity for tables created by Provision.
	// Default: 10
	ReadCapacity int64

	// WriteCapacity is the provisioned write capacity for tables created by Provision.
	// Default: 5
	WriteCapacity int64

	// BillingMode selects provisioned or on-demand tables.
	// Capacity units are ignored for types.BillingModePayPerRequest.
	// Default: types.BillingModeProvisioned
	BillingMode types.BillingMode

	// ScanLimit caps the items evaluated per scan page (0 = store default, ~1MB).
	ScanLimit int32

	// ConsistentReads requests strongly consistent GetItem and Scan.
	// Default: true (see DefaultConfig)
	ConsistentReads bool

	// Logger receives provisioning diagnostics. nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the baseline used by the portal tables.
func DefaultConfig() Config {
	return Config{
		ReadCapacity:    10,
		WriteCapacity:   5,
		BillingMode:     types.BillingModeProvisioned,
		ConsistentReads: true,
	}
}

// validate ensures config values are within acceptable bounds.
func (c *Config) validate() {
	if c.ReadCapacity < 1 {
		c.ReadCapacity = 10
	}
	if c.WriteCapacity < 1 {
		c.WriteCapacity = 5
	}
	if c.BillingMode == "" {
		c.BillingMode = types.BillingModeProvisioned
	}
	if c.ScanLimit < 0 {
		c.ScanLimit = 0
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
