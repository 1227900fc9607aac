package table

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacentio/lattice/internal/backoff"
)

// Config holds configuration for a Table.
type Config struct {
	// Name is the DynamoDB table name. Required.
	Name string

	// Logger receives structured operation logs. Default: slog.Default().
	Logger *slog.Logger

	// Retry bounds the backoff loop wrapped around every store call.
	// Zero values get the backoff package defaults.
	Retry backoff.Config

	// Registerer enables per-operation Prometheus metrics when non-nil.
	// Tables sharing a Registerer share the underlying collectors.
	Registerer prometheus.Registerer
}

// validate applies defaults in place.
func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Retry.Validate()
}
