// Package modkit carries the shared dependencies modules are built from
package modkit

import (
	"opengov/internal/modkit/repokit"
	"opengov/internal/platform/config"
	"opengov/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Deps is wiring only: what main hands to every module constructor
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner

	// RDS is optional; nil means single-process coordination only
	RDS redis.UniversalClient
}
