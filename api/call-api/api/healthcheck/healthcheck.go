package healthcheck_api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
	"github.com/expertdial/pkg/connectors"
)

// HealthCheckApi answers liveness and readiness probes. postgres is nil
// when the service runs with the in-memory summary store.
type HealthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector) *HealthCheckApi {
	return &HealthCheckApi{cfg: cfg, logger: logger, postgres: postgres}
}

// Healthz reports process liveness.
func (hApi *HealthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": hApi.cfg.Name,
		"version": hApi.cfg.Version,
	})
}

// Readiness reports whether the service can take calls, including its
// backing store when one is configured.
func (hApi *HealthCheckApi) Readiness(c *gin.Context) {
	if hApi.postgres != nil {
		if err := hApi.postgres.Ping(c.Request.Context()); err != nil {
			hApi.logger.Errorf("readiness check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
