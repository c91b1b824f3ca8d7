package app

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker struct {
	infra Infrastructure
}

func NewHealthChecker(infra Infrastructure) *HealthChecker {
	return &HealthChecker{
		infra: infra,
	}
}

// check pings every backing store; statuses maps each dependency to "pass" or the error
func (h *HealthChecker) check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var postgresErr, redisErr error
	var g errgroup.Group
	g.Go(func() error {
		postgresErr = h.infra.Postgres().Ping(ctx)
		return nil
	})
	g.Go(func() error {
		redisErr = h.infra.Redis().Ping(ctx)
		return nil
	})
	_ = g.Wait()

	statuses := map[string]string{
		"postgres": status(postgresErr),
		"redis":    status(redisErr),
	}
	return statuses, postgresErr == nil && redisErr == nil
}

func status(err error) string {
	if err != nil {
		return err.Error()
	}
	return "pass"
}

func (h *HealthChecker) Handler(c *gin.Context) {
	checks, ok := h.check(c.Request.Context())
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"checks": checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "pass",
		"checks": checks,
	})
}
