package usecase

import (
	"context"
	"time"
)

const healthCheckTimeout = 3 * time.Second

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

type HealthUsecase interface {
	// Check returns "ok" when every dependency answers, and the per-check
	// outcome keyed by name.
	Check(ctx context.Context) (string, map[string]string)
}

type healthUsecase struct {
	checks map[string]HealthCheck
}

func NewHealthUsecase(checks map[string]HealthCheck) HealthUsecase {
	return &healthUsecase{checks: checks}
}

func (u *healthUsecase) Check(ctx context.Context) (string, map[string]string) {
	status := "ok"
	out := make(map[string]string, len(u.checks))
	for name, check := range u.checks {
		cctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := check(cctx)
		cancel()
		if err != nil {
			out[name] = err.Error()
			status = "degraded"
			continue
		}
		out[name] = "ok"
	}
	return status, out
}
