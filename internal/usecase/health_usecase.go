package usecase

import (
	"context"
	"time"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthUsecase interface {
	Check(ctx context.Context) (map[string]string, bool)
}

type healthUsecase struct {
	checks map[string]HealthCheck
}

func NewHealthUsecase(checks map[string]HealthCheck) HealthUsecase {
	return &healthUsecase{checks: checks}
}

// Check runs every registered check with a short timeout. The bool is false
// when any dependency is down.
func (u *healthUsecase) Check(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok"}
	healthy := true
	for name, check := range u.checks {
		if err := check(ctx); err != nil {
			status[name] = "down"
			healthy = false
			continue
		}
		status[name] = "up"
	}
	if !healthy {
		status["status"] = "degraded"
	}
	return status, healthy
}
