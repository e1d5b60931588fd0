package service

import (
	"context"

	"smart-gateway-be/internal/dto"
	"smart-gateway-be/pkg/health"
)

type IHealthService interface {
	Check(ctx context.Context) *dto.HealthResponse
}

type healthService struct {
	aggregator *health.Aggregator
}

func NewHealthService(aggregator *health.Aggregator) IHealthService {
	return &healthService{aggregator: aggregator}
}

func (s *healthService) Check(ctx context.Context) *dto.HealthResponse {
	status := s.aggregator.Aggregate(ctx)

	resp := &dto.HealthResponse{
		Status: status.Status,
		Checks: make(map[string]dto.HealthCheckDTO, len(status.Checks)),
	}
	for name, c := range status.Checks {
		resp.Checks[name] = dto.HealthCheckDTO{
			Healthy:   c.Healthy,
			LatencyMs: c.LatencyMS,
			Error:     c.Error,
		}
	}
	return resp
}
