package server

import (
	"context"
	"errors"

	"github.com/vanshika/geosocial/backend/internal/graph"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is satisfied by the document store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealthService verifies the document store is reachable.
type StoreHealthService struct {
	Store Pinger
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Ping(ctx)
}

// GraphHealthService verifies graph connectivity as part of health checks.
type GraphHealthService struct {
	Client graph.Client
}

// Probe implements the HealthService interface.
func (s GraphHealthService) Probe(ctx context.Context) error {
	if s.Client == nil {
		return nil
	}
	return s.Client.VerifyConnectivity(ctx)
}

// HealthServices runs every probe and joins their failures.
type HealthServices []HealthService

// Probe implements the HealthService interface.
func (hs HealthServices) Probe(ctx context.Context) error {
	var errs []error
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := h.Probe(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
