package sigpac

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cuaderno/pkg/cache"
	"cuaderno/pkg/geo"
)

// Service wraps the client with validation and caching.
type Service struct {
	client Client
	cache  cache.Cache
	ttl    time.Duration
	log    *zap.Logger
}

func NewService(client Client, c cache.Cache, ttl time.Duration, log *zap.Logger) *Service {
	return &Service{client: client, cache: c, ttl: ttl, log: log}
}

func (s *Service) Recinto(ctx context.Context, raw string) (*Recinto, error) {
	ref, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, s.cache, s.log, "sigpac:recinto:"+ref.String(), s.ttl, func(ctx context.Context) (*Recinto, error) {
		return s.client.Recinto(ctx, ref)
	})
}

func (s *Service) ByPoint(ctx context.Context, p geo.Point) (Referencia, error) {
	if err := p.Validate(); err != nil {
		return Referencia{}, err
	}
	key := fmt.Sprintf("sigpac:punto:%.5f:%.5f", p.Lat, p.Lng)
	return cache.Fetch(ctx, s.cache, s.log, key, s.ttl, func(ctx context.Context) (Referencia, error) {
		return s.client.ByPoint(ctx, p)
	})
}
