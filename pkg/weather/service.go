package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cuaderno/pkg/cache"
	"cuaderno/pkg/geo"
)

const (
	DefaultDays = 5
	MaxDays     = 7
)

// Service queries the providers in order, falling back on failure, and
// caches the first successful answer.
type Service struct {
	providers []Provider
	cache     cache.Cache
	ttl       time.Duration
	rules     Thresholds
	log       *zap.Logger
}

func NewService(providers []Provider, c cache.Cache, ttl time.Duration, rules Thresholds, log *zap.Logger) *Service {
	return &Service{providers: providers, cache: c, ttl: ttl, rules: rules, log: log}
}

// Providers builds the provider chain from the configured keys; the mock is
// always last.
func Providers(aemetBase, aemetKey, owBase, owKey string) []Provider {
	var ps []Provider
	if aemetKey != "" {
		ps = append(ps, NewAEMET(aemetBase, aemetKey))
	}
	if owKey != "" {
		ps = append(ps, NewOpenWeather(owBase, owKey))
	}
	return append(ps, NewMock())
}

func (s *Service) Rules() Thresholds { return s.rules }

func cacheKey(kind string, loc Location, extra int) string {
	return fmt.Sprintf("weather:%s:%.3f:%.3f:%s:%d", kind, loc.Lat, loc.Lng, loc.Municipio, extra)
}

func try[T any](ctx context.Context, s *Service, call func(Provider) (T, error)) (T, error) {
	var zero T
	var errs []error
	for _, p := range s.providers {
		v, err := call(p)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrUnsupportedLocation) {
			s.log.Warn("weather provider failed", zap.String("provider", p.Name()), zap.Error(err))
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return zero, errors.New("no hay proveedores meteorológicos configurados")
	}
	return zero, errors.Join(errs...)
}

func (s *Service) Current(ctx context.Context, loc Location) (*Current, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, s.cache, s.log, cacheKey("current", loc, 0), s.ttl, func(ctx context.Context) (*Current, error) {
		return try(ctx, s, func(p Provider) (*Current, error) { return p.Current(ctx, loc) })
	})
}

func (s *Service) Forecast(ctx context.Context, loc Location, days int) (*Forecast, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		days = MaxDays
	}
	return cache.Fetch(ctx, s.cache, s.log, cacheKey("forecast", loc, days), s.ttl, func(ctx context.Context) (*Forecast, error) {
		return try(ctx, s, func(p Provider) (*Forecast, error) { return p.Forecast(ctx, loc, days) })
	})
}

// Alerts evaluates the rules over the forecast at loc.
func (s *Service) Alerts(ctx context.Context, loc Location, days int) ([]Alert, *Forecast, error) {
	f, err := s.Forecast(ctx, loc, days)
	if err != nil {
		return nil, nil, err
	}
	return s.rules.Evaluate(f), f, nil
}

// Snapshot summarises current conditions in one line, for the
// condiciones_meteo field of an actividad.
func (s *Service) Snapshot(ctx context.Context, p geo.Point) (string, error) {
	c, err := s.Current(ctx, Location{Point: p})
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("%.1f °C, humedad %.0f%%, viento %.0f km/h", c.Temperatura, c.Humedad, c.VientoKmh)
	if c.Descripcion != "" {
		out += ", " + c.Descripcion
	}
	return out + " (" + c.Fuente + ")", nil
}
