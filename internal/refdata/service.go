package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKeyTypes      = "atlas:refdata:dimension_types"
	cacheKeyValues     = "atlas:refdata:dimension_values"
	cacheKeyCurrencies = "atlas:refdata:currencies"
	cacheKeyTaxRates   = "atlas:refdata:tax_rates"
)

// Service serves reference data through a Redis read cache. Cache
// fills are singleflight-protected so a cold key triggers one query.
type Service struct {
	repo   Repository
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

func NewService(repo Repository, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache != nil {
		payload, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var out []T
			if err := json.Unmarshal(payload, &out); err == nil {
				return out, nil
			}
		} else if !errors.Is(err, redis.Nil) && s.logger != nil {
			s.logger.Warn("refdata cache read", slog.String("key", key), slog.Any("error", err))
		}
	}
	result, err, _ := s.group.Do(key, func() (any, error) {
		items, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			if data, err := json.Marshal(items); err == nil {
				if err := s.cache.Set(ctx, key, data, s.ttl).Err(); err != nil && s.logger != nil {
					s.logger.Warn("refdata cache write", slog.String("key", key), slog.Any("error", err))
				}
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]T), nil
}

func (s *Service) DimensionTypes(ctx context.Context) ([]DimensionType, error) {
	return cached(ctx, s, cacheKeyTypes, s.repo.ListDimensionTypes)
}

func (s *Service) DimensionValues(ctx context.Context, typeID int64) ([]DimensionValue, error) {
	all, err := cached(ctx, s, cacheKeyValues, func(ctx context.Context) ([]DimensionValue, error) {
		return s.repo.ListDimensionValues(ctx, 0)
	})
	if err != nil {
		return nil, err
	}
	if typeID == 0 {
		return all, nil
	}
	var filtered []DimensionValue
	for _, v := range all {
		if v.TypeID == typeID {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

func (s *Service) Currencies(ctx context.Context) ([]Currency, error) {
	return cached(ctx, s, cacheKeyCurrencies, s.repo.ListCurrencies)
}

func (s *Service) TaxRates(ctx context.Context) ([]TaxRate, error) {
	return cached(ctx, s, cacheKeyTaxRates, s.repo.ListTaxRates)
}

// Lookup assembles a point-in-time snapshot of all reference lists.
func (s *Service) Lookup(ctx context.Context) (Lookup, error) {
	types, err := s.DimensionTypes(ctx)
	if err != nil {
		return Lookup{}, err
	}
	values, err := s.DimensionValues(ctx, 0)
	if err != nil {
		return Lookup{}, err
	}
	currencies, err := s.Currencies(ctx)
	if err != nil {
		return Lookup{}, err
	}
	rates, err := s.TaxRates(ctx)
	if err != nil {
		return Lookup{}, err
	}
	return NewLookup(types, values, currencies, rates), nil
}

// Invalidate drops all cached reference lists.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, cacheKeyTypes, cacheKeyValues, cacheKeyCurrencies, cacheKeyTaxRates).Err()
}
