package bundle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/printhaus/storefront-api/internal/cache"
	"github.com/printhaus/storefront-api/internal/catalog"
	"github.com/printhaus/storefront-api/internal/common"
	"github.com/printhaus/storefront-api/internal/lock"
	"github.com/printhaus/storefront-api/internal/pricing"
)

type store interface {
	ListBundles(ctx context.Context, regionID uuid.UUID) ([]Bundle, error)
	GetBundle(ctx context.Context, id uuid.UUID, regionID uuid.UUID) (*Bundle, error)
}

type regionSource interface {
	GetRegion(ctx context.Context, id uuid.UUID) (catalog.Region, error)
}

// Service assembles bundle listings and details decorated with the cheapest
// item price for the requested region.
type Service struct {
	store   store
	regions regionSource
	cache   *cache.Cache
	locker  *lock.Locker
	lockTTL time.Duration
	logger  zerolog.Logger
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store   store
	Regions regionSource
	Cache   *cache.Cache
	Locker  *lock.Locker
	LockTTL time.Duration
	Logger  zerolog.Logger
}

// Card is the listing shape: the bundle plus its teaser price, if any.
type Card struct {
	Bundle
	CheapestPrice *pricing.View `json:"cheapestPrice,omitempty"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("bundle: store is required")
	}
	if cfg.Regions == nil {
		return nil, errors.New("bundle: region source is required")
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Second
	}
	return &Service{
		store:   cfg.Store,
		regions: cfg.Regions,
		cache:   cfg.Cache,
		locker:  cfg.Locker,
		lockTTL: lockTTL,
		logger:  cfg.Logger,
	}, nil
}

// List returns all published bundles as cards for the region. The assembled
// listing is cached; on a miss the rebuild runs under a distributed lock so
// concurrent cold starts hit Postgres once.
func (s *Service) List(ctx context.Context, regionID uuid.UUID) ([]Card, error) {
	region, err := s.regions.GetRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}

	key := cache.KeyBundleList(regionID)
	var cached []Card
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}

	var cards []Card
	rebuild := func(ctx context.Context) error {
		// Another instance may have filled the cache while this one waited
		// for the lock.
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			cards = cached
			return nil
		}
		bundles, err := s.store.ListBundles(ctx, regionID)
		if err != nil {
			return fmt.Errorf("list bundles: %w", err)
		}
		cards = make([]Card, 0, len(bundles))
		for i := range bundles {
			card, err := s.buildCard(&bundles[i], region)
			if err != nil {
				return err
			}
			cards = append(cards, card)
		}
		if err := s.cache.SetJSON(ctx, key, cards); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("bundle_list_cache_set_failed")
		}
		return nil
	}

	if s.locker != nil {
		err = s.locker.WithLock(ctx, cache.LockBundleList(regionID), s.lockTTL, rebuild)
	} else {
		err = rebuild(ctx)
	}
	if err != nil {
		return nil, err
	}
	return cards, nil
}

// Get returns one bundle card by identity for the region.
func (s *Service) Get(ctx context.Context, id uuid.UUID, regionID uuid.UUID) (*Card, error) {
	region, err := s.regions.GetRegion(ctx, regionID)
	if err != nil {
		return nil, err
	}
	b, err := s.store.GetBundle(ctx, id, regionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &common.AppError{
				Code:       common.CodeNotFound,
				Message:    "bundle not found",
				HTTPStatus: http.StatusNotFound,
				Err:        err,
			}
		}
		return nil, err
	}
	card, err := s.buildCard(b, region)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *Service) buildCard(b *Bundle, region catalog.Region) (Card, error) {
	view, err := CheapestPrice(b, region.CurrencyCode, region.Locale)
	if err != nil {
		return Card{}, err
	}
	return Card{Bundle: *b, CheapestPrice: view}, nil
}
