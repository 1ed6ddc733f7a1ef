package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/printhaus/storefront-api/internal/cache"
	"github.com/printhaus/storefront-api/internal/common"
)

type store interface {
	ListProducts(ctx context.Context, f ListFilter) ([]ListItem, int64, error)
	GetProductByHandle(ctx context.Context, handle string, regionID uuid.UUID) (*Product, error)
	GetProductByID(ctx context.Context, id uuid.UUID, regionID uuid.UUID) (*Product, error)
	ListRegions(ctx context.Context) ([]Region, error)
	GetRegion(ctx context.Context, id uuid.UUID) (Region, error)
}

// Service orchestrates catalog queries, DTO assembly, and caching.
type Service struct {
	store        store
	cache        *cache.Cache
	defaultPage  int
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        store
	Cache        *cache.Cache
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// ListParams captures filters for product listing.
type ListParams struct {
	Query string
	Page  int
	Limit int
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []ListItem
	Total int64
	Page  int
	Limit int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultPage := cfg.DefaultPage
	if defaultPage < 1 {
		defaultPage = 1
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		defaultPage:  defaultPage,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// ParseListParams normalises raw query values into strongly typed filters.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{
		Page:  s.defaultPage,
		Limit: s.defaultLimit,
	}
	params.Query = strings.TrimSpace(values.Get("q"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}

	limit := s.defaultLimit
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 {
			return params, badRequest("limit", "limit must be a positive integer", err)
		}
		limit = l
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	params.Limit = limit
	return params, nil
}

// ListProducts returns a filtered product page with pagination metadata.
func (s *Service) ListProducts(ctx context.Context, params ListParams) (ListResult, error) {
	key, cacheable := s.listCacheKey(params)
	if cacheable {
		var cached cachedList
		if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
			return ListResult{Items: cached.Items, Total: cached.Total, Page: params.Page, Limit: params.Limit}, nil
		}
	}

	offset := (params.Page - 1) * params.Limit
	if offset < 0 {
		offset = 0
	}
	items, total, err := s.store.ListProducts(ctx, ListFilter{
		Query:  params.Query,
		Limit:  params.Limit,
		Offset: offset,
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("list products: %w", err)
	}
	result := ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}
	if cacheable {
		_ = s.cache.SetJSON(ctx, key, cachedList{Items: items, Total: total})
	}
	return result, nil
}

// GetProduct returns a full product for the given handle, with price-list
// amounts scoped to the region.
func (s *Service) GetProduct(ctx context.Context, handle string, regionID uuid.UUID) (*Product, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, badRequest("handle", "handle is required", nil)
	}
	key := cache.KeyProductDetail(handle, regionID)
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return &cached, nil
	}
	product, err := s.store.GetProductByHandle(ctx, handle, regionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundErr("product")
		}
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, key, product)
	return product, nil
}

// GetProductByID resolves a product by identity for selection sessions.
func (s *Service) GetProductByID(ctx context.Context, id uuid.UUID, regionID uuid.UUID) (*Product, error) {
	product, err := s.store.GetProductByID(ctx, id, regionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFoundErr("product")
		}
		return nil, err
	}
	return product, nil
}

// ListRegions returns all sales regions.
func (s *Service) ListRegions(ctx context.Context) ([]Region, error) {
	key := cache.KeyRegions
	var cached []Region
	if ok, err := s.cache.GetJSON(ctx, key, &cached); err == nil && ok {
		return cached, nil
	}
	regions, err := s.store.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}
	_ = s.cache.SetJSON(ctx, key, regions)
	return regions, nil
}

// GetRegion returns a single region.
func (s *Service) GetRegion(ctx context.Context, id uuid.UUID) (Region, error) {
	region, err := s.store.GetRegion(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Region{}, notFoundErr("region")
		}
		return Region{}, err
	}
	return region, nil
}

type cachedList struct {
	Items []ListItem `json:"items"`
	Total int64      `json:"total"`
}

func (s *Service) listCacheKey(params ListParams) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	if params.Page != s.defaultPage || params.Limit != s.defaultLimit || params.Query != "" {
		return "", false
	}
	return cache.KeyProductList, true
}

func badRequest(field, message string, err error) *common.AppError {
	return &common.AppError{
		Code:       common.CodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
		Details: map[string]any{
			"field": field,
		},
	}
}
