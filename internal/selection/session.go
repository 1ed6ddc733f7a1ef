package selection

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/printhaus/storefront-api/internal/catalog"
	"github.com/printhaus/storefront-api/internal/common"
	"github.com/printhaus/storefront-api/internal/obs"
	"github.com/printhaus/storefront-api/internal/pricing"
)

const (
	metaWidth  = "width"
	metaHeight = "height"
)

// Session holds one buyer's in-progress selection for a single product and
// region. All mutable fields are guarded by mu; mutations happen only through
// the Manager's entry points, one per field.
type Session struct {
	ID uuid.UUID

	mu       sync.Mutex
	product  *catalog.Product
	region   catalog.Region
	options  catalog.KeyMap
	widthCm  float64
	heightCm float64
	artwork  bool

	// priceSeq tags each issued price fetch. A completed fetch is applied
	// only while its tag still equals the current value, which guarantees
	// at most one applied result per displayed state.
	priceSeq uint64
	quote    *pricing.Quote

	expiresAt time.Time
}

// Snapshot is the read model handed to transport. It is assembled under the
// session lock so selection, validity, stock, and price always agree.
type Snapshot struct {
	ID                 uuid.UUID      `json:"id"`
	ProductID          uuid.UUID      `json:"productId"`
	ProductHandle      string         `json:"productHandle"`
	RegionID           uuid.UUID      `json:"regionId"`
	Options            catalog.KeyMap `json:"options"`
	SelectedVariantID  *uuid.UUID     `json:"selectedVariantId,omitempty"`
	ValidSelection     bool           `json:"validSelection"`
	InStock            bool           `json:"inStock"`
	RequiresDimensions bool           `json:"requiresDimensions"`
	DimensionsSet      bool           `json:"dimensionsSet"`
	RequiresArtwork    bool           `json:"requiresArtwork"`
	ArtworkUploaded    bool           `json:"artworkUploaded"`
	CanAddToCart       bool           `json:"canAddToCart"`
	Price              *pricing.View  `json:"price,omitempty"`
}

type catalogSource interface {
	GetProductByID(ctx context.Context, id uuid.UUID, regionID uuid.UUID) (*catalog.Product, error)
	GetRegion(ctx context.Context, id uuid.UUID) (catalog.Region, error)
}

// Manager owns the session table and coordinates asynchronous price
// resolution against the selection state.
type Manager struct {
	catalog catalogSource
	fetcher *pricing.Fetcher
	ttl     time.Duration
	maxSize int
	logger  zerolog.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// ManagerConfig groups Manager dependencies.
type ManagerConfig struct {
	Catalog     catalogSource
	Fetcher     *pricing.Fetcher
	TTL         time.Duration
	MaxSessions int
	Logger      zerolog.Logger
}

// NewManager constructs a session manager.
func NewManager(cfg ManagerConfig) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	maxSize := cfg.MaxSessions
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &Manager{
		catalog:  cfg.Catalog,
		fetcher:  cfg.Fetcher,
		ttl:      ttl,
		maxSize:  maxSize,
		logger:   cfg.Logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Create starts a selection session for a product in a region. Single-variant
// products come back with the selection already populated and a price fetch
// underway.
func (m *Manager) Create(ctx context.Context, productID, regionID uuid.UUID) (Snapshot, error) {
	region, err := m.catalog.GetRegion(ctx, regionID)
	if err != nil {
		return Snapshot{}, err
	}
	product, err := m.catalog.GetProductByID(ctx, productID, regionID)
	if err != nil {
		return Snapshot{}, err
	}

	s := &Session{
		ID:        uuid.New(),
		product:   product,
		region:    region,
		options:   AutoPopulate(product),
		expiresAt: time.Now().Add(m.ttl),
	}

	m.mu.Lock()
	m.evictExpiredLocked()
	if len(m.sessions) >= m.maxSize {
		m.mu.Unlock()
		return Snapshot{}, &common.AppError{
			Code:       common.CodeServiceBusy,
			Message:    "too many active sessions",
			HTTPStatus: http.StatusServiceUnavailable,
		}
	}
	m.sessions[s.ID] = s
	if obs.SelectionSessionsActive != nil {
		obs.SelectionSessionsActive.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	m.refreshPriceLocked(s)
	return m.snapshotLocked(s), nil
}

// Get returns the current state of a session.
func (m *Manager) Get(id uuid.UUID) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.snapshotLocked(s), nil
}

// SetOption records a single option choice. It is the only mutation entry
// point for the selection map. The variant match, validity, availability, and
// price refresh are recomputed synchronously before returning.
func (m *Manager) SetOption(id uuid.UUID, optionID uuid.UUID, value string) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !optionAllows(s.product, optionID, value) {
		return Snapshot{}, &common.AppError{
			Code:       common.CodeBadRequest,
			Message:    "unknown option or value for this product",
			HTTPStatus: http.StatusBadRequest,
		}
	}
	s.options[optionID] = value
	m.refreshPriceLocked(s)
	return m.snapshotLocked(s), nil
}

// SetDimensions records buyer-entered width and height in centimetres. Zero
// means "not entered yet"; while either dimension of a personalized product
// is unset, no price fetch is issued and the displayed price stays unset.
func (m *Manager) SetDimensions(id uuid.UUID, widthCm, heightCm float64) (Snapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	if widthCm < 0 || heightCm < 0 {
		return Snapshot{}, &common.AppError{
			Code:       common.CodeBadRequest,
			Message:    "dimensions must not be negative",
			HTTPStatus: http.StatusBadRequest,
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widthCm = widthCm
	s.heightCm = heightCm
	m.refreshPriceLocked(s)
	return m.snapshotLocked(s), nil
}

// MarkArtworkUploaded flags that the buyer's graphic reached the upload
// collaborator. Artwork does not influence the price tuple, so no refresh.
func (m *Manager) MarkArtworkUploaded(id uuid.UUID) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artwork = true
	return nil
}

// Sweep removes expired sessions. Run it periodically from the entrypoint.
func (m *Manager) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictExpiredLocked()
	if obs.SelectionSessionsActive != nil {
		obs.SelectionSessionsActive.Set(float64(len(m.sessions)))
	}
}

func (m *Manager) lookup(id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok && time.Now().After(s.expiresAt) {
		delete(m.sessions, id)
		ok = false
	}
	if !ok {
		return nil, &common.AppError{
			Code:       common.CodeNotFound,
			Message:    "session not found",
			HTTPStatus: http.StatusNotFound,
		}
	}
	s.expiresAt = time.Now().Add(m.ttl)
	return s, nil
}

func (m *Manager) evictExpiredLocked() {
	now := time.Now()
	for id, s := range m.sessions {
		if now.After(s.expiresAt) {
			delete(m.sessions, id)
		}
	}
}

// refreshPriceLocked invalidates the displayed quote and, when the current
// state qualifies, issues an asynchronous fetch tagged with a fresh sequence
// number. Caller must hold s.mu.
func (m *Manager) refreshPriceLocked(s *Session) {
	s.priceSeq++
	seq := s.priceSeq
	s.quote = nil

	variant := Resolve(s.product.Variants, s.options)
	if variant == nil {
		return
	}
	if s.product.RequiresDimensions && (s.widthCm <= 0 || s.heightCm <= 0) {
		// Required dimension missing: no fetch, price stays unset.
		return
	}

	tuple := pricing.Tuple{
		VariantID: variant.ID,
		RegionID:  s.region.ID,
	}
	if s.product.RequiresDimensions {
		tuple.Metadata = pricing.Metadata{metaWidth: s.widthCm, metaHeight: s.heightCm}
	}

	// The fetch outlives the HTTP request that triggered it; it is tied to
	// the session, not the caller. Cancellation is logical: a late result
	// is discarded by the sequence check rather than aborted in transit.
	go func() {
		amount, err := m.fetcher.Fetch(context.Background(), tuple)

		s.mu.Lock()
		defer s.mu.Unlock()
		if seq != s.priceSeq {
			m.fetcher.MarkStale(tuple)
			return
		}
		if err != nil {
			// Already logged and counted by the fetcher; displayed price
			// stays unset.
			return
		}
		s.quote = &pricing.Quote{
			Amount:       amount,
			CurrencyCode: s.region.CurrencyCode,
			Tuple:        tuple,
		}
	}()
}

func (m *Manager) snapshotLocked(s *Session) Snapshot {
	variant := Resolve(s.product.Variants, s.options)
	valid := variant != nil
	inStock := InStock(variant)
	dimsSet := s.widthCm > 0 && s.heightCm > 0

	snap := Snapshot{
		ID:                 s.ID,
		ProductID:          s.product.ID,
		ProductHandle:      s.product.Handle,
		RegionID:           s.region.ID,
		Options:            s.options.Clone(),
		ValidSelection:     valid,
		InStock:            inStock,
		RequiresDimensions: s.product.RequiresDimensions,
		DimensionsSet:      dimsSet,
		RequiresArtwork:    s.product.RequiresArtwork,
		ArtworkUploaded:    s.artwork,
	}
	if variant != nil {
		id := variant.ID
		snap.SelectedVariantID = &id
	}
	snap.CanAddToCart = valid && inStock &&
		(!s.product.RequiresDimensions || dimsSet)

	// A quote renders only while it belongs to the current tuple; amount
	// zero is "no price yet", never a free product.
	if s.quote != nil && s.quote.Amount > 0 {
		var original *int64
		if variant != nil {
			original = variant.OriginalAmount
		}
		view := pricing.NewView(s.quote.Amount, original, s.region.CurrencyCode, s.region.Locale)
		snap.Price = &view
	}
	return snap
}

func optionAllows(p *catalog.Product, optionID uuid.UUID, value string) bool {
	for _, opt := range p.Options {
		if opt.ID != optionID {
			continue
		}
		for _, allowed := range opt.Values {
			if allowed == value {
				return true
			}
		}
		return false
	}
	return false
}
