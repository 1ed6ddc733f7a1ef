package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/printhaus/storefront-api/internal/resilience"
)

// Provider resolves the authoritative price for an input tuple. Calls must be
// idempotent: issuing the same tuple repeatedly returns the same amount.
type Provider interface {
	Quote(ctx context.Context, t Tuple) (int64, error)
}

// AuthorityClient calls the external pricing authority over HTTP.
type AuthorityClient struct {
	BaseURL string
	HTTP    *resilience.HTTPClient
}

type quoteRequest struct {
	VariantID uuid.UUID `json:"variant_id"`
	RegionID  uuid.UUID `json:"region_id"`
	Metadata  Metadata  `json:"metadata,omitempty"`
}

type quoteResponse struct {
	Amount int64 `json:"amount"`
}

// Quote issues one POST per tuple and decodes the minor-unit amount.
func (c *AuthorityClient) Quote(ctx context.Context, t Tuple) (int64, error) {
	if c == nil || c.HTTP == nil {
		return 0, errors.New("pricing: authority client not configured")
	}
	payload, err := json.Marshal(quoteRequest{
		VariantID: t.VariantID,
		RegionID:  t.RegionID,
		Metadata:  t.Metadata,
	})
	if err != nil {
		return 0, fmt.Errorf("encode quote request: %w", err)
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/v1/quotes"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("call pricing authority: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("pricing authority returned %s", resp.Status)
	}
	var decoded quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode quote response: %w", err)
	}
	if decoded.Amount < 0 {
		return 0, fmt.Errorf("pricing authority returned negative amount %d", decoded.Amount)
	}
	return decoded.Amount, nil
}
