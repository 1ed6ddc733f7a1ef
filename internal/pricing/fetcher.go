package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/printhaus/storefront-api/internal/obs"
)

// Fetcher executes pricing authority calls with timeout, logging, and
// outcome metrics. It performs a single blocking fetch; asynchronous
// coordination and stale-result discarding live with the caller, which owns
// the selection state the result is applied to.
type Fetcher struct {
	Provider Provider
	Timeout  time.Duration
	Logger   zerolog.Logger
}

// Fetch resolves the price for the tuple. A failed fetch is logged and
// counted; the caller keeps the displayed price unset.
func (f *Fetcher) Fetch(ctx context.Context, t Tuple) (int64, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	amount, err := f.Provider.Quote(ctx, t)
	elapsed := obs.DurationMillis(time.Since(start))
	if err != nil {
		if obs.PriceFetchTotal != nil {
			obs.PriceFetchTotal.WithLabelValues("error").Inc()
			obs.PriceFetchLatency.WithLabelValues("error").Observe(elapsed)
		}
		f.Logger.Error().Err(err).
			Str("variant_id", t.VariantID.String()).
			Str("region_id", t.RegionID.String()).
			Msg("price_fetch_failed")
		return 0, err
	}
	if obs.PriceFetchTotal != nil {
		obs.PriceFetchTotal.WithLabelValues("ok").Inc()
		obs.PriceFetchLatency.WithLabelValues("ok").Observe(elapsed)
	}
	return amount, nil
}

// MarkStale records that a completed fetch was discarded because its tuple no
// longer matches the current selection state. Stale results are not errors.
func (f *Fetcher) MarkStale(t Tuple) {
	if obs.PriceStaleDroppedTotal != nil {
		obs.PriceStaleDroppedTotal.Inc()
	}
	f.Logger.Debug().
		Str("variant_id", t.VariantID.String()).
		Str("region_id", t.RegionID.String()).
		Msg("price_result_stale_dropped")
}
