package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"solana-token-radar/internal/domain"
)

// MarketData pulls price, liquidity, volume and holder count from an
// off-chain aggregator's REST API. Freshly created tokens are often not
// indexed yet; that surfaces as ErrUnavailable and the completeness gate
// handles the gap.
type MarketData struct {
	baseURL string
	client  *http.Client
}

// NewMarketData creates a market data adapter against an aggregator base URL.
func NewMarketData(baseURL string) *MarketData {
	return &MarketData{baseURL: baseURL, client: newHTTPClient()}
}

// Name identifies the source.
func (m *MarketData) Name() string { return "market_data" }

type marketDataResponse struct {
	PriceUSD     *float64 `json:"price_usd"`
	LiquidityUSD *float64 `json:"liquidity_usd"`
	VolumeUSD5m  *float64 `json:"volume_usd_5m"`
	HolderCount  *int64   `json:"holder_count"`
}

// Fetch returns the aggregator's market view of the token.
func (m *MarketData) Fetch(ctx context.Context, ref domain.TokenRef) (*Partial, error) {
	var body marketDataResponse
	u := fmt.Sprintf("%s/tokens/%s", m.baseURL, url.PathEscape(ref.Mint))
	if err := getJSON(ctx, m.client, u, &body); err != nil {
		return nil, err
	}

	return &Partial{
		Source:       m.Name(),
		PriceUSD:     body.PriceUSD,
		LiquidityUSD: body.LiquidityUSD,
		VolumeUSD5m:  body.VolumeUSD5m,
		HolderCount:  body.HolderCount,
	}, nil
}
