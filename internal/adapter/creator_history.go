package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"solana-token-radar/internal/domain"
)

// repeatLaunchThreshold marks a creator as a serial launcher. Legitimate
// teams rarely ship more than a couple of tokens from one wallet.
const repeatLaunchThreshold = 3

// CreatorHistory queries a wallet-history service for the creator's prior
// launches and confirmed rugs. Adds no metrics, only risk flags.
type CreatorHistory struct {
	baseURL string
	client  *http.Client
}

// NewCreatorHistory creates a creator history adapter against a service base URL.
func NewCreatorHistory(baseURL string) *CreatorHistory {
	return &CreatorHistory{baseURL: baseURL, client: newHTTPClient()}
}

// Name identifies the source.
func (c *CreatorHistory) Name() string { return "creator_history" }

type creatorHistoryResponse struct {
	LaunchCount  int `json:"launch_count"`
	RugCount     int `json:"rug_count"`
	SharedFunder int `json:"shared_funder_wallets"`
}

// Fetch returns the creator's launch record as risk flags.
func (c *CreatorHistory) Fetch(ctx context.Context, ref domain.TokenRef) (*Partial, error) {
	if ref.Creator == "" {
		// No creator attribution for this token; nothing to look up.
		return &Partial{Source: c.Name()}, nil
	}

	var body creatorHistoryResponse
	u := fmt.Sprintf("%s/creators/%s", c.baseURL, url.PathEscape(ref.Creator))
	if err := getJSON(ctx, c.client, u, &body); err != nil {
		return nil, err
	}

	p := &Partial{Source: c.Name()}
	if body.RugCount > 0 || body.LaunchCount >= repeatLaunchThreshold {
		p.Flags = append(p.Flags, domain.FlagRepeatCreator)
	}
	if body.SharedFunder > 0 {
		p.Flags = append(p.Flags, domain.FlagSharedFunder)
	}
	return p, nil
}
