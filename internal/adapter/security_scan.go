package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"solana-token-radar/internal/domain"
)

// SecurityScan queries an external contract-safety service for honeypot
// verdicts and LP lock status. Its honeypot verdict is the only confirmed
// fraud signal in the pipeline; everything else it reports is advisory.
type SecurityScan struct {
	baseURL string
	client  *http.Client
}

// NewSecurityScan creates a security scan adapter against a service base URL.
func NewSecurityScan(baseURL string) *SecurityScan {
	return &SecurityScan{baseURL: baseURL, client: newHTTPClient()}
}

// Name identifies the source.
func (s *SecurityScan) Name() string { return "security_scan" }

type securityScanResponse struct {
	Honeypot        bool `json:"honeypot"`
	MintAuthority   bool `json:"mint_authority"`
	FreezeAuthority bool `json:"freeze_authority"`
	LPLocked        bool `json:"lp_locked"`
	SellSimFailed   bool `json:"sell_sim_failed"`
}

// Fetch returns the service's safety report.
func (s *SecurityScan) Fetch(ctx context.Context, ref domain.TokenRef) (*Partial, error) {
	var body securityScanResponse
	u := fmt.Sprintf("%s/report/%s", s.baseURL, url.PathEscape(ref.Mint))
	if err := getJSON(ctx, s.client, u, &body); err != nil {
		return nil, err
	}

	p := &Partial{
		Source:          s.Name(),
		Honeypot:        body.Honeypot,
		MintAuthority:   body.MintAuthority,
		FreezeAuthority: body.FreezeAuthority,
		LPUnlocked:      !body.LPLocked,
		SellSimFailed:   body.SellSimFailed,
	}
	if !body.LPLocked {
		p.Flags = append(p.Flags, domain.FlagUnsecuredLiquidity)
	}
	if body.MintAuthority {
		p.Flags = append(p.Flags, domain.FlagMintableSupply)
	}
	if body.SellSimFailed {
		p.Flags = append(p.Flags, domain.FlagSellSimFailed)
	}
	return p, nil
}
