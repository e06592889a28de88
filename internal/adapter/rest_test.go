package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-token-radar/internal/domain"
)

func TestMarketData_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tokens/"+testMint {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"price_usd": 0.0025, "liquidity_usd": 45000, "volume_usd_5m": 7500, "holder_count": 321}`))
	}))
	defer srv.Close()

	p, err := NewMarketData(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if p.PriceUSD == nil || *p.PriceUSD != 0.0025 {
		t.Errorf("PriceUSD = %v", p.PriceUSD)
	}
	if p.LiquidityUSD == nil || *p.LiquidityUSD != 45000 {
		t.Errorf("LiquidityUSD = %v", p.LiquidityUSD)
	}
	if p.VolumeUSD5m == nil || *p.VolumeUSD5m != 7500 {
		t.Errorf("VolumeUSD5m = %v", p.VolumeUSD5m)
	}
	if p.HolderCount == nil || *p.HolderCount != 321 {
		t.Errorf("HolderCount = %v", p.HolderCount)
	}
}

func TestMarketData_UnindexedTokenOmitsMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	p, err := NewMarketData(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.PriceUSD != nil || p.LiquidityUSD != nil || p.VolumeUSD5m != nil || p.HolderCount != nil {
		t.Errorf("Absent fields must stay nil: %+v", p)
	}
}

func TestGetJSON_StatusMapping(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	_, err := NewMarketData(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("429 must map to ErrRateLimited, got %v", err)
	}

	status = http.StatusInternalServerError
	_, err = NewMarketData(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("500 must map to ErrUnavailable, got %v", err)
	}
}

func TestSecurityScan_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report/"+testMint {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"honeypot": true, "mint_authority": true, "freeze_authority": false, "lp_locked": false, "sell_sim_failed": true}`))
	}))
	defer srv.Close()

	p, err := NewSecurityScan(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !p.Honeypot || !p.MintAuthority || p.FreezeAuthority || !p.LPUnlocked || !p.SellSimFailed {
		t.Errorf("Report misread: %+v", p)
	}

	want := map[domain.RiskFlag]bool{
		domain.FlagUnsecuredLiquidity: true,
		domain.FlagMintableSupply:     true,
		domain.FlagSellSimFailed:      true,
	}
	if len(p.Flags) != len(want) {
		t.Fatalf("Flags = %v", p.Flags)
	}
	for _, f := range p.Flags {
		if !want[f] {
			t.Errorf("Unexpected flag %s", f)
		}
	}
}

func TestSecurityScan_CleanReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"honeypot": false, "lp_locked": true}`))
	}))
	defer srv.Close()

	p, err := NewSecurityScan(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p.Honeypot || p.LPUnlocked || len(p.Flags) != 0 {
		t.Errorf("Clean report must raise nothing: %+v", p)
	}
}

func TestCreatorHistory_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/creators/creatorX" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"launch_count": 5, "rug_count": 0, "shared_funder_wallets": 2}`))
	}))
	defer srv.Close()

	p, err := NewCreatorHistory(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint, Creator: "creatorX"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !hasFlag(p.Flags, domain.FlagRepeatCreator) {
		t.Errorf("Serial launcher must be flagged: %v", p.Flags)
	}
	if !hasFlag(p.Flags, domain.FlagSharedFunder) {
		t.Errorf("Shared funder must be flagged: %v", p.Flags)
	}
}

func TestCreatorHistory_BelowThresholds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"launch_count": 2, "rug_count": 0, "shared_funder_wallets": 0}`))
	}))
	defer srv.Close()

	p, err := NewCreatorHistory(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint, Creator: "creatorX"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(p.Flags) != 0 {
		t.Errorf("Two launches and no rugs must raise nothing: %v", p.Flags)
	}
}

func TestCreatorHistory_RugCountAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"launch_count": 1, "rug_count": 1}`))
	}))
	defer srv.Close()

	p, err := NewCreatorHistory(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint, Creator: "creatorX"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !hasFlag(p.Flags, domain.FlagRepeatCreator) {
		t.Errorf("One confirmed rug must be enough: %v", p.Flags)
	}
}

func TestCreatorHistory_NoCreator(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p, err := NewCreatorHistory(srv.URL).Fetch(context.Background(), domain.TokenRef{Mint: testMint})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if called {
		t.Error("No creator attribution must skip the lookup entirely")
	}
	if len(p.Flags) != 0 {
		t.Errorf("Flags = %v", p.Flags)
	}
}

func hasFlag(flags []domain.RiskFlag, f domain.RiskFlag) bool {
	for _, v := range flags {
		if v == f {
			return true
		}
	}
	return false
}
