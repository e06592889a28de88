package adapter

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/solana"
)

// HolderScan reads holder concentration straight from chain: the top-20
// balances against total supply. Cheap relative to an indexer call and
// available from the first slot the mint exists.
type HolderScan struct {
	rpc solana.RPCClient
}

// Scripted first-block buys leave a wall of near-identical balances across
// the top accounts; organic holders spread out within minutes.
const (
	clusterMinAccounts = 5
	clusterSpread      = 0.02 // relative balance tolerance within a wall
	clusterMinShare    = 0.10 // combined supply share the wall must hold
)

// NewHolderScan creates a holder scan adapter.
func NewHolderScan(rpc solana.RPCClient) *HolderScan {
	return &HolderScan{rpc: rpc}
}

// Name identifies the source.
func (h *HolderScan) Name() string { return "holder_scan" }

// Fetch returns supply and concentration metrics.
func (h *HolderScan) Fetch(ctx context.Context, ref domain.TokenRef) (*Partial, error) {
	supply, err := h.rpc.GetTokenSupply(ctx, ref.Mint)
	if err != nil {
		return nil, fmt.Errorf("get token supply: %w", err)
	}

	accounts, err := h.rpc.GetTokenLargestAccounts(ctx, ref.Mint)
	if err != nil {
		return nil, fmt.Errorf("get largest accounts: %w", err)
	}

	p := &Partial{Source: h.Name()}

	supplyUI := supply.UIAmount
	p.SupplyRaw = &supplyUI

	if supplyUI <= 0 || len(accounts) == 0 {
		return p, nil
	}

	top := accounts[0].UIAmount / supplyUI
	p.TopHolderPct = &top

	sum := 0.0
	for i, a := range accounts {
		if i >= 10 {
			break
		}
		sum += a.UIAmount
	}
	topTen := sum / supplyUI
	if topTen > 1 {
		topTen = 1
	}
	p.TopTenPct = &topTen

	if n, share := balanceCluster(accounts); n >= clusterMinAccounts && share/supplyUI >= clusterMinShare {
		p.Flags = append(p.Flags, domain.FlagFirstBlockCluster)
	}

	return p, nil
}

// balanceCluster finds the longest run of near-equal balances in the
// descending account list, returning its size and combined balance.
func balanceCluster(accounts []solana.TokenAccountBalance) (int, float64) {
	bestN, bestSum := 0, 0.0
	for i := 0; i < len(accounts); {
		floor := accounts[i].UIAmount * (1 - clusterSpread)
		sum := accounts[i].UIAmount
		j := i + 1
		for j < len(accounts) && accounts[j].UIAmount >= floor {
			sum += accounts[j].UIAmount
			j++
		}
		if j-i > bestN {
			bestN, bestSum = j-i, sum
		}
		i = j
	}
	return bestN, bestSum
}
