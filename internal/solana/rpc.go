// Package solana provides the minimal JSON-RPC and WebSocket clients the
// prescreen adapters and discovery source need.
package solana

import "context"

// AccountInfo is the subset of getAccountInfo used by the mint inspector.
type AccountInfo struct {
	Owner    string
	Lamports uint64
	Data     string // base64-encoded account data
}

// TokenAmount is an RPC token amount with raw and ui representations.
type TokenAmount struct {
	Amount   string  `json:"amount"`
	Decimals int     `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
}

// TokenAccountBalance pairs a holder account with its balance.
type TokenAccountBalance struct {
	Address  string  `json:"address"`
	Amount   string  `json:"amount"`
	UIAmount float64 `json:"uiAmount"`
}

// SimulateResult reports the outcome of a simulated transaction.
type SimulateResult struct {
	Err  interface{} // nil when the transaction would succeed
	Logs []string
}

// RPCClient is the read-only chain access the radar depends on.
type RPCClient interface {
	// GetAccountInfo returns account data, or nil if the account does not exist.
	GetAccountInfo(ctx context.Context, address string) (*AccountInfo, error)

	// GetTokenSupply returns the mint's current supply.
	GetTokenSupply(ctx context.Context, mint string) (*TokenAmount, error)

	// GetTokenLargestAccounts returns the top-20 holder balances for a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)

	// SimulateTransaction simulates a base64-encoded transaction.
	SimulateTransaction(ctx context.Context, txBase64 string) (*SimulateResult, error)
}
