// Package discovery turns raw chain activity into registered tokens with a
// scheduled first enrichment pass. Sources emit MintEvents; the Listener
// dedupes them, persists the token, and enqueues its prescreen task.
package discovery

import "solana-token-radar/internal/domain"

// MintEvent represents one observed token creation or first pool event.
type MintEvent struct {
	Mint        string        // token mint address
	Creator     string        // creator wallet, empty when not extractable
	Symbol      string        // symbol when the event carries metadata
	Name        string        // name when the event carries metadata
	Source      domain.Source // which chain activity produced the event
	TxSignature string        // transaction signature
	Slot        int64         // Solana slot number
	Timestamp   int64         // Unix timestamp in milliseconds
}
