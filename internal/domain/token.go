package domain

// Token represents a newly discovered token tracked through enrichment.
// Corresponds to tokens table in PostgreSQL. Immutable after creation
// except metadata backfill.
type Token struct {
	Mint         string // PRIMARY KEY, base58 mint address
	Chain        string // "solana"
	Source       Source // discovery source
	Creator      string // creator wallet address
	Symbol       string // token symbol, backfilled by metadata adapters
	Name         string // token name, backfilled by metadata adapters
	CreatedAt    int64  // on-chain creation timestamp (ms)
	FirstSeenAt  int64  // first discovery timestamp (ms)
	RegisteredAt int64  // record creation timestamp (ms)
}

// TokenRef is the minimal identity handed to adapters and the queue.
type TokenRef struct {
	Mint    string
	Creator string
	Symbol  string
}

// Ref returns the token's reference for adapter and queue use.
func (t *Token) Ref() TokenRef {
	return TokenRef{Mint: t.Mint, Creator: t.Creator, Symbol: t.Symbol}
}
