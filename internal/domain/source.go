package domain

// Source represents the discovery source for a token.
type Source string

const (
	SourceMintEvent Source = "MINT_EVENT" // initialize-mint seen on the token program
	SourcePoolEvent Source = "POOL_EVENT" // first liquidity pool creation
	SourceBackfill  Source = "BACKFILL"   // discovered via historical scan
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is a valid value.
func (s Source) IsValid() bool {
	return s == SourceMintEvent || s == SourcePoolEvent || s == SourceBackfill
}
