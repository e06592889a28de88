package scoring

import (
	"log"

	"solana-token-radar/internal/domain"
)

// Comparator tracks divergence between the two scoring variants.
// Divergence beyond the threshold is an observability event, never an
// error, and is never auto-resolved.
type Comparator struct {
	threshold int
	logger    *log.Logger
	onDiverge func(mint string, delta int) // metrics hook, may be nil
}

// NewComparator creates a divergence comparator.
func NewComparator(threshold int, logger *log.Logger, onDiverge func(mint string, delta int)) *Comparator {
	if logger == nil {
		logger = log.Default()
	}
	return &Comparator{threshold: threshold, logger: logger, onDiverge: onDiverge}
}

// Compare records the delta between variants for one snapshot and reports
// whether it exceeded the threshold.
func (c *Comparator) Compare(mint string, a, b domain.ScoreResult) (delta int, diverged bool) {
	delta = a.Score - b.Score
	if delta < 0 {
		delta = -delta
	}
	if delta <= c.threshold {
		return delta, false
	}

	c.logger.Printf("[scoring] variant divergence on %s: %s=%d %s=%d (delta %d)",
		mint, a.Variant, a.Score, b.Variant, b.Score, delta)
	if c.onDiverge != nil {
		c.onDiverge(mint, delta)
	}
	return delta, true
}
