package discovery

import (
	"regexp"

	"solana-token-radar/internal/domain"
)

// TokenProgramID is the SPL token program whose logs carry mint
// initializations.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// Parser extracts mint events from transaction logs.
type Parser interface {
	// ParseMintEvents extracts mint events from transaction logs, in the
	// order they appear.
	ParseMintEvents(logs []string, txSig string, slot int64, timestamp int64) []*MintEvent
}

// LogParser implements Parser with pattern matching over program logs. It
// recognizes two shapes: an InitializeMint instruction followed by a mint
// detail line, and a pool initialization detail line.
type LogParser struct {
	initMintPattern *regexp.Regexp
	mintPattern     *regexp.Regexp
	poolPattern     *regexp.Regexp
}

// NewLogParser creates a LogParser.
func NewLogParser() *LogParser {
	return &LogParser{
		initMintPattern: regexp.MustCompile(`Program log: Instruction: InitializeMint2?`),
		// "Program log: Mint <base58> creator=<base58> symbol=<sym> name=<name>"
		// creator, symbol and name are optional.
		mintPattern: regexp.MustCompile(`Program log: Mint ([1-9A-HJ-NP-Za-km-z]+)(?: creator=([1-9A-HJ-NP-Za-km-z]+))?(?: symbol=(\S+))?(?: name=(.+))?$`),
		// "Program log: InitPool mint=<base58> creator=<base58>"
		poolPattern: regexp.MustCompile(`Program log: InitPool mint=([1-9A-HJ-NP-Za-km-z]+)(?: creator=([1-9A-HJ-NP-Za-km-z]+))?`),
	}
}

// ParseMintEvents extracts mint and pool events from logs.
func (p *LogParser) ParseMintEvents(logs []string, txSig string, slot int64, timestamp int64) []*MintEvent {
	var events []*MintEvent
	sawInit := false

	for _, line := range logs {
		if p.initMintPattern.MatchString(line) {
			sawInit = true
			continue
		}

		if m := p.mintPattern.FindStringSubmatch(line); m != nil && sawInit {
			events = append(events, &MintEvent{
				Mint:        m[1],
				Creator:     m[2],
				Symbol:      m[3],
				Name:        m[4],
				Source:      domain.SourceMintEvent,
				TxSignature: txSig,
				Slot:        slot,
				Timestamp:   timestamp,
			})
			sawInit = false
			continue
		}

		if m := p.poolPattern.FindStringSubmatch(line); m != nil {
			events = append(events, &MintEvent{
				Mint:        m[1],
				Creator:     m[2],
				Source:      domain.SourcePoolEvent,
				TxSignature: txSig,
				Slot:        slot,
				Timestamp:   timestamp,
			})
		}
	}

	return events
}
