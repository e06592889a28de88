package discovery

import (
	"testing"

	"solana-token-radar/internal/domain"
)

func TestParseMintEvents_InitializeMintThenDetail(t *testing.T) {
	p := NewLogParser()

	logs := []string{
		"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA invoke [1]",
		"Program log: Instruction: InitializeMint",
		"Program log: Mint 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU creator=9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM symbol=TST name=Test Token",
		"Program TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA success",
	}

	events := p.ParseMintEvents(logs, "sig1", 1234, 1700000000000)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}

	ev := events[0]
	if ev.Mint != "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU" {
		t.Errorf("Mint = %q", ev.Mint)
	}
	if ev.Creator != "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM" {
		t.Errorf("Creator = %q", ev.Creator)
	}
	if ev.Symbol != "TST" {
		t.Errorf("Symbol = %q", ev.Symbol)
	}
	if ev.Name != "Test Token" {
		t.Errorf("Name = %q", ev.Name)
	}
	if ev.Source != domain.SourceMintEvent {
		t.Errorf("Source = %s", ev.Source)
	}
	if ev.TxSignature != "sig1" || ev.Slot != 1234 || ev.Timestamp != 1700000000000 {
		t.Errorf("Transaction context lost: %+v", ev)
	}
}

func TestParseMintEvents_InitializeMint2(t *testing.T) {
	p := NewLogParser()

	logs := []string{
		"Program log: Instruction: InitializeMint2",
		"Program log: Mint 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
	}

	events := p.ParseMintEvents(logs, "sig2", 1, 1)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Creator != "" || events[0].Symbol != "" {
		t.Errorf("Optional fields must be empty: %+v", events[0])
	}
}

func TestParseMintEvents_MintLineWithoutInitIgnored(t *testing.T) {
	p := NewLogParser()

	// A bare mint detail line with no preceding InitializeMint is some
	// other program's noise.
	logs := []string{
		"Program log: Mint 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
	}
	if events := p.ParseMintEvents(logs, "sig", 1, 1); len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestParseMintEvents_InitConsumedByFirstMint(t *testing.T) {
	p := NewLogParser()

	// One InitializeMint authorizes exactly one mint detail line.
	logs := []string{
		"Program log: Instruction: InitializeMint",
		"Program log: Mint 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		"Program log: Mint 9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
	}
	events := p.ParseMintEvents(logs, "sig", 1, 1)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
}

func TestParseMintEvents_PoolEvent(t *testing.T) {
	p := NewLogParser()

	logs := []string{
		"Program log: InitPool mint=7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU creator=9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
	}
	events := p.ParseMintEvents(logs, "sig", 1, 1)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].Source != domain.SourcePoolEvent {
		t.Errorf("Source = %s", events[0].Source)
	}
	if events[0].Mint != "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU" {
		t.Errorf("Mint = %q", events[0].Mint)
	}
}

func TestParseMintEvents_MixedLogs(t *testing.T) {
	p := NewLogParser()

	logs := []string{
		"Program log: Instruction: Transfer",
		"Program log: Instruction: InitializeMint",
		"Program log: Mint 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU creator=9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM",
		"Program log: InitPool mint=7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
	}

	events := p.ParseMintEvents(logs, "sig", 1, 1)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Source != domain.SourceMintEvent || events[1].Source != domain.SourcePoolEvent {
		t.Errorf("Event order lost: %s, %s", events[0].Source, events[1].Source)
	}
}

func TestParseMintEvents_EmptyLogs(t *testing.T) {
	p := NewLogParser()
	if events := p.ParseMintEvents(nil, "sig", 1, 1); len(events) != 0 {
		t.Errorf("Expected no events from empty logs, got %d", len(events))
	}
}
