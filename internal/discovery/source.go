package discovery

import (
	"context"
	"log"
	"time"

	"solana-token-radar/internal/solana"
)

func nowMs() int64 { return time.Now().UnixMilli() }

// TokenSource streams mint events from somewhere. The channel closes when
// the source shuts down.
type TokenSource interface {
	Events() <-chan *MintEvent
	Close() error
}

// WSTokenSource streams mint events from a Solana websocket log
// subscription on the token program. Reconnects are the websocket
// client's problem; this layer only parses and forwards.
type WSTokenSource struct {
	client *solana.WSClient
	parser Parser
	events chan *MintEvent
	logger *log.Logger
	cancel context.CancelFunc
}

// NewWSTokenSource subscribes to token program logs at the endpoint and
// starts forwarding parsed events.
func NewWSTokenSource(ctx context.Context, endpoint string, parser Parser, logger *log.Logger) (*WSTokenSource, error) {
	if logger == nil {
		logger = log.Default()
	}
	if parser == nil {
		parser = NewLogParser()
	}

	client, err := solana.NewWSClient(ctx, endpoint, []string{TokenProgramID}, nil, logger)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &WSTokenSource{
		client: client,
		parser: parser,
		events: make(chan *MintEvent, 256),
		logger: logger,
		cancel: cancel,
	}
	go s.run(runCtx)
	return s, nil
}

// Events returns the outbound event channel.
func (s *WSTokenSource) Events() <-chan *MintEvent {
	return s.events
}

// Close stops the source and closes the event channel.
func (s *WSTokenSource) Close() error {
	s.cancel()
	return s.client.Close()
}

func (s *WSTokenSource) run(ctx context.Context) {
	defer close(s.events)

	for {
		select {
		case <-ctx.Done():
			return
		case note, ok := <-s.client.Notifications():
			if !ok {
				return
			}
			if note.Err != nil {
				continue // failed transactions initialize nothing
			}
			ts := nowMs()
			for _, ev := range s.parser.ParseMintEvents(note.Logs, note.Signature, note.Slot, ts) {
				select {
				case s.events <- ev:
				default:
					// Discovery is lossy by design under backpressure;
					// a dropped event resurfaces on the next pool event
					// or a backfill scan.
					s.logger.Printf("[discovery] event buffer full, dropping mint %s", ev.Mint)
				}
			}
		}
	}
}

// StubSource replays a fixed event list, for tests and dry runs.
type StubSource struct {
	events chan *MintEvent
}

// NewStubSource creates a source pre-loaded with events. The channel is
// closed once all events are consumed.
func NewStubSource(events ...*MintEvent) *StubSource {
	ch := make(chan *MintEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return &StubSource{events: ch}
}

// Events returns the outbound event channel.
func (s *StubSource) Events() <-chan *MintEvent {
	return s.events
}

// Close is a no-op.
func (s *StubSource) Close() error { return nil }
