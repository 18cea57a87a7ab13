package lcu

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WAMP 1.0 opcodes used by the client.
const (
	wampSubscribe = 5
	wampEvent     = 8

	jsonAPITopic = "OnJsonApiEvent"
)

// EventStream is a subscription to every OnJsonApiEvent the client emits.
type EventStream struct {
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}
	stop   chan struct{}
	logger *zap.Logger

	closeOnce sync.Once
	mu        sync.Mutex
	closing   bool
	err       error
}

// OpenEventStream dials the websocket endpoint and subscribes to all
// JSON API events.
func (c *Client) OpenEventStream(ctx context.Context) (*EventStream, error) {
	header := http.Header{}
	header.Set("Authorization", c.authHeader)

	conn, _, err := c.dialer.DialContext(ctx, c.wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("dial event stream: %w", err)
	}

	sub, err := json.Marshal([]any{wampSubscribe, jsonAPITopic})
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, sub); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", jsonAPITopic, err)
	}

	s := &EventStream{
		conn:   conn,
		events: make(chan Event, 64),
		done:   make(chan struct{}),
		stop:   make(chan struct{}),
		logger: c.logger.Named("stream"),
	}
	go s.readLoop()

	c.logger.Info("Event stream opened", zap.String("url", c.wsURL))
	return s, nil
}

// Events yields events in arrival order. It is closed when the stream ends.
func (s *EventStream) Events() <-chan Event { return s.events }

// Done is closed once the stream has ended for any reason.
func (s *EventStream) Done() <-chan struct{} { return s.done }

// Err returns the reason the stream ended, nil for a local Close.
func (s *EventStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// CloseCode returns the websocket close code sent by the peer, or -1.
func (s *EventStream) CloseCode() int {
	var ce *websocket.CloseError
	if errors.As(s.Err(), &ce) {
		return ce.Code
	}
	return -1
}

// Close shuts the stream down. It is safe to call more than once.
func (s *EventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		close(s.stop)

		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		err = s.conn.Close()
	})
	return err
}

func (s *EventStream) readLoop() {
	defer close(s.done)
	defer close(s.events)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.finish(err)
			return
		}

		ev, ok, err := decodeFrame(data)
		if err != nil {
			s.logger.Warn("Dropping malformed frame", zap.Error(err))
			continue
		}
		if !ok {
			continue
		}

		select {
		case s.events <- ev:
		case <-s.stop:
			return
		}
	}
}

func (s *EventStream) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return
	}
	s.err = err
	s.logger.Info("Event stream closed", zap.Error(err))
}

// decodeFrame parses [8, "OnJsonApiEvent", {...}]. Other frames are
// ignored.
func decodeFrame(data []byte) (Event, bool, error) {
	if len(data) == 0 {
		return Event{}, false, nil
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{}, false, fmt.Errorf("decode frame: %w", err)
	}
	if len(frame) < 3 {
		return Event{}, false, nil
	}

	var opcode int
	if err := json.Unmarshal(frame[0], &opcode); err != nil || opcode != wampEvent {
		return Event{}, false, nil
	}

	var ev Event
	if err := json.Unmarshal(frame[2], &ev); err != nil {
		return Event{}, false, fmt.Errorf("decode event payload: %w", err)
	}
	return ev, true, nil
}
