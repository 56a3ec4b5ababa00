package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wricardo/tile-pairs-game/game/engine"
	wshub "github.com/wricardo/tile-pairs-game/transport/websocket"
)

// Message is one WebSocket update. Board is set for state updates and
// Event for game events.
type Message struct {
	SessionID string
	Board     *engine.Snapshot
	Event     *engine.Event
}

type wireMessage struct {
	SessionID string           `json:"session_id"`
	Board     *engine.Snapshot `json:"board,omitempty"`
	Event     string           `json:"event,omitempty"`
	Data      json.RawMessage  `json:"data,omitempty"`
}

// decodeMessage turns a hub frame into a Message
func decodeMessage(data []byte) (Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return Message{}, err
	}

	msg := Message{SessionID: wire.SessionID, Board: wire.Board}
	if wire.Event == wshub.EventGame && len(wire.Data) > 0 {
		var ev engine.Event
		if err := json.Unmarshal(wire.Data, &ev); err != nil {
			return Message{}, err
		}
		msg.Event = &ev
	}
	return msg, nil
}

// streamURL returns the WebSocket address for the bound session
func (c *Client) streamURL() (string, error) {
	if c.sessionID == "" {
		return "", ErrNoSession
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("session", c.sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Stream delivers updates for the bound session to fn until ctx is
// cancelled. Dropped connections are redialed with exponential backoff; a
// session the server no longer knows ends the stream with an error.
func (c *Client) Stream(ctx context.Context, fn func(Message)) error {
	wsURL, err := c.streamURL()
	if err != nil {
		return err
	}

	b := c.backoff()
	for {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return &APIError{StatusCode: resp.StatusCode, Message: "session not found"}
			}

			delay := b.Duration()
			c.logger.Debug("websocket dial failed", zap.Duration("retry_in", delay), zap.Error(err))
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			continue
		}

		b.Reset()
		c.logger.Debug("websocket connected", zap.String("session_id", c.sessionID))
		err = c.read(ctx, conn, fn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := b.Duration()
		c.logger.Debug("websocket disconnected", zap.Duration("retry_in", delay), zap.Error(err))
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// read pumps one connection until it fails or ctx ends
func (c *Client) read(ctx context.Context, conn *websocket.Conn, fn func(Message)) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := decodeMessage(data)
		if err != nil {
			c.logger.Warn("bad websocket message", zap.Error(err))
			continue
		}
		fn(msg)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
