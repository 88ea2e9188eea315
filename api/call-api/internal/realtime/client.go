// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	internal_relay "github.com/expertdial/api/call-api/internal/relay"
	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
)

const (
	realtimeEndpoint = "wss://api.openai.com/v1/realtime"
	handshakeTimeout = 30 * time.Second
	maxMessageSize   = 10 * 1024 * 1024
)

// Dialer opens realtime speech sessions. One Dial per call.
type Dialer struct {
	cfg    config.OpenAIConfig
	logger commons.Logger
}

func NewDialer(cfg config.OpenAIConfig, logger commons.Logger) *Dialer {
	return &Dialer{cfg: cfg, logger: logger}
}

// Dial establishes the websocket connection to the realtime speech
// service for one call.
func (d *Dialer) Dial(ctx context.Context) (internal_relay.SpeechConn, error) {
	wsURL, err := url.Parse(realtimeEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse realtime URL: %w", err)
	}
	query := wsURL.Query()
	query.Set("model", d.cfg.RealtimeModel)
	wsURL.RawQuery = query.Encode()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+d.cfg.ApiKey)
	headers.Set("OpenAI-Beta", "realtime=v1")

	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, wsURL.String(), headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to realtime service: %w", err)
	}
	conn.SetReadLimit(maxMessageSize)

	d.logger.Debugf("realtime session connected: model=%s", d.cfg.RealtimeModel)
	return &client{conn: conn, logger: d.logger}, nil
}

// client is the live realtime connection. Sends come from the handshake
// and the inbound relay loop, so writes are serialized behind a mutex;
// reads are single-consumer (the outbound relay loop).
type client struct {
	conn    *websocket.Conn
	logger  commons.Logger
	writeMu sync.Mutex
}

func (c *client) Send(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("realtime write failed: %w", err)
	}
	return nil
}

func (c *client) ReadEvent() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *client) Close() error {
	c.writeMu.Lock()
	err := c.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	c.writeMu.Unlock()
	if err != nil {
		c.logger.Debugf("realtime close message failed: %v", err)
	}
	return c.conn.Close()
}
