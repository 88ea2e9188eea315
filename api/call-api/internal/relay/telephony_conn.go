// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay

import (
	"sync"

	"github.com/gorilla/websocket"
)

// telephonyConn adapts an upgraded gorilla connection to TelephonyConn.
// Reads happen only on the inbound loop and writes only on the outbound
// loop, but the write mutex also covers the close handshake.
type telephonyConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewTelephonyConn wraps the websocket accepted from the telephony
// provider.
func NewTelephonyConn(conn *websocket.Conn) TelephonyConn {
	return &telephonyConn{conn: conn}
}

func (t *telephonyConn) ReadFrame() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *telephonyConn) WriteFrame(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *telephonyConn) Close() error {
	t.writeMu.Lock()
	_ = t.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	t.writeMu.Unlock()
	return t.conn.Close()
}
