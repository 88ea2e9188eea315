// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay

import (
	"encoding/json"
	"fmt"
)

// Handshake carries the one-time session setup sent to the speech service
// before any audio flows: the session configuration, a priming
// conversation item that makes the assistant speak first, and the
// response-generation request. All three must be flushed before either
// relay loop touches the socket — the speech service treats session
// configuration as one-time setup.
type Handshake struct {
	Voice        string
	Instructions string
	Topic        string
	Temperature  float64
}

type turnDetection struct {
	Type string `json:"type"`
}

type sessionConfig struct {
	TurnDetection     turnDetection `json:"turn_detection"`
	InputAudioFormat  string        `json:"input_audio_format"`
	OutputAudioFormat string        `json:"output_audio_format"`
	Voice             string        `json:"voice"`
	Instructions      string        `json:"instructions"`
	Modalities        []string      `json:"modalities"`
	Temperature       float64       `json:"temperature"`
}

type sessionUpdate struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type conversationItem struct {
	Type string `json:"type"`
	Item struct {
		Type    string `json:"type"`
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"item"`
}

type responseCreate struct {
	Type string `json:"type"`
}

// Messages builds the handshake frames in send order.
func (h Handshake) Messages() ([][]byte, error) {
	update := sessionUpdate{
		Type: "session.update",
		Session: sessionConfig{
			TurnDetection:     turnDetection{Type: "server_vad"},
			InputAudioFormat:  "g711_ulaw",
			OutputAudioFormat: "g711_ulaw",
			Voice:             h.Voice,
			Instructions:      h.Instructions,
			Modalities:        []string{"text", "audio"},
			Temperature:       h.Temperature,
		},
	}

	priming := conversationItem{Type: "conversation.item.create"}
	priming.Item.Type = "message"
	priming.Item.Role = "user"
	priming.Item.Content = []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{{
		Type: "input_text",
		Text: fmt.Sprintf("Hello! I'd love to hear your thoughts on %s. What do you think about it?", h.Topic),
	}}

	frames := make([][]byte, 0, 3)
	for _, msg := range []interface{}{update, priming, responseCreate{Type: "response.create"}} {
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal handshake message: %w", err)
		}
		frames = append(frames, data)
	}
	return frames, nil
}

// Perform sends the handshake frames on the speech-service socket, in
// order, stopping at the first failed send.
func (h Handshake) Perform(speech SpeechConn) error {
	frames, err := h.Messages()
	if err != nil {
		return err
	}
	for _, frame := range frames {
		if err := speech.Send(frame); err != nil {
			return fmt.Errorf("handshake send failed: %w", err)
		}
	}
	return nil
}
