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

// =============================================================================
// Inbound events (telephony socket -> relay)
// =============================================================================

// InboundKind classifies a frame received from the telephony socket.
type InboundKind int

const (
	// InboundOther is any recognized-but-unhandled telephony event
	// (connected, mark, dtmf, ...). Forward-compatible: new event types
	// must not break the relay.
	InboundOther InboundKind = iota
	InboundStart
	InboundMedia
	InboundStop
)

// InboundEvent is the parsed form of one telephony frame.
type InboundEvent struct {
	Kind      InboundKind
	StreamSid string // set for InboundStart
	Payload   string // set for InboundMedia; opaque base64, never decoded
	Event     string // raw event name, kept for logging
}

type inboundFrame struct {
	Event string `json:"event"`
	Start *struct {
		StreamSid string `json:"streamSid"`
	} `json:"start,omitempty"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media,omitempty"`
}

// ParseInboundEvent decodes one telephony text frame. Unparseable frames
// return an error; the caller logs and skips them.
func ParseInboundEvent(data []byte) (InboundEvent, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return InboundEvent{}, fmt.Errorf("malformed telephony frame: %w", err)
	}

	ev := InboundEvent{Event: frame.Event}
	switch frame.Event {
	case "start":
		ev.Kind = InboundStart
		if frame.Start != nil {
			ev.StreamSid = frame.Start.StreamSid
		}
	case "media":
		ev.Kind = InboundMedia
		if frame.Media != nil {
			ev.Payload = frame.Media.Payload
		}
	case "stop":
		ev.Kind = InboundStop
	default:
		ev.Kind = InboundOther
	}
	return ev, nil
}

// =============================================================================
// Outbound events (speech-service socket -> relay)
// =============================================================================

// OutboundKind classifies an event received from the speech service.
type OutboundKind int

const (
	// OutboundOther is an unrecognized event type, ignored silently so
	// new upstream event types degrade gracefully.
	OutboundOther OutboundKind = iota
	OutboundSessionCreated
	OutboundAudioDelta
	OutboundTextDelta
	OutboundSessionDone
	OutboundInformational
)

// OutboundEvent is the parsed form of one speech-service event.
type OutboundEvent struct {
	Kind  OutboundKind
	Delta string // base64 audio for AudioDelta, text fragment for TextDelta
	Type  string // raw event type, kept for logging
}

type outboundFrame struct {
	Type  string          `json:"type"`
	Delta json.RawMessage `json:"delta,omitempty"`
}

// informationalEvents are logged and otherwise ignored by the outbound loop.
var informationalEvents = map[string]struct{}{
	"error":                             {},
	"response.content.done":             {},
	"rate_limits.updated":               {},
	"response.done":                     {},
	"input_audio_buffer.committed":      {},
	"input_audio_buffer.speech_stopped": {},
	"input_audio_buffer.speech_started": {},
	"session.updated":                   {},
}

// ParseOutboundEvent decodes one speech-service event frame.
func ParseOutboundEvent(data []byte) (OutboundEvent, error) {
	var frame outboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return OutboundEvent{}, fmt.Errorf("malformed speech-service event: %w", err)
	}

	ev := OutboundEvent{Type: frame.Type}
	switch frame.Type {
	case "session.created":
		ev.Kind = OutboundSessionCreated
	case "response.audio.delta":
		ev.Kind = OutboundAudioDelta
		ev.Delta = decodeDelta(frame.Delta)
	case "response.content.delta", "response.text_delta":
		ev.Kind = OutboundTextDelta
		ev.Delta = decodeDelta(frame.Delta)
	case "session.done":
		ev.Kind = OutboundSessionDone
	default:
		if _, ok := informationalEvents[frame.Type]; ok {
			ev.Kind = OutboundInformational
		} else {
			ev.Kind = OutboundOther
		}
	}
	return ev, nil
}

// decodeDelta accepts the two delta shapes the speech service emits: a bare
// string, or an object carrying a "text" field.
func decodeDelta(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Text
	}
	return ""
}

// =============================================================================
// Outgoing envelopes
// =============================================================================

type mediaEnvelope struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid"`
	Media     struct {
		Payload string `json:"payload"`
	} `json:"media"`
}

// MediaFrame wraps a base64 audio payload into the telephony media-frame
// envelope addressed to streamSid. The payload passes through untouched.
func MediaFrame(streamSid, payload string) ([]byte, error) {
	env := mediaEnvelope{Event: "media", StreamSid: streamSid}
	env.Media.Payload = payload
	return json.Marshal(env)
}

type audioAppendCommand struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// AudioAppend builds the speech-service append-audio-buffer command for a
// base64 payload, unchanged.
func AudioAppend(payload string) ([]byte, error) {
	return json.Marshal(audioAppendCommand{
		Type:  "input_audio_buffer.append",
		Audio: payload,
	})
}
