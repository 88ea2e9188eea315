// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay

import (
	"strings"
	"sync"
	"sync/atomic"
)

// CallSession is the per-call relay state shared by the two forwarding
// loops. The stream sid has exactly one writer (the inbound loop) and one
// reader (the outbound loop); it is held in an atomic so the reader sees
// writes without a lock. The transcript is appended only by the outbound
// loop but is guarded anyway so late readers (handlers, tests) are safe.
type CallSession struct {
	streamSid  atomic.Value // string
	terminated atomic.Bool

	mu         sync.Mutex
	transcript []string
}

func NewCallSession() *CallSession {
	s := &CallSession{}
	s.streamSid.Store("")
	return s
}

// SetStreamSid records the telephony stream identifier. Repeated start
// events overwrite it, last write wins.
func (s *CallSession) SetStreamSid(sid string) {
	s.streamSid.Store(sid)
}

// StreamSid returns the currently-known stream identifier, which is the
// empty string until the first start event has been observed. Outbound
// media frames are addressed with whatever value is current; frames sent
// before the start event carry an empty sid and are dropped by the
// telephony side. That race is accepted rather than buffered around.
func (s *CallSession) StreamSid() string {
	return s.streamSid.Load().(string)
}

// AppendTranscript adds one text fragment in receipt order.
func (s *CallSession) AppendTranscript(fragment string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, fragment)
}

// Transcript returns the fragments concatenated verbatim, no separators.
func (s *CallSession) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.transcript, "")
}

// Fragments returns a copy of the accumulated fragments.
func (s *CallSession) Fragments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// MarkTerminated flags the session as cleanly finished by the speech
// service. Set at most once, by the outbound loop.
func (s *CallSession) MarkTerminated() {
	s.terminated.Store(true)
}

func (s *CallSession) Terminated() bool {
	return s.terminated.Load()
}
