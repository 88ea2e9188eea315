// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	internal_summary "github.com/expertdial/api/call-api/internal/summary"
	"github.com/expertdial/pkg/commons"
)

// SpeechConn is the relay's view of the speech-service socket.
type SpeechConn interface {
	Send(data []byte) error
	ReadEvent() ([]byte, error)
	Close() error
}

// TelephonyConn is the relay's view of the telephony socket.
type TelephonyConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
	Close() error
}

// SpeechDialer opens the speech-service connection for one call.
type SpeechDialer interface {
	Dial(ctx context.Context) (SpeechConn, error)
}

// Summarizer is the teardown-path dependency of the outbound loop.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) internal_summary.Result
}

// State tracks where a bridge is in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateHandshaking
	StateRelaying
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateRelaying:
		return "relaying"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Bridge owns one call's pair of sockets. It dials the speech service,
// runs the handshake, then runs the two forwarding loops concurrently and
// tears both sockets down when either loop exits. Socket closure is the
// only cancellation mechanism between the loops: the surviving loop's
// next blocking read or write fails fast and it exits.
type Bridge struct {
	logger     commons.Logger
	dialer     SpeechDialer
	handshake  Handshake
	summarizer Summarizer
	store      internal_summary.Store

	session *CallSession
	state   atomic.Int32
}

// NewBridge builds a bridge for a single call with a fresh CallSession.
func NewBridge(
	logger commons.Logger,
	dialer SpeechDialer,
	handshake Handshake,
	summarizer Summarizer,
	store internal_summary.Store,
) *Bridge {
	return &Bridge{
		logger:     logger,
		dialer:     dialer,
		handshake:  handshake,
		summarizer: summarizer,
		store:      store,
		session:    NewCallSession(),
	}
}

// Session exposes the call session, mainly for handlers and tests.
func (b *Bridge) Session() *CallSession {
	return b.session
}

// State returns the bridge's current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

func (b *Bridge) setState(s State) {
	b.state.Store(int32(s))
}

// Run drives the bridge from Connecting to Closed. The telephony
// connection is already accepted by the HTTP layer; Run always closes it
// before returning. An error is returned only for setup failures
// (speech-service dial or handshake) — those are fatal for the call, with
// no retry, because the caller is already live on the line and silence is
// worse than a dropped call. Once relaying starts, Run returns nil no
// matter how the call ends.
func (b *Bridge) Run(ctx context.Context, telephony TelephonyConn) error {
	b.setState(StateConnecting)

	speech, err := b.dialer.Dial(ctx)
	if err != nil {
		b.setState(StateClosed)
		_ = telephony.Close()
		return fmt.Errorf("failed to open speech-service connection: %w", err)
	}

	b.setState(StateHandshaking)
	if err := b.handshake.Perform(speech); err != nil {
		b.setState(StateClosed)
		_ = speech.Close()
		_ = telephony.Close()
		return fmt.Errorf("session handshake failed: %w", err)
	}

	b.setState(StateRelaying)

	// First loop to exit, for any reason, closes both sockets so the
	// other loop observes a dead socket instead of blocking forever.
	var teardown sync.Once
	closeBoth := func() {
		teardown.Do(func() {
			b.setState(StateClosing)
			_ = speech.Close()
			_ = telephony.Close()
		})
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		defer closeBoth()
		b.inboundLoop(telephony, speech)
		return nil
	})
	g.Go(func() error {
		defer closeBoth()
		b.outboundLoop(ctx, speech, telephony)
		return nil
	})
	_ = g.Wait()

	b.setState(StateClosed)
	b.logger.Infof("call bridge closed: streamSid=%q, terminated=%v", b.session.StreamSid(), b.session.Terminated())
	return nil
}

// inboundLoop forwards caller audio from the telephony socket to the
// speech service and captures the stream sid from the start event.
func (b *Bridge) inboundLoop(telephony TelephonyConn, speech SpeechConn) {
	for {
		frame, err := telephony.ReadFrame()
		if err != nil {
			// A closed telephony socket is how a hangup is discovered.
			if isDisconnect(err) {
				b.logger.Debugf("telephony stream disconnected")
			} else {
				b.logger.Errorf("telephony read failed: %v", err)
			}
			return
		}

		ev, err := ParseInboundEvent(frame)
		if err != nil {
			b.logger.Warnf("skipping telephony frame: %v", err)
			continue
		}

		switch ev.Kind {
		case InboundMedia:
			cmd, err := AudioAppend(ev.Payload)
			if err != nil {
				b.logger.Warnf("skipping media frame: %v", err)
				continue
			}
			if err := speech.Send(cmd); err != nil {
				// A dropped input stream cannot be resumed mid-call.
				if isDisconnect(err) {
					b.logger.Debugf("speech-service stream closed while forwarding audio")
				} else {
					b.logger.Errorf("audio forward failed: %v", err)
				}
				return
			}
		case InboundStart:
			b.session.SetStreamSid(ev.StreamSid)
			b.logger.Infof("media stream started: streamSid=%s", ev.StreamSid)
		case InboundStop:
			b.logger.Debugf("media stream stop event: streamSid=%q", b.session.StreamSid())
		default:
			b.logger.Debugf("ignoring telephony event: %s", ev.Event)
		}
	}
}

// outboundLoop forwards synthesized audio to the telephony socket,
// accumulates text deltas into the transcript, and triggers the
// summarizer when the speech service signals session completion.
func (b *Bridge) outboundLoop(ctx context.Context, speech SpeechConn, telephony TelephonyConn) {
	for {
		data, err := speech.ReadEvent()
		if err != nil {
			if isDisconnect(err) {
				b.logger.Debugf("speech-service stream disconnected")
			} else {
				b.logger.Errorf("speech-service read failed: %v", err)
			}
			return
		}

		ev, err := ParseOutboundEvent(data)
		if err != nil {
			b.logger.Warnf("skipping speech-service event: %v", err)
			continue
		}

		switch ev.Kind {
		case OutboundAudioDelta:
			if ev.Delta == "" {
				continue
			}
			// Addressed with whatever sid is currently known, empty
			// included; one bad frame must not drop the call.
			frame, err := MediaFrame(b.session.StreamSid(), ev.Delta)
			if err != nil {
				b.logger.Errorf("failed to encode media frame: %v", err)
				continue
			}
			if err := telephony.WriteFrame(frame); err != nil {
				b.logger.Errorf("failed to send media frame: %v", err)
				continue
			}
		case OutboundTextDelta:
			if ev.Delta != "" {
				b.session.AppendTranscript(ev.Delta)
			}
		case OutboundSessionDone:
			b.finish(ctx)
			return
		case OutboundSessionCreated, OutboundInformational:
			b.logger.Debugf("speech-service event: %s", ev.Type)
		default:
			// Unrecognized event types are ignored so new upstream
			// events cannot break the relay.
		}
	}
}

// finish runs the summarizer synchronously and stores the record keyed by
// the stream sid known at termination time.
func (b *Bridge) finish(ctx context.Context) {
	result := b.summarizer.Summarize(ctx, b.session.Transcript())

	streamSid := b.session.StreamSid()
	if streamSid == "" {
		// Session completed before a start event ever arrived; there is
		// no key to file the record under.
		b.logger.Warnf("session done without a stream sid, dropping summary")
	} else if err := b.store.Save(ctx, internal_summary.Record{
		StreamSid:  streamSid,
		Transcript: result.Transcript,
		Summary:    result.Summary,
	}); err != nil {
		b.logger.Errorf("failed to store call summary: %v", err)
	}

	b.session.MarkTerminated()
	b.logger.Infof("session done: streamSid=%q", streamSid)
}

// isDisconnect reports whether err is a normal end-of-stream: a websocket
// close, a locally closed socket, or plain EOF. These are the expected
// termination path, not anomalies to retry.
func isDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure,
	) {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
