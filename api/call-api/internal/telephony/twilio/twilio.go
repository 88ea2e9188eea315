// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_twilio_telephony

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
	"github.com/expertdial/pkg/utils"
)

// CallRequest describes one outbound phone call to place.
type CallRequest struct {
	To          string
	Topic       string
	MaxDuration int // seconds; 0 means no hangup timer
}

// Caller places outbound calls that stream their media back to us.
type Caller interface {
	PlaceCall(ctx context.Context, req CallRequest) (string, error)
}

type twl struct {
	logger commons.Logger
	cfg    config.TwilioConfig
	domain string
	client *twilio.RestClient
}

// NewTwilio builds the Twilio-backed caller. domain is the public
// hostname the media stream dials back to.
func NewTwilio(cfg config.TwilioConfig, domain string, logger commons.Logger) Caller {
	return &twl{
		logger: logger,
		cfg:    cfg,
		domain: domain,
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSid,
			Password: cfg.AuthToken,
		}),
	}
}

// PlaceCall creates the call via the Twilio REST API with TwiML that
// connects the answered call to our media-stream websocket.
func (t *twl) PlaceCall(ctx context.Context, req CallRequest) (string, error) {
	if utils.IsEmpty(req.To) {
		return "", fmt.Errorf("phone number is required")
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(req.To)
	params.SetFrom(t.cfg.FromNumber)
	params.SetTwiml(StreamTwiML(t.domain, req.MaxDuration))

	resp, err := t.client.Api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("failed to create call to %s: %w", req.To, err)
	}
	if resp.Sid == nil {
		return "", fmt.Errorf("call created without a sid")
	}

	t.logger.Infof("call initiated: callSid=%s, to=%s, topic=%s", *resp.Sid, req.To, req.Topic)
	return *resp.Sid, nil
}

// StreamTwiML renders the TwiML handed to the telephony provider: connect
// the call to our media-stream endpoint, optionally with a hangup timer
// bounding the call duration.
func StreamTwiML(domain string, maxDuration int) string {
	if maxDuration > 0 {
		return fmt.Sprintf(
			`<?xml version="1.0" encoding="UTF-8"?><Response><Connect><Stream url="wss://%s/media-stream" /></Connect><Hangup timeout="%d"/></Response>`,
			domain, maxDuration)
	}
	return fmt.Sprintf(
		`<?xml version="1.0" encoding="UTF-8"?><Response><Connect><Stream url="wss://%s/media-stream" /></Connect></Response>`,
		domain)
}
