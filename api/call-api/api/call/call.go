// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package call_api

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	internal_realtime "github.com/expertdial/api/call-api/internal/realtime"
	internal_relay "github.com/expertdial/api/call-api/internal/relay"
	internal_summary "github.com/expertdial/api/call-api/internal/summary"
	internal_twilio_telephony "github.com/expertdial/api/call-api/internal/telephony/twilio"
	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
)

const (
	defaultTopic        = "Your day"
	defaultInstructions = "You are an AI voice assistant to ask the user questions and gather information."
	defaultMaxDuration  = 300 // seconds
)

var mediaStreamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// CreateCallRequest is the body of the create-phone-call endpoint.
type CreateCallRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,e164"`
	Topic       string `json:"topic" binding:"required"`
	MaxDuration *int   `json:"max_duration"`
}

// CallApi serves outbound call placement, the telephony media stream and
// summary retrieval.
type CallApi struct {
	cfg        *config.AppConfig
	logger     commons.Logger
	caller     internal_twilio_telephony.Caller
	dialer     internal_relay.SpeechDialer
	summarizer internal_relay.Summarizer
	store      internal_summary.Store

	// The telephony provider dials the media stream back without any
	// call correlation, so the most recently requested topic is applied
	// to the next stream that connects. Last write wins.
	topicMu      sync.Mutex
	topic        string
	instructions string
}

func NewCallApi(
	cfg *config.AppConfig,
	logger commons.Logger,
	caller internal_twilio_telephony.Caller,
	summarizer internal_relay.Summarizer,
	store internal_summary.Store,
) *CallApi {
	return &CallApi{
		cfg:          cfg,
		logger:       logger,
		caller:       caller,
		dialer:       internal_realtime.NewDialer(cfg.OpenAI, logger),
		summarizer:   summarizer,
		store:        store,
		topic:        defaultTopic,
		instructions: defaultInstructions,
	}
}

// CreatePhoneCall places an outbound call that will stream its media back
// to the media-stream endpoint.
//
// @Router /v1/conversation/create-phone-call [post]
// @Summary Place an outbound phone call about a topic
// @Accept json
// @Produce json
// @Success 202 {object} gin.H
// @Failure 400 {object} gin.H
// @Failure 500 {object} gin.H
func (cApi *CallApi) CreatePhoneCall(c *gin.Context) {
	var req CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxDuration := defaultMaxDuration
	if req.MaxDuration != nil {
		maxDuration = *req.MaxDuration
	}

	cApi.setTopic(req.Topic)

	callSid, err := cApi.caller.PlaceCall(c.Request.Context(), internal_twilio_telephony.CallRequest{
		To:          req.PhoneNumber,
		Topic:       req.Topic,
		MaxDuration: maxDuration,
	})
	if err != nil {
		cApi.logger.Errorf("failed to place call: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "Call initiated",
		"call_sid": callSid,
		"topic":    req.Topic,
	})
}

// GetCallSummary returns the stored transcript and summary for a finished
// call stream.
//
// @Router /v1/conversation/call-summary/:streamSid [get]
// @Summary Get the transcript and summary of a completed call
// @Produce json
// @Success 200 {object} gin.H
// @Failure 404 {object} gin.H
func (cApi *CallApi) GetCallSummary(c *gin.Context) {
	streamSid := c.Param("streamSid")

	record, err := cApi.store.Get(c.Request.Context(), streamSid)
	if err != nil {
		if errors.Is(err, internal_summary.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Summary not found or call still in progress"})
			return
		}
		cApi.logger.Errorf("failed to load summary for %s: %v", streamSid, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load summary"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transcript": record.Transcript,
		"summary":    record.Summary,
	})
}

// MediaStream accepts the telephony provider's media websocket and runs
// the relay bridge for the duration of the call. The HTTP response is the
// websocket itself; by the time the bridge returns, the socket is closed.
func (cApi *CallApi) MediaStream(c *gin.Context) {
	conn, err := mediaStreamUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		cApi.logger.Errorf("media stream upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(maxTelephonyFrameSize)

	topic, instructions := cApi.currentTopic()
	bridge := internal_relay.NewBridge(
		cApi.logger,
		cApi.dialer,
		internal_relay.Handshake{
			Voice:        cApi.cfg.OpenAI.Voice,
			Instructions: instructions,
			Topic:        topic,
			Temperature:  cApi.cfg.OpenAI.Temperature,
		},
		cApi.summarizer,
		cApi.store,
	)

	cApi.logger.Infof("media stream connected: topic=%q", topic)
	if err := bridge.Run(c.Request.Context(), internal_relay.NewTelephonyConn(conn)); err != nil {
		cApi.logger.Errorf("call bridge failed: %v", err)
	}
}

const maxTelephonyFrameSize = 10 * 1024 * 1024

func (cApi *CallApi) setTopic(topic string) {
	cApi.topicMu.Lock()
	defer cApi.topicMu.Unlock()
	cApi.topic = topic
	cApi.instructions = fmt.Sprintf(
		"You are an AI voice assistant to ask the user questions and gather information about the topic of the call: %s", topic)
}

func (cApi *CallApi) currentTopic() (string, string) {
	cApi.topicMu.Lock()
	defer cApi.topicMu.Unlock()
	return cApi.topic, cApi.instructions
}
