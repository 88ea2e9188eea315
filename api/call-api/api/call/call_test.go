// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.

package call_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internal_summary "github.com/expertdial/api/call-api/internal/summary"
	internal_twilio_telephony "github.com/expertdial/api/call-api/internal/telephony/twilio"
	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
)

// ============================================================================
// Test helpers
// ============================================================================

type stubCaller struct {
	callSid string
	err     error
	last    internal_twilio_telephony.CallRequest
}

func (s *stubCaller) PlaceCall(_ context.Context, req internal_twilio_telephony.CallRequest) (string, error) {
	s.last = req
	if s.err != nil {
		return "", s.err
	}
	return s.callSid, nil
}

type stubSummarizer struct{}

func (stubSummarizer) Summarize(_ context.Context, transcript string) internal_summary.Result {
	return internal_summary.Result{Transcript: transcript, Summary: "stub"}
}

func newTestApi(t *testing.T, caller internal_twilio_telephony.Caller, store internal_summary.Store) *CallApi {
	t.Helper()
	logger, err := commons.NewApplicationLogger()
	require.NoError(t, err)
	cfg := &config.AppConfig{
		Name:    "call-agent",
		Version: "test",
		OpenAI:  config.OpenAIConfig{Voice: "alloy", Temperature: 0.8},
	}
	return NewCallApi(cfg, logger, caller, stubSummarizer{}, store)
}

func performJSON(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(recorder, req)
	return recorder
}

// ============================================================================
// CreatePhoneCall
// ============================================================================

func TestCreatePhoneCall_Accepted(t *testing.T) {
	gin.SetMode(gin.TestMode)
	caller := &stubCaller{callSid: "CA123"}
	cApi := newTestApi(t, caller, internal_summary.NewMemoryStore())

	engine := gin.New()
	engine.POST("/create-phone-call", cApi.CreatePhoneCall)

	recorder := performJSON(engine, http.MethodPost, "/create-phone-call",
		`{"phone_number":"+15551230000","topic":"the weather"}`)

	assert.Equal(t, http.StatusAccepted, recorder.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Call initiated", body["message"])
	assert.Equal(t, "CA123", body["call_sid"])
	assert.Equal(t, "the weather", body["topic"])

	assert.Equal(t, "+15551230000", caller.last.To)
	assert.Equal(t, defaultMaxDuration, caller.last.MaxDuration)
}

func TestCreatePhoneCall_ExplicitMaxDuration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	caller := &stubCaller{callSid: "CA123"}
	cApi := newTestApi(t, caller, internal_summary.NewMemoryStore())

	engine := gin.New()
	engine.POST("/create-phone-call", cApi.CreatePhoneCall)

	recorder := performJSON(engine, http.MethodPost, "/create-phone-call",
		`{"phone_number":"+15551230000","topic":"golang","max_duration":60}`)

	assert.Equal(t, http.StatusAccepted, recorder.Code)
	assert.Equal(t, 60, caller.last.MaxDuration)
}

func TestCreatePhoneCall_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cApi := newTestApi(t, &stubCaller{}, internal_summary.NewMemoryStore())

	engine := gin.New()
	engine.POST("/create-phone-call", cApi.CreatePhoneCall)

	recorder := performJSON(engine, http.MethodPost, "/create-phone-call", `{"topic":"golang"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreatePhoneCall_RejectsNonE164Number(t *testing.T) {
	gin.SetMode(gin.TestMode)
	caller := &stubCaller{callSid: "CA123"}
	cApi := newTestApi(t, caller, internal_summary.NewMemoryStore())

	engine := gin.New()
	engine.POST("/create-phone-call", cApi.CreatePhoneCall)

	for _, number := range []string{"555-123-0000", "15551230000", "+1 555 123"} {
		recorder := performJSON(engine, http.MethodPost, "/create-phone-call",
			`{"phone_number":"`+number+`","topic":"golang"}`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, number)
	}
	assert.Empty(t, caller.last.To, "provider must not be reached with an invalid number")
}

func TestCreatePhoneCall_ProviderFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	caller := &stubCaller{err: errors.New("twilio unavailable")}
	cApi := newTestApi(t, caller, internal_summary.NewMemoryStore())

	engine := gin.New()
	engine.POST("/create-phone-call", cApi.CreatePhoneCall)

	recorder := performJSON(engine, http.MethodPost, "/create-phone-call",
		`{"phone_number":"+15551230000","topic":"golang"}`)
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "twilio unavailable")
}

func TestCreatePhoneCall_UpdatesTopicForNextStream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cApi := newTestApi(t, &stubCaller{callSid: "CA1"}, internal_summary.NewMemoryStore())

	engine := gin.New()
	engine.POST("/create-phone-call", cApi.CreatePhoneCall)

	performJSON(engine, http.MethodPost, "/create-phone-call",
		`{"phone_number":"+15551230000","topic":"first topic"}`)
	performJSON(engine, http.MethodPost, "/create-phone-call",
		`{"phone_number":"+15551230000","topic":"second topic"}`)

	topic, instructions := cApi.currentTopic()
	assert.Equal(t, "second topic", topic)
	assert.Contains(t, instructions, "second topic")
}

// ============================================================================
// GetCallSummary
// ============================================================================

func TestGetCallSummary_Found(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := internal_summary.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), internal_summary.Record{
		StreamSid:  "CA123",
		Transcript: "hello world",
		Summary:    "a greeting",
	}))
	cApi := newTestApi(t, &stubCaller{}, store)

	engine := gin.New()
	engine.GET("/call-summary/:streamSid", cApi.GetCallSummary)

	recorder := performJSON(engine, http.MethodGet, "/call-summary/CA123", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"transcript":"hello world","summary":"a greeting"}`, recorder.Body.String())
}

func TestGetCallSummary_NotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cApi := newTestApi(t, &stubCaller{}, internal_summary.NewMemoryStore())

	engine := gin.New()
	engine.GET("/call-summary/:streamSid", cApi.GetCallSummary)

	recorder := performJSON(engine, http.MethodGet, "/call-summary/CAmissing", "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, `{"error":"Summary not found or call still in progress"}`, recorder.Body.String())
}
