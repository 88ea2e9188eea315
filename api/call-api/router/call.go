package call_routers

import (
	"github.com/gin-gonic/gin"

	callApi "github.com/expertdial/api/call-api/api/call"
	internal_relay "github.com/expertdial/api/call-api/internal/relay"
	internal_summary "github.com/expertdial/api/call-api/internal/summary"
	internal_twilio_telephony "github.com/expertdial/api/call-api/internal/telephony/twilio"
	"github.com/expertdial/config"
	"github.com/expertdial/pkg/commons"
)

func ConversationApiRoute(
	cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger,
	caller internal_twilio_telephony.Caller,
	summarizer internal_relay.Summarizer,
	store internal_summary.Store) {
	cApi := callApi.NewCallApi(cfg, logger, caller, summarizer, store)

	apiv1 := engine.Group("v1/conversation")
	{
		apiv1.POST("/create-phone-call", cApi.CreatePhoneCall)
		apiv1.GET("/call-summary/:streamSid", cApi.GetCallSummary)
	}

	// The telephony provider dials the path baked into the TwiML, so the
	// media stream stays off the versioned group.
	engine.GET("/media-stream", cApi.MediaStream)
}
