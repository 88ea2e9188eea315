package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogFile  string `mapstructure:"log_file"`

	// Domain is the publicly reachable hostname handed to the telephony
	// provider inside TwiML; the media stream dials back to wss://Domain.
	Domain string `mapstructure:"domain" validate:"required"`

	OpenAI  OpenAIConfig  `mapstructure:"openai" validate:"required"`
	Twilio  TwilioConfig  `mapstructure:"twilio" validate:"required"`
	Summary SummaryConfig `mapstructure:"summary"`
}

// OpenAIConfig carries credentials and tuning for the realtime speech
// session and the summarization completions.
type OpenAIConfig struct {
	ApiKey        string  `mapstructure:"api_key" validate:"required"`
	RealtimeModel string  `mapstructure:"realtime_model" validate:"required"`
	SummaryModel  string  `mapstructure:"summary_model" validate:"required"`
	Voice         string  `mapstructure:"voice" validate:"required"`
	Temperature   float64 `mapstructure:"temperature"`
}

type TwilioConfig struct {
	AccountSid string `mapstructure:"account_sid" validate:"required"`
	AuthToken  string `mapstructure:"auth_token" validate:"required"`
	FromNumber string `mapstructure:"from_number" validate:"required"`
}

// SummaryConfig selects the call-summary store backend. "memory" keeps
// records in-process (the default); "postgres" archives them.
type SummaryConfig struct {
	Store       string `mapstructure:"store"`
	PostgresDsn string `mapstructure:"postgres_dsn"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env varaibles.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "call-agent")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 6060)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("DOMAIN", "")

	v.SetDefault("OPENAI__API_KEY", "")
	v.SetDefault("OPENAI__REALTIME_MODEL", "gpt-4o-realtime-preview")
	v.SetDefault("OPENAI__SUMMARY_MODEL", "gpt-4")
	v.SetDefault("OPENAI__VOICE", "alloy")
	v.SetDefault("OPENAI__TEMPERATURE", 0.8)

	v.SetDefault("TWILIO__ACCOUNT_SID", "")
	v.SetDefault("TWILIO__AUTH_TOKEN", "")
	v.SetDefault("TWILIO__FROM_NUMBER", "")

	v.SetDefault("SUMMARY__STORE", "memory")
	v.SetDefault("SUMMARY__POSTGRES_DSN", "")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
