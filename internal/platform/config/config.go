package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the gateway client and the bridge service.
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Remote video KYC gateway
	GatewayEnv             string `mapstructure:"GATEWAY_ENV"`      // "production" or "uat"
	GatewayBaseURL         string `mapstructure:"GATEWAY_BASE_URL"` // Overrides the environment default when set
	GatewayTimeoutMS       int    `mapstructure:"GATEWAY_TIMEOUT_MS"`
	GatewayToken           string `mapstructure:"GATEWAY_TOKEN"`
	GatewayTokenRefreshURL string `mapstructure:"GATEWAY_TOKEN_REFRESH_URL"`

	// Endpoint paths, may contain :name placeholders
	EndpointConfigInfo      string `mapstructure:"ENDPOINT_CONFIG_INFO"`
	EndpointCreateMeeting   string `mapstructure:"ENDPOINT_CREATE_MEETING"`
	EndpointSaveLog         string `mapstructure:"ENDPOINT_SAVE_LOG"`
	EndpointSubmit          string `mapstructure:"ENDPOINT_SUBMIT"`
	EndpointHook            string `mapstructure:"ENDPOINT_HOOK"`
	EndpointCloseVideo      string `mapstructure:"ENDPOINT_CLOSE_VIDEO"`
	EndpointContractList    string `mapstructure:"ENDPOINT_CONTRACT_LIST"`
	EndpointContractURL     string `mapstructure:"ENDPOINT_CONTRACT_URL"`
	EndpointConfirmContract string `mapstructure:"ENDPOINT_CONFIRM_CONTRACT"`
	EndpointRateCall        string `mapstructure:"ENDPOINT_RATE_CALL"`

	// Public address discovery
	IPLookupURL       string `mapstructure:"IP_LOOKUP_URL"`
	IPLookupTimeoutMS int    `mapstructure:"IP_LOOKUP_TIMEOUT_MS"`

	// Bridge Service Specific
	BridgeHTTPPort       int     `mapstructure:"BRIDGE_HTTP_PORT"`
	BridgeGRPCHealthPort int     `mapstructure:"BRIDGE_GRPC_HEALTH_PORT"`
	BridgeJWTSecret      string  `mapstructure:"BRIDGE_JWT_SECRET"`
	BridgeRateLimitRPS   float64 `mapstructure:"BRIDGE_RATE_LIMIT_RPS"`
	BridgeRateLimitBurst int     `mapstructure:"BRIDGE_RATE_LIMIT_BURST"`
}

// GatewayTimeout returns the configured gateway timeout as a duration.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.GatewayTimeoutMS) * time.Millisecond
}

// IPLookupTimeout returns the configured address discovery budget as a duration.
func (c *Config) IPLookupTimeout() time.Duration {
	return time.Duration(c.IPLookupTimeoutMS) * time.Millisecond
}

// Load reads configName.yaml from configPath (and the usual fallbacks), then
// applies APP_-prefixed environment overrides on top of the defaults below.
func Load(configPath, configName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")    // For running from cmd/bridge_service
	v.AddConfigPath("../../configs") // For running from tests within an internal package

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP") // APP_LOG_LEVEL, APP_GATEWAY_TOKEN etc.

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Configuration file '%s.yaml' not found; using defaults and environment variables.", configName)
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("GATEWAY_ENV", "uat")
	v.SetDefault("GATEWAY_BASE_URL", "")
	v.SetDefault("GATEWAY_TIMEOUT_MS", 30000)
	v.SetDefault("GATEWAY_TOKEN", "")
	v.SetDefault("GATEWAY_TOKEN_REFRESH_URL", "")

	v.SetDefault("ENDPOINT_CONFIG_INFO", "/api/v1/vkyc/config")
	v.SetDefault("ENDPOINT_CREATE_MEETING", "/api/v1/vkyc/appointments/:id/meeting")
	v.SetDefault("ENDPOINT_SAVE_LOG", "/api/v1/vkyc/logs")
	v.SetDefault("ENDPOINT_SUBMIT", "/api/v1/vkyc/submit")
	v.SetDefault("ENDPOINT_HOOK", "/api/v1/vkyc/hook")
	v.SetDefault("ENDPOINT_CLOSE_VIDEO", "/api/v1/vkyc/video/close")
	v.SetDefault("ENDPOINT_CONTRACT_LIST", "/api/v1/vkyc/contracts")
	v.SetDefault("ENDPOINT_CONTRACT_URL", "/api/v1/vkyc/contracts/:id/url")
	v.SetDefault("ENDPOINT_CONFIRM_CONTRACT", "/api/v1/vkyc/contracts/:id/confirm")
	v.SetDefault("ENDPOINT_RATE_CALL", "/api/v1/vkyc/rating")

	v.SetDefault("IP_LOOKUP_URL", "https://api.ipify.org?format=json")
	v.SetDefault("IP_LOOKUP_TIMEOUT_MS", 3000)

	v.SetDefault("BRIDGE_HTTP_PORT", 8090)
	v.SetDefault("BRIDGE_GRPC_HEALTH_PORT", 50090)
	v.SetDefault("BRIDGE_JWT_SECRET", "")
	v.SetDefault("BRIDGE_RATE_LIMIT_RPS", 20.0)
	v.SetDefault("BRIDGE_RATE_LIMIT_BURST", 40)
}
