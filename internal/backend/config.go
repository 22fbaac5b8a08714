package backend

import (
	"fmt"
	"time"

	"finwallet/internal/config"
	"finwallet/internal/remote/httpapi"
	"finwallet/internal/services"
)

// Config holds what backend creation needs from the application config.
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// http
	RemoteBaseURL string
	RemoteToken   string
	RemoteTimeout time.Duration
	RemoteRPS     float64
	RemoteBurst   int
	// OAuth is set when the mirror authenticates with a refreshed login token.
	OAuth     *httpapi.OAuthSettings
	TokenFile string

	// amqp
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	ConnectivityTimeout time.Duration
	ConnectivityTTL     time.Duration

	Processor services.SyncProcessorConfig
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.SyncBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.SyncBackend)
	}

	var oauth *httpapi.OAuthSettings
	if appConfig.OAuthEnabled() {
		oauth = &httpapi.OAuthSettings{
			ClientID:     appConfig.RemoteOAuthClientID,
			ClientSecret: appConfig.RemoteOAuthClientSecret,
			AuthURL:      appConfig.RemoteOAuthAuthURL,
			TokenURL:     appConfig.RemoteOAuthTokenURL,
			RedirectURL:  fmt.Sprintf("http://localhost:%d/callback", appConfig.RemoteOAuthRedirectPort),
		}
	}

	processor := services.DefaultSyncProcessorConfig()
	processor.BatchSize = appConfig.SyncBatchSize
	processor.PollInterval = appConfig.SyncInterval
	processor.MaxRetries = appConfig.SyncMaxRetries

	return Config{
		Type:         backendType,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		RemoteBaseURL: appConfig.RemoteBaseURL,
		RemoteToken:   appConfig.RemoteToken,
		RemoteTimeout: appConfig.RemoteTimeout,
		RemoteRPS:     appConfig.RemoteRPS,
		RemoteBurst:   appConfig.RemoteBurst,
		OAuth:         oauth,
		TokenFile:     appConfig.RemoteTokenFile,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		ConnectivityTimeout: appConfig.ConnectivityTimeout,
		ConnectivityTTL:     appConfig.ConnectivityTTL,

		Processor: processor,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required")
	}

	switch c.Type {
	case HTTPBackend:
		if c.RemoteBaseURL == "" {
			return fmt.Errorf("remote base URL is required for http backend")
		}
	case AMQPBackend:
		if c.AMQPURL == "" || c.AMQPExchange == "" || c.AMQPQueue == "" {
			return fmt.Errorf("AMQP URL, exchange and queue are required for amqp backend")
		}
	}
	return nil
}

func GetBackendTypes() []BackendType {
	return []BackendType{NoneBackend, MemoryBackend, HTTPBackend, AMQPBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
