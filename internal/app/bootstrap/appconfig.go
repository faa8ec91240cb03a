// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration; ports, TLS and log level
// stay in WAFFLE's CoreConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Active-circle cookie
	SessionKey    string // Secret key for signing the cookie (must be strong in production)
	SessionName   string // Cookie name (default: circlehub-active)
	SessionDomain string // Cookie domain (blank means current host)

	// Bearer tokens minted after LINE login
	TokenSecret   string // HS256 secret, at least 32 bytes
	TokenIssuer   string
	TokenAudience string
	TokenTTL      time.Duration

	// LINE Login channel
	LineChannelID     string
	LineChannelSecret string
	LineCallbackURL   string // Frontend page LINE redirects to; derived from BaseURL when blank

	// Language model proxy
	OpenAIAPIKey  string
	OpenAIBaseURL string // blank means the public OpenAI API
	OpenAIModel   string

	// Rate limiting. Redis is optional; without it limits are per process.
	RedisURL       string
	LLMRateLimit   int
	LLMRateWindow  time.Duration
	LoginRateLimit int // LINE login attempts per IP per minute

	// Read the client IP from X-Forwarded-For / X-Real-IP. Only enable
	// behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	// CORS
	CORSOrigins []string

	// Base URL of the frontend (e.g., "https://circlehub.example")
	BaseURL string

	// Timeout overrides; zero keeps the defaults in system/timeouts.
	TimeoutShort    time.Duration
	TimeoutMedium   time.Duration
	TimeoutLong     time.Duration
	TimeoutUpstream time.Duration
}
