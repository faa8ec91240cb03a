// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/circlehub/internal/app/features/assist"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

const (
	devSessionKey  = "dev-only-change-me-please-0123456789ABCDEF"
	devTokenSecret = "dev-only-token-secret-change-me-0123456789"
)

// appConfigKeys defines the configuration keys for CircleHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: CIRCLEHUB_MONGO_URI, CIRCLEHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "circlehub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "session_key", Default: devSessionKey, Desc: "Active-circle cookie signing key (must be strong in production)"},
	{Name: "session_name", Default: "circlehub-active", Desc: "Active-circle cookie name"},
	{Name: "session_domain", Default: "", Desc: "Cookie domain (blank means current host)"},

	// Bearer tokens
	{Name: "token_secret", Default: devTokenSecret, Desc: "HS256 secret for bearer tokens (32+ bytes)"},
	{Name: "token_issuer", Default: "circlehub", Desc: "Issuer claim for bearer tokens"},
	{Name: "token_audience", Default: "", Desc: "Audience claim for bearer tokens (blank disables the check)"},
	{Name: "token_ttl", Default: "720h", Desc: "Bearer token lifetime (e.g., 24h, 720h)"},

	// LINE Login
	{Name: "line_channel_id", Default: "", Desc: "LINE Login channel ID"},
	{Name: "line_channel_secret", Default: "", Desc: "LINE Login channel secret"},
	{Name: "line_callback_url", Default: "", Desc: "LINE redirect URI (default: base_url + /line/callback)"},

	// Language model
	{Name: "openai_api_key", Default: "", Desc: "OpenAI API key"},
	{Name: "openai_base_url", Default: "", Desc: "OpenAI-compatible API base URL (blank for api.openai.com)"},
	{Name: "openai_model", Default: assist.DefaultModel, Desc: "Chat model for rewrite and make_event"},

	// Rate limiting
	{Name: "redis_url", Default: "", Desc: "Redis URL for shared rate limits (blank: per-process limits)"},
	{Name: "llm_rate_limit", Default: 20, Desc: "Language model requests per user per window"},
	{Name: "llm_rate_window", Default: "1m", Desc: "Language model rate limit window"},
	{Name: "login_rate_limit", Default: 10, Desc: "LINE login requests per IP per minute"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Take the client IP from X-Forwarded-For (only behind a trusted proxy)"},

	// CORS
	{Name: "cors_origins", Default: "*", Desc: "Comma-separated allowed origins ('*' for any)"},

	{Name: "base_url", Default: "http://localhost:5173", Desc: "Base URL of the frontend"},

	// Timeout overrides
	{Name: "timeout_short", Default: "", Desc: "Single-document operation timeout (e.g., 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "List and aggregate read timeout (e.g., 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Multi-collection write timeout (e.g., 30s)"},
	{Name: "timeout_upstream", Default: "", Desc: "Language model call timeout (e.g., 60s)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, CIRCLEHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "CIRCLEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),

		TokenSecret:   appValues.String("token_secret"),
		TokenIssuer:   appValues.String("token_issuer"),
		TokenAudience: appValues.String("token_audience"),
		TokenTTL:      appValues.Duration("token_ttl", 720*time.Hour),

		LineChannelID:     appValues.String("line_channel_id"),
		LineChannelSecret: appValues.String("line_channel_secret"),
		LineCallbackURL:   appValues.String("line_callback_url"),

		OpenAIAPIKey:  appValues.String("openai_api_key"),
		OpenAIBaseURL: appValues.String("openai_base_url"),
		OpenAIModel:   appValues.String("openai_model"),

		RedisURL:       appValues.String("redis_url"),
		LLMRateLimit:   appValues.Int("llm_rate_limit"),
		LLMRateWindow:  appValues.Duration("llm_rate_window", time.Minute),
		LoginRateLimit: appValues.Int("login_rate_limit"),

		TrustProxyHeaders: appValues.Bool("trust_proxy_headers"),

		CORSOrigins: splitList(appValues.String("cors_origins")),

		BaseURL: appValues.String("base_url"),

		TimeoutShort:    appValues.Duration("timeout_short", 0),
		TimeoutMedium:   appValues.Duration("timeout_medium", 0),
		TimeoutLong:     appValues.Duration("timeout_long", 0),
		TimeoutUpstream: appValues.Duration("timeout_upstream", 0),
	}

	if appCfg.LineCallbackURL == "" {
		appCfg.LineCallbackURL = strings.TrimRight(appCfg.BaseURL, "/") + "/line/callback"
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Development defaults for secrets are rejected in production.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg, logger)
}

func validateApp(env string, appCfg AppConfig, logger *zap.Logger) error {
	if len(appCfg.TokenSecret) < 32 {
		return fmt.Errorf("token_secret must be at least 32 bytes")
	}
	if env == "prod" {
		if appCfg.TokenSecret == devTokenSecret {
			return fmt.Errorf("token_secret must be set in production")
		}
		if appCfg.SessionKey == devSessionKey {
			return fmt.Errorf("session_key must be set in production")
		}
	}
	if appCfg.LLMRateLimit < 0 || appCfg.LoginRateLimit < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if appCfg.LLMRateLimit > 0 && appCfg.LLMRateWindow <= 0 {
		return fmt.Errorf("llm_rate_window must be positive")
	}
	if len(appCfg.CORSOrigins) == 0 {
		return fmt.Errorf("cors_origins must list at least one origin")
	}

	if appCfg.LineChannelID == "" || appCfg.LineChannelSecret == "" {
		logger.Warn("LINE login not configured; /api/auth/line will answer 503")
	}
	if appCfg.OpenAIAPIKey == "" {
		logger.Warn("openai_api_key is empty; rewrite and make_event will fail upstream")
	}
	return nil
}

// splitList parses a comma-separated config value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
