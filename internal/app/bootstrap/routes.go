// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	assistfeature "github.com/dalemusser/circlehub/internal/app/features/assist"
	authlinefeature "github.com/dalemusser/circlehub/internal/app/features/authline"
	circlesfeature "github.com/dalemusser/circlehub/internal/app/features/circles"
	eventsfeature "github.com/dalemusser/circlehub/internal/app/features/events"
	healthfeature "github.com/dalemusser/circlehub/internal/app/features/health"
	mefeature "github.com/dalemusser/circlehub/internal/app/features/me"
	"github.com/dalemusser/circlehub/internal/app/system/activecircle"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// CircleHub is a JSON API: CORS and bearer-token identity are applied
// globally, /health and the LINE login endpoints are public, and everything
// else lives under /api/v1 behind RequireSignedIn.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"

	verifier, err := auth.NewVerifier(appCfg.TokenSecret, appCfg.TokenIssuer, appCfg.TokenAudience, appCfg.TokenTTL, logger)
	if err != nil {
		logger.Error("token verifier init failed", zap.Error(err))
		return nil, err
	}

	active, err := activecircle.NewStore(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, logger)
	if err != nil {
		logger.Error("active circle store init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(corsMiddleware(appCfg.CORSOrigins))
	r.Use(verifier.LoadIdentity)

	// Health check endpoint for load balancers and orchestrators.
	// A nil *redis.Client must not become a non-nil interface.
	var cache redis.UniversalClient
	if deps.Redis != nil {
		cache = deps.Redis
	}
	healthHandler := healthfeature.NewHandler(deps.MongoClient, cache, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// LINE login, limited per client IP.
	lineHandler := authlinefeature.NewHandler(deps.MongoDatabase, verifier, authlinefeature.Config{
		ChannelID:     appCfg.LineChannelID,
		ChannelSecret: appCfg.LineChannelSecret,
		RedirectURL:   appCfg.LineCallbackURL,
	}, logger)
	var loginLimit func(http.Handler) http.Handler
	if appCfg.LoginRateLimit > 0 {
		loginLimit = ratelimit.Middleware(ratelimit.NewMemory(appCfg.LoginRateLimit, time.Minute), ratelimit.IPKeys{TrustProxy: appCfg.TrustProxyHeaders}.ByIP, time.Minute, logger)
	}
	authlinefeature.MountRoutes(r, lineHandler, loginLimit)

	meHandler := mefeature.NewHandler(deps.MongoDatabase, active, logger)
	circlesHandler := circlesfeature.NewHandler(deps.MongoDatabase, active, logger)
	eventsHandler := eventsfeature.NewHandler(deps.MongoDatabase, logger)
	assistHandler := assistfeature.NewHandler(newOpenAIClient(appCfg), appCfg.OpenAIModel, logger)

	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/me", mefeature.Routes(meHandler))
		api.Mount("/circles", circlesfeature.Routes(circlesHandler))
		api.Mount("/events", eventsfeature.Routes(eventsHandler))
		assistfeature.MountRoutes(api, assistHandler, llmLimit(appCfg, deps, logger))
	})

	return r, nil
}

// corsMiddleware allows credentials only for an explicit origin list;
// browsers reject credentialed responses carrying a wildcard origin.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	wildcard := len(origins) == 1 && origins[0] == "*"
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodHead},
		AllowedHeaders:   []string{"Authorization", "Content-Type", activecircle.HeaderName},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: !wildcard,
		MaxAge:           600,
	}).Handler
}

// llmLimit builds the per-user limiter for the language model endpoints.
// With Redis the budget is shared across instances.
func llmLimit(appCfg AppConfig, deps DBDeps, logger *zap.Logger) func(http.Handler) http.Handler {
	if appCfg.LLMRateLimit <= 0 {
		return nil
	}
	var a ratelimit.Allower
	if deps.Redis != nil {
		a = ratelimit.NewRedis(deps.Redis, "circlehub:llm", appCfg.LLMRateLimit, appCfg.LLMRateWindow)
	} else {
		a = ratelimit.NewMemory(appCfg.LLMRateLimit, appCfg.LLMRateWindow)
	}
	return ratelimit.Middleware(a, ratelimit.IPKeys{TrustProxy: appCfg.TrustProxyHeaders}.ByUserOrIP, appCfg.LLMRateWindow, logger)
}

func newOpenAIClient(appCfg AppConfig) openai.Client {
	opts := []option.RequestOption{option.WithAPIKey(appCfg.OpenAIAPIKey)}
	if appCfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(appCfg.OpenAIBaseURL))
	}
	return openai.NewClient(opts...)
}
