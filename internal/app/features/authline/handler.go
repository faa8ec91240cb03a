// internal/app/features/authline/handler.go
package authline

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/circlehub/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/circlehub/internal/app/store/users"
	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"github.com/dalemusser/circlehub/internal/app/system/auth"
	"github.com/dalemusser/circlehub/internal/app/system/respond"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// LINE Login v2.1 endpoints.
const (
	AuthURL    = "https://access.line.me/oauth2/v2.1/authorize"
	TokenURL   = "https://api.line.me/oauth2/v2.1/token"
	ProfileURL = "https://api.line.me/v2/profile"
	Issuer     = "https://access.line.me"

	// UserIDPrefix namespaces LINE user ids inside circlehub user ids.
	UserIDPrefix = "line:"

	stateTTL = 10 * time.Minute
)

// Config holds the LINE channel settings. The endpoint fields default to the
// public LINE endpoints when empty.
type Config struct {
	ChannelID     string
	ChannelSecret string
	RedirectURL   string

	AuthURL    string
	TokenURL   string
	ProfileURL string
	Issuer     string
}

// Handler handles LINE Login and exchanges it for a circlehub bearer token.
type Handler struct {
	States *oauthstate.Store
	Users  *userstore.Store
	Tokens *auth.Verifier
	Log    *zap.Logger

	oauth      *oauth2.Config
	secret     string
	profileURL string
	issuer     string
}

func NewHandler(db *mongo.Database, tokens *auth.Verifier, cfg Config, logger *zap.Logger) *Handler {
	authURL, tokenURL := cfg.AuthURL, cfg.TokenURL
	if authURL == "" {
		authURL = AuthURL
	}
	if tokenURL == "" {
		tokenURL = TokenURL
	}
	profileURL := cfg.ProfileURL
	if profileURL == "" {
		profileURL = ProfileURL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = Issuer
	}

	return &Handler{
		States: oauthstate.New(db),
		Users:  userstore.New(db),
		Tokens: tokens,
		Log:    logger,
		oauth: &oauth2.Config{
			ClientID:     cfg.ChannelID,
			ClientSecret: cfg.ChannelSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"profile", "openid", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		secret:     cfg.ChannelSecret,
		profileURL: profileURL,
		issuer:     issuer,
	}
}

// IsConfigured reports whether a LINE channel is set up.
func (h *Handler) IsConfigured() bool {
	return h.oauth.ClientID != "" && h.oauth.ClientSecret != "" && h.oauth.RedirectURL != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /api/auth/line                                                          |
| Starts the flow. Answers {auth_url, state}, or redirects with ?redirect=1.  |
*─────────────────────────────────────────────────────────────────────────────*/

type loginResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("LINE login not configured")
		respond.Status(w, http.StatusServiceUnavailable, "line_not_configured", "LINE login is not configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		respond.Error(w, h.Log, err)
		return
	}
	verifier := oauth2.GenerateVerifier()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.States.Save(ctx, oauthstate.State{
		State:     state,
		Verifier:  verifier,
		ReturnURL: r.URL.Query().Get("return"),
		ExpiresAt: time.Now().UTC().Add(stateTTL),
	}); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		respond.Error(w, h.Log, apperr.Upstream("saving login state", err))
		return
	}

	url := h.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	h.Log.Debug("initiating LINE login", zap.String("redirect_url", url))

	if r.URL.Query().Get("redirect") == "1" {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}
	respond.JSON(w, http.StatusOK, loginResponse{AuthURL: url, State: state})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /api/auth/line-callback                                                |
| The frontend posts the code and state it received on its callback page.    |
*─────────────────────────────────────────────────────────────────────────────*/

type callbackRequest struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type callbackResponse struct {
	Token      string `json:"token"`
	Registered bool   `json:"registered"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	ReturnURL  string `json:"return_url,omitempty"`
}

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		respond.Status(w, http.StatusServiceUnavailable, "line_not_configured", "LINE login is not configured")
		return
	}

	var req callbackRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	req.State = strings.TrimSpace(req.State)
	if req.Code == "" || req.State == "" {
		respond.Status(w, http.StatusUnprocessableEntity, "invalid_input", "code and state are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upstream())
	defer cancel()

	st, ok, err := h.States.Consume(ctx, req.State)
	if err != nil {
		respond.Error(w, h.Log, apperr.Upstream("validating login state", err))
		return
	}
	if !ok {
		h.Log.Warn("invalid or expired LINE login state")
		respond.Status(w, http.StatusUnprocessableEntity, "invalid_state", "login state is invalid or expired")
		return
	}

	tok, err := h.oauth.Exchange(ctx, req.Code, oauth2.VerifierOption(st.Verifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			h.Log.Warn("LINE rejected authorization code",
				zap.Int("status", status), zap.String("error", re.ErrorCode))
			respond.Status(w, http.StatusUnauthorized, "login_failed", "LINE login failed")
			return
		}
		h.Log.Error("failed to exchange LINE code", zap.Error(err))
		respond.Error(w, h.Log, apperr.Upstream("contacting LINE", err))
		return
	}

	profile, err := h.fetchProfile(ctx, tok)
	if err != nil {
		h.Log.Error("failed to fetch LINE profile", zap.Error(err))
		respond.Error(w, h.Log, apperr.Upstream("fetching LINE profile", err))
		return
	}

	email := ""
	if raw, ok := tok.Extra("id_token").(string); ok && raw != "" {
		email, err = h.emailFromIDToken(raw)
		if err != nil {
			h.Log.Warn("ignoring unverifiable LINE id_token", zap.Error(err))
		}
	}

	uid := UserIDPrefix + profile.UserID
	token, err := h.Tokens.Issue(auth.Identity{UserID: uid, Email: email, Name: profile.DisplayName})
	if err != nil {
		respond.Error(w, h.Log, fmt.Errorf("issue token: %w", err))
		return
	}

	registered := true
	if _, err := h.Users.GetByID(ctx, uid); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, h.Log, apperr.Upstream("loading user", err))
			return
		}
		registered = false
	}

	h.Log.Info("LINE login succeeded", zap.String("user_id", uid), zap.Bool("registered", registered))
	respond.JSON(w, http.StatusOK, callbackResponse{
		Token:      token,
		Registered: registered,
		UserID:     uid,
		Name:       profile.DisplayName,
		ReturnURL:  st.ReturnURL,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| LINE API                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

type lineProfile struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	PictureURL    string `json:"pictureUrl"`
	StatusMessage string `json:"statusMessage"`
}

func (h *Handler) fetchProfile(ctx context.Context, tok *oauth2.Token) (*lineProfile, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(tok))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.profileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	var p lineProfile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.UserID == "" {
		return nil, errors.New("profile has no userId")
	}
	return &p, nil
}

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// emailFromIDToken verifies a LINE ID token (HS256 with the channel secret)
// and returns its email claim.
func (h *Handler) emailFromIDToken(raw string) (string, error) {
	var c idTokenClaims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return []byte(h.secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(h.issuer),
		jwt.WithAudience(h.oauth.ClientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(c.Email)), nil
}

func generateState() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errors.New("random source unavailable")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
