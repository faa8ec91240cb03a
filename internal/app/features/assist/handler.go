// internal/app/features/assist/handler.go
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/circlehub/internal/app/system/respond"
	"github.com/dalemusser/circlehub/internal/app/system/timeouts"
	"github.com/openai/openai-go"
	"go.uber.org/zap"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = string(openai.ChatModelGPT4oMini)

	defaultTone = "フレンドリーで絵文字も使う"
	temperature = 0.7

	rewriteSystemPrompt   = "あなたは指定されたトーンでテキストをリライトする優秀なアシスタントです。リライトしたテキストのみ出力してください。"
	makeEventSystemPrompt = "あなたはイベントプランナーです。以下の条件に基づいて、いくつかの大学サークルイベントを提案してください。出力はそのイベント情報のみで、箇条書きにしてマークダウンで出力してください。"
)

var errEmptyCompletion = errors.New("empty completion")

// Handler proxies the writing-assistant endpoints to a chat completion model.
type Handler struct {
	Client openai.Client
	Model  string
	Log    *zap.Logger
}

// NewHandler builds a Handler. An empty model selects DefaultModel.
func NewHandler(client openai.Client, model string, logger *zap.Logger) *Handler {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Handler{Client: client, Model: model, Log: logger}
}

// complete sends one system+user exchange and returns the first choice.
func (h *Handler) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := h.Client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(h.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", errEmptyCompletion
	}
	return out, nil
}

// writeFailure maps a completion error to a response: an empty completion or
// an API error is 422, anything else 500.
func (h *Handler) writeFailure(w http.ResponseWriter, op string, emptyMsg string, err error) {
	if errors.Is(err, errEmptyCompletion) {
		h.Log.Error("language model returned no content", zap.String("op", op))
		writeError(w, http.StatusUnprocessableEntity, emptyMsg)
		return
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		h.Log.Error("language model API error", zap.String("op", op),
			zap.Int("status", apiErr.StatusCode), zap.String("message", msg))
		writeError(w, http.StatusUnprocessableEntity, "OpenAI API error: "+msg)
		return
	}
	h.Log.Error("language model request failed", zap.String("op", op), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "An unexpected error occurred: "+err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respond.Status(w, status, "language_model_error", msg)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /rewrite                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type rewriteRequest struct {
	Text string `json:"text"`
	Tone string `json:"tone"`
}

type rewriteResponse struct {
	OriginalText  string `json:"original_text"`
	RewrittenText string `json:"rewritten_text"`
	Tone          string `json:"tone"`
}

// ServeRewrite rewrites text in the requested tone.
func (h *Handler) ServeRewrite(w http.ResponseWriter, r *http.Request) {
	var req rewriteRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusUnprocessableEntity, "Text parameter is required")
		return
	}
	tone := req.Tone
	if strings.TrimSpace(tone) == "" {
		tone = defaultTone
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upstream())
	defer cancel()

	out, err := h.complete(ctx, rewriteSystemPrompt,
		fmt.Sprintf("次のテキストをリライトしてください。 %s tone: %s", tone, req.Text))
	if err != nil {
		h.writeFailure(w, "rewrite", "Failed to generate rewritten text", err)
		return
	}
	h.Log.Info("text rewritten", zap.Int("input_len", len(req.Text)), zap.Int("output_len", len(out)))
	respond.JSON(w, http.StatusOK, rewriteResponse{OriginalText: req.Text, RewrittenText: out, Tone: tone})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /make_event                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// looseString accepts a JSON string or number; budgets arrive as either.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number")
	}
	*s = looseString(n.String())
	return nil
}

type makeEventRequest struct {
	Description looseString `json:"description"`
	Date        looseString `json:"date"`
	Location    looseString `json:"location"`
	Budget      looseString `json:"budget"`
}

type makeEventResponse struct {
	EventSuggestions string `json:"event_suggestions"`
}

// ServeMakeEvent proposes circle events for the given theme, date, place and
// budget.
func (h *Handler) ServeMakeEvent(w http.ResponseWriter, r *http.Request) {
	var req makeEventRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	for _, v := range []looseString{req.Description, req.Date, req.Location, req.Budget} {
		if strings.TrimSpace(string(v)) == "" {
			writeError(w, http.StatusUnprocessableEntity, "All parameters (description, date, location, budget) are required")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upstream())
	defer cancel()

	out, err := h.complete(ctx, makeEventSystemPrompt,
		fmt.Sprintf("イベントのイメージ: %s, 日時: %s, 場所: %s, 予算: %s",
			req.Description, req.Date, req.Location, req.Budget))
	if err != nil {
		h.writeFailure(w, "make_event", "Failed to generate event suggestions", err)
		return
	}
	h.Log.Info("event suggestions generated", zap.Int("output_len", len(out)))
	respond.JSON(w, http.StatusOK, makeEventResponse{EventSuggestions: out})
}
