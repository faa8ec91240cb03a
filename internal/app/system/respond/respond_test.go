package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/circlehub/internal/app/system/apperr"
	"go.uber.org/zap"
)

func TestError_MapsKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperr.NotFound("circle not found"), http.StatusNotFound, apperr.CodeNotFound},
		{"forbidden", apperr.Forbidden("admins only"), http.StatusForbidden, apperr.CodeForbidden},
		{"conflict", apperr.Conflict(apperr.CodeAlreadyMember, "x"), http.StatusConflict, apperr.CodeAlreadyMember},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, zap.NewNop(), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("code: got %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"Tennis"}`, false},
		{"empty", ``, true},
		{"malformed", `{"name":`, true},
		{"unknown field", `{"name":"x","extra":1}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := Decode(httptest.NewRecorder(), req, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode err: got %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperr.Is(err, apperr.KindInvalidInput) {
				t.Errorf("expected InvalidInput, got %v", err)
			}
		})
	}
}
