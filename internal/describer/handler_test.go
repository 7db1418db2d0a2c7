package describer

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGenerateRejectsWrongMethod(t *testing.T) {
	handler := NewHandler(discardLogger(), NewClient("http://localhost", "key"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/generate-description", nil)

	handler.Generate(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

func TestGenerateRejectsMissingProductName(t *testing.T) {
	handler := NewHandler(discardLogger(), NewClient("http://localhost", "key"))

	for _, body := range []string{``, `{}`, `{"productName":""}`, `not json`} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/generate-description", strings.NewReader(body))

		handler.Generate(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		require.JSONEq(t, `{"error":"Invalid productName"}`, rec.Body.String())
	}
}

func TestGenerateFailsWithoutAPIKey(t *testing.T) {
	handler := NewHandler(discardLogger(), NewClient("http://localhost", ""))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate-description",
		strings.NewReader(`{"productName":"Composite Filling A2"}`))

	handler.Generate(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"GEMINI_API_KEY not set"}`, rec.Body.String())
}

func TestGenerateReturnsUpstreamText(t *testing.T) {
	var captured struct {
		path   string
		apiKey string
		prompt string
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.apiKey = r.Header.Get("x-goog-api-key")

		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && len(payload.Contents) > 0 {
			captured.prompt = payload.Contents[0].Parts[0].Text
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]string{{"text": "وصف تجريبي للمنتج."}},
				},
			}},
		})
	}))
	defer upstream.Close()

	handler := NewHandler(discardLogger(), NewClient(upstream.URL, "secret"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate-description",
		strings.NewReader(`{"productName":"Composite Filling A2"}`))

	handler.Generate(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"text":"وصف تجريبي للمنتج."}`, rec.Body.String())
	require.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", captured.path)
	require.Equal(t, "secret", captured.apiKey)
	require.Contains(t, captured.prompt, "Composite Filling A2")
}

func TestGenerateMapsUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	handler := NewHandler(discardLogger(), NewClient(upstream.URL, "secret"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/generate-description",
		strings.NewReader(`{"productName":"Composite Filling A2"}`))

	handler.Generate(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
}
