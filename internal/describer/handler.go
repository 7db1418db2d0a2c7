package describer

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler exposes the description generator. It keeps the error contract of
// the serverless function it replaces: plain {"error": ...} bodies, 405 for
// wrong methods and 500 when the API key is absent or the upstream fails.
type Handler struct {
	logger *slog.Logger
	client *Client
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, client *Client) *Handler {
	return &Handler{logger: logger, client: client}
}

type generateInput struct {
	ProductName string `json:"productName"`
}

type generateOutput struct {
	Text string `json:"text"`
}

type errorOutput struct {
	Error string `json:"error"`
}

// Generate handles POST /api/generate-description.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorOutput{Error: "Method not allowed"})
		return
	}

	var input generateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ProductName == "" {
		writeJSON(w, http.StatusBadRequest, errorOutput{Error: "Invalid productName"})
		return
	}

	if !h.client.Configured() {
		writeJSON(w, http.StatusInternalServerError, errorOutput{Error: "GEMINI_API_KEY not set"})
		return
	}

	text, err := h.client.Describe(r.Context(), input.ProductName)
	if err != nil {
		h.logger.Error("generate description failed", slog.Any("error", err))
		writeJSON(w, http.StatusInternalServerError, errorOutput{Error: "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, generateOutput{Text: text})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
