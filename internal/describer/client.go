// Package describer generates product descriptions through the Gemini API.
package describer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

const model = "gemini-2.0-flash"

const promptTemplate = `اكتب وصفًا موجزًا وجذابًا للمنتج التالي مخصّصًا لتطبيق إدارة مستلزمات طب الأسنان. اذكر المزايا الرئيسية، والاستخدامات، وأي تحذيرات مناسبة.

اسم المنتج: %s

صيغة الإخراج: فقرة عربية قصيرة (3-4 جمل).`

// Client calls the Gemini generateContent endpoint. Identical product names
// requested concurrently are collapsed into one upstream call.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	group   singleflight.Group
}

// NewClient constructs a Client. baseURL is the API host without a path.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Describe returns a short Arabic marketing description for a product name.
func (c *Client) Describe(ctx context.Context, productName string) (string, error) {
	text, err, _ := c.group.Do(productName, func() (any, error) {
		return c.generate(ctx, productName)
	})
	if err != nil {
		return "", err
	}
	return text.(string), nil
}

func (c *Client) generate(ctx context.Context, productName string) (string, error) {
	payload := generateRequest{
		Contents: []content{{
			Role:  "user",
			Parts: []part{{Text: fmt.Sprintf(promptTemplate, productName)}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("describer: call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("describer: gemini returned %s", resp.Status)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("describer: decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
