package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/valyala/fasthttp"
)

// GenerateRequest is the payload sent to the AI content service
type GenerateRequest struct {
	Prompt             string           `json:"prompt"`
	Mode               string           `json:"mode"`
	Recipient          GenerateContact  `json:"recipient"`
	SenderName         string           `json:"senderName"`
	MarketContext      string           `json:"marketContext,omitempty"`
	MeetingPreferences string           `json:"meetingPreferences,omitempty"`
	TemplateType       string           `json:"templateType,omitempty"`
}

// GenerateContact is the contact/account context attached to a generation
type GenerateContact struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Title     string `json:"title"`
}

// GenerateResponse is the AI service's successful reply
type GenerateResponse struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type aiErrorResponse struct {
	Error string `json:"error"`
}

// AIClient generates email content from a resolved prompt
type AIClient interface {
	GenerateEmail(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)
}

// HTTPAIClient calls the external AI content endpoint, with a circuit
// breaker so a flapping endpoint fails fast instead of piling up requests.
// The API key is resolved per request so a key saved through settings
// takes effect without a restart.
type HTTPAIClient struct {
	Endpoint string
	Key      func() string
	Timeout  time.Duration

	client  *fasthttp.Client
	breaker *gobreaker.CircuitBreaker[*GenerateResponse]
}

func NewHTTPAIClient(endpoint string, key func() string) *HTTPAIClient {
	return &HTTPAIClient{
		Endpoint: endpoint,
		Key:      key,
		Timeout:  60 * time.Second,
		client:   &fasthttp.Client{},
		breaker: gobreaker.NewCircuitBreaker[*GenerateResponse](gobreaker.Settings{
			Name:    "ai-endpoint",
			Timeout: 2 * time.Minute,
		}),
	}
}

// GenerateEmail posts the prompt and contact context to the AI service
func (c *HTTPAIClient) GenerateEmail(ctx context.Context, genReq GenerateRequest) (*GenerateResponse, error) {
	if c.Endpoint == "" {
		return nil, fmt.Errorf("AI endpoint not configured")
	}

	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode generate request: %w", err)
	}

	return c.breaker.Execute(func() (*GenerateResponse, error) {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(c.Endpoint)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		if c.Key != nil {
			if key := c.Key(); key != "" {
				req.Header.Set("Authorization", "Bearer "+key)
			}
		}
		req.SetBody(body)

		if err := c.client.DoTimeout(req, resp, c.Timeout); err != nil {
			return nil, fmt.Errorf("AI endpoint request failed: %w", err)
		}

		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			var apiErr aiErrorResponse
			if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != "" {
				return nil, fmt.Errorf("AI endpoint returned %d: %s", resp.StatusCode(), apiErr.Error)
			}
			return nil, fmt.Errorf("AI endpoint returned %d", resp.StatusCode())
		}

		var out GenerateResponse
		if err := json.Unmarshal(resp.Body(), &out); err != nil {
			return nil, fmt.Errorf("failed to decode AI response: %w", err)
		}
		return &out, nil
	})
}
