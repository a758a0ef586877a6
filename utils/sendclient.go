package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"gopkg.in/gomail.v2"
)

// SendRequest is the payload handed to the outbound send endpoint
type SendRequest struct {
	To             string `json:"to"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	From           string `json:"from"`
	FromName       string `json:"fromName"`
	IsHTMLEmail    bool   `json:"isHtmlEmail"`
	Deliverability string `json:"_deliverability,omitempty"`
}

// SendResponse is the send endpoint's reply
type SendResponse struct {
	Success    bool   `json:"success"`
	TrackingID string `json:"trackingId"`
	MessageID  string `json:"messageId"`
	Error      string `json:"error,omitempty"`
}

// SendClient hands an approved email off for delivery
type SendClient interface {
	Send(req SendRequest) (*SendResponse, error)
}

// SMTPConfig holds the direct-SMTP fallback settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// HTTPSendClient posts to the external send endpoint. When no endpoint is
// configured it falls back to sending directly over SMTP.
type HTTPSendClient struct {
	Endpoint string
	Timeout  time.Duration
	SMTP     SMTPConfig

	client *fasthttp.Client
}

func NewHTTPSendClient(endpoint string, smtp SMTPConfig) *HTTPSendClient {
	return &HTTPSendClient{
		Endpoint: endpoint,
		Timeout:  30 * time.Second,
		SMTP:     smtp,
		client:   &fasthttp.Client{},
	}
}

func (c *HTTPSendClient) Send(sendReq SendRequest) (*SendResponse, error) {
	if c.Endpoint == "" {
		return c.sendSMTP(sendReq)
	}

	body, err := json.Marshal(sendReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode send request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.Endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := c.client.DoTimeout(req, resp, c.Timeout); err != nil {
		return nil, fmt.Errorf("send endpoint request failed: %w", err)
	}

	var out SendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode send response: %w", err)
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = fmt.Sprintf("send endpoint returned %d", resp.StatusCode())
		}
		return &out, fmt.Errorf("send failed: %s", out.Error)
	}
	return &out, nil
}

// sendSMTP delivers the email directly when no send endpoint exists
func (c *HTTPSendClient) sendSMTP(sendReq SendRequest) (*SendResponse, error) {
	if c.SMTP.Host == "" {
		return nil, fmt.Errorf("no send endpoint or SMTP host configured")
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", sendReq.From, sendReq.FromName)
	m.SetHeader("To", sendReq.To)
	m.SetHeader("Subject", sendReq.Subject)
	if sendReq.IsHTMLEmail {
		m.SetBody("text/html", sendReq.Content)
	} else {
		m.SetBody("text/plain", sendReq.Content)
	}

	d := gomail.NewDialer(c.SMTP.Host, c.SMTP.Port, c.SMTP.Username, c.SMTP.Password)
	if err := d.DialAndSend(m); err != nil {
		return nil, fmt.Errorf("SMTP send failed: %w", err)
	}

	return &SendResponse{
		Success:    true,
		TrackingID: uuid.New().String(),
		MessageID:  uuid.New().String(),
	}, nil
}
