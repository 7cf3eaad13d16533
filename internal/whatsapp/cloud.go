package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/prastut/wedding-jarvis-sub000/internal/message"
)

const (
	defaultAPIBase    = "https://graph.facebook.com"
	defaultAPIVersion = "v21.0"
)

// CloudConfig configures the Cloud API transport
type CloudConfig struct {
	Token              string
	PhoneNumberID      string
	APIBase            string
	APIVersion         string
	Timeout            time.Duration
	Retries            int
	Backoff            time.Duration
	DefaultCountryCode string
}

// APIError is an error response from the Cloud API
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloud api: status %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
}

// Retryable reports whether the request may succeed if sent again
func (e *APIError) Retryable() bool {
	return e.StatusCode == fasthttp.StatusTooManyRequests || e.StatusCode >= 500
}

// CloudClient sends messages through the WhatsApp Cloud API
type CloudClient struct {
	cfg    CloudConfig
	client *fasthttp.Client
	url    string
	log    zerolog.Logger
}

// NewCloudClient creates a Cloud API client. client may be nil.
func NewCloudClient(cfg CloudConfig, client *fasthttp.Client, log zerolog.Logger) *CloudClient {
	if cfg.APIBase == "" {
		cfg.APIBase = defaultAPIBase
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = defaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 500 * time.Millisecond
	}
	if client == nil {
		client = &fasthttp.Client{Name: "wedding-bot"}
	}
	return &CloudClient{
		cfg:    cfg,
		client: client,
		url:    fmt.Sprintf("%s/%s/%s/messages", strings.TrimRight(cfg.APIBase, "/"), cfg.APIVersion, cfg.PhoneNumberID),
		log:    log.With().Str("component", "CloudAPI").Logger(),
	}
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type textObject struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text"`
}

type replyButton struct {
	Type  string         `json:"type"`
	Reply message.Button `json:"reply"`
}

type interactiveAction struct {
	Buttons  []replyButton     `json:"buttons,omitempty"`
	Button   string            `json:"button,omitempty"`
	Sections []message.Section `json:"sections,omitempty"`
}

type interactive struct {
	Type   string            `json:"type"`
	Header *textObject       `json:"header,omitempty"`
	Body   textObject        `json:"body"`
	Footer *textObject       `json:"footer,omitempty"`
	Action interactiveAction `json:"action"`
}

type outboundPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *textBody    `json:"text,omitempty"`
	Interactive      *interactive `json:"interactive,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error"`
}

// payload builds the Cloud API request body for msg
func payload(to string, msg message.Message) outboundPayload {
	msg = msg.Normalize()
	p := outboundPayload{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
	}
	if msg.Kind == message.KindText {
		p.Type = "text"
		p.Text = &textBody{Body: msg.Body}
		return p
	}

	in := &interactive{Body: textObject{Text: msg.Body}}
	if msg.Header != "" {
		in.Header = &textObject{Type: "text", Text: msg.Header}
	}
	if msg.Footer != "" {
		in.Footer = &textObject{Text: msg.Footer}
	}
	switch msg.Kind {
	case message.KindButtons:
		in.Type = "button"
		for _, b := range msg.Buttons {
			in.Action.Buttons = append(in.Action.Buttons, replyButton{Type: "reply", Reply: b})
		}
	case message.KindList:
		in.Type = "list"
		in.Action.Button = msg.ListButton
		in.Action.Sections = msg.Sections
	}
	p.Type = "interactive"
	p.Interactive = in
	return p
}

// Send delivers msg, retrying rate-limit, server and network failures with
// linear backoff, and returns the provider message id.
func (c *CloudClient) Send(ctx context.Context, to string, msg message.Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	body, err := json.Marshal(payload(NormalizePhoneNumber(to, c.cfg.DefaultCountryCode), msg))
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			wait := time.Duration(attempt) * c.cfg.Backoff
			c.log.Warn().Err(lastErr).Int("attempt", attempt).Dur("wait", wait).Str("to", to).Msg("Retrying send")
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}

		id, err := c.do(ctx, body)
		if err == nil {
			return id, nil
		}
		lastErr = err

		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Retryable() {
			return "", err
		}
	}
	return "", fmt.Errorf("failed to send message after %d attempts: %w", c.cfg.Retries+1, lastErr)
}

func (c *CloudClient) do(ctx context.Context, body []byte) (string, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+c.cfg.Token)
	req.SetBody(body)

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		return "", fmt.Errorf("failed to call cloud api: %w", err)
	}

	var out sendResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil && resp.StatusCode() == fasthttp.StatusOK {
		return "", fmt.Errorf("failed to decode cloud api response: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Message: string(resp.Body())}
		if out.Error != nil {
			apiErr.Code, apiErr.Type, apiErr.Message = out.Error.Code, out.Error.Type, out.Error.Message
		}
		return "", apiErr
	}
	if len(out.Messages) == 0 || out.Messages[0].ID == "" {
		return "", fmt.Errorf("cloud api response carried no message id")
	}
	return out.Messages[0].ID, nil
}
