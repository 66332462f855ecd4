package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"comics_mailer/internal/config"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Mailgun sends messages through the Mailgun HTTP API.
type Mailgun struct {
	client  HTTPClient
	baseURL string
	domain  string
	apiKey  string
	from    string
	to      string
}

// NewMailgun creates a Mailgun channel for the given API base URL.
func NewMailgun(client HTTPClient, baseURL string, creds *config.Credentials) *Mailgun {
	return &Mailgun{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		domain:  creds.MailgunDomain,
		apiKey:  creds.MailgunAPIKey,
		from:    creds.From,
		to:      creds.To,
	}
}

// Name implements Channel.
func (m *Mailgun) Name() string { return "mailgun" }

// Send posts msg to the messages endpoint of the configured domain.
func (m *Mailgun) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("from", m.from)
	form.Set("to", m.to)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Body)

	endpoint := m.baseURL + "/" + url.PathEscape(m.domain) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth("api", m.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: http post: %v", ErrDelivery, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status %d: %s", ErrDelivery, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
