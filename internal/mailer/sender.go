// Package mailer sends transactional e-mail through Resend.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const resendEndpoint = "https://api.resend.com/emails"

// Message is one outgoing e-mail.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipients = errors.New("mailer: message has no recipients")

// ResendSender delivers mail through the Resend HTTP API.
type ResendSender struct {
	httpClient *http.Client
	apiKey     string
	from       string
	endpoint   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		from:       from,
		endpoint:   resendEndpoint,
	}
}

type resendPayload struct {
	From string `json:"from"`
	Message
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}

	body, err := json.Marshal(resendPayload{From: s.from, Message: msg})
	if err != nil {
		return fmt.Errorf("mailer: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mailer: resend responded %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	log logrus.FieldLogger
}

func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	s.log.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	}).Info("email not sent, no provider configured")
	return nil
}

// NewSender picks Resend when an API key is present.
func NewSender(apiKey, from string, log logrus.FieldLogger) Sender {
	if apiKey == "" {
		return NewLogSender(log)
	}
	return NewResendSender(apiKey, from)
}
