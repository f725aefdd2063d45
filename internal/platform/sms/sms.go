// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sms delivers text messages through the Twilio Messages REST API.

The service treats SMS as an external delivery collaborator: a call either
hands the message to the provider (2xx) or fails. There is no retry here;
retrying a visit start is the caller's decision.
*/
package sms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sender sends a single text message.
type Sender interface {
	Send(ctx context.Context, destination, message string) error
}

var (
	// ErrMissingCredentials is returned at construction when a credential is blank.
	ErrMissingCredentials = errors.New("sms: twilio account sid, auth token and sender number are required")

	// ErrRejected is wrapped by every non-2xx provider response.
	ErrRejected = errors.New("sms: provider rejected message")
)

// maxErrorBody bounds how much of a failed response is read for diagnostics.
const maxErrorBody = 4 << 10

// TwilioConfig holds the provider credentials loaded at startup.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	BaseURL    string
	Timeout    time.Duration
}

// TwilioSender implements [Sender] against the Twilio REST API.
type TwilioSender struct {
	cfg    TwilioConfig
	client *http.Client
	logger *slog.Logger
}

// twilioError is the JSON error body returned by Twilio.
type twilioError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewTwilioSender validates credentials and builds a sender.
func NewTwilioSender(cfg TwilioConfig, logger *slog.Logger) (*TwilioSender, error) {
	if strings.TrimSpace(cfg.AccountSID) == "" ||
		strings.TrimSpace(cfg.AuthToken) == "" ||
		strings.TrimSpace(cfg.From) == "" {
		return nil, ErrMissingCredentials
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.twilio.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if logger == nil {
		logger = slog.Default()
	}

	return &TwilioSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

// Send posts the message to the provider and waits for its acknowledgement.
func (sender *TwilioSender) Send(ctx context.Context, destination, message string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		sender.cfg.BaseURL, url.PathEscape(sender.cfg.AccountSID))

	form := url.Values{}
	form.Set("To", destination)
	form.Set("From", sender.cfg.From)
	form.Set("Body", message)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("sms: build request: %w", err)
	}
	request.SetBasicAuth(sender.cfg.AccountSID, sender.cfg.AuthToken)
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	request.Header.Set("Accept", "application/json")

	response, err := sender.client.Do(request)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	// Twilio explains rejections (unverified number, invalid "To") in the body
	var providerErr twilioError
	body, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBody))
	_ = json.Unmarshal(body, &providerErr)

	sender.logger.WarnContext(ctx, "sms_provider_rejected",
		slog.Int("status", response.StatusCode),
		slog.Int("provider_code", providerErr.Code),
		slog.String("provider_message", providerErr.Message),
	)

	return fmt.Errorf("%w: status %d, code %d", ErrRejected, response.StatusCode, providerErr.Code)
}
