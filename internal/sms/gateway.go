package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tunebox/apiserver/config"
)

// GatewayClient delivers messages through an HTTP SMS gateway that accepts
// GET requests with credentials and payload as query parameters.
type GatewayClient struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewGatewayClient(cfg config.SMSConfig) *GatewayClient {
	return &GatewayClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *GatewayClient) Send(ctx context.Context, msg Message) error {
	if g.cfg.GatewayURL == "" {
		return fmt.Errorf("sms gateway url not configured")
	}

	params := url.Values{}
	params.Set("username", g.cfg.Username)
	params.Set("password", g.cfg.Password)
	params.Set("source", g.cfg.Source)
	params.Set("destination", msg.Phone)
	params.Set("message", msg.Body)
	params.Set("type", "0")
	params.Set("dlr", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.GatewayURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sms gateway responded with status %d", resp.StatusCode)
	}
	return nil
}
