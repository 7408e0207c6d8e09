// Package uploader pushes persisted scans to an external review endpoint.
package uploader

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/specguard/sentinel/internal/finding"
	"github.com/specguard/sentinel/pkg/shared/config"
)

type Client struct {
	httpc *resty.Client
	url   string
}

// New builds an upload client from the uploader section of the config.
func New(cfg *config.Uploader) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("uploader url is not configured")
	}

	httpc := resty.New()
	httpc.SetBaseURL(cfg.URL)
	httpc.SetDebug(cfg.Debug)
	httpc.SetTimeout(time.Duration(cfg.Timeout))
	httpc.SetRetryCount(cfg.RetryCount)
	httpc.SetRetryWaitTime(time.Duration(cfg.RetryWaitTime))
	httpc.SetRetryMaxWaitTime(time.Duration(cfg.RetryMaxWaitTime))
	if cfg.Token != "" {
		httpc.SetHeader("Authorization", fmt.Sprintf("Token %s", cfg.Token))
	}

	return &Client{
		httpc: httpc,
		url:   cfg.URL,
	}, nil
}

// uploadPayload is the wire shape the review endpoint accepts.
type uploadPayload struct {
	App      string                `json:"app,omitempty"`
	Scan     *finding.ScanResult   `json:"scan"`
	Listings []finding.ScanListing `json:"history,omitempty"`
}

// UploadScan posts one full scan result to the endpoint.
func (c *Client) UploadScan(app string, result *finding.ScanResult, history []finding.ScanListing) error {
	resp, err := c.httpc.R().
		SetBody(uploadPayload{App: app, Scan: result, Listings: history}).
		Post("/api/v1/scans")
	if err != nil {
		return fmt.Errorf("failed to upload scan %q: %w", result.ScanID, err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%d on uploading scan %q", resp.StatusCode(), result.ScanID)
	}
	return nil
}
