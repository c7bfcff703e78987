// Package cloudflare is a minimal Cloudflare API client for DNS record
// management.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailship/mailship/internal/dns"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client talks to the Cloudflare REST API.
type Client struct {
	apiToken   string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Record represents a Cloudflare DNS record.
type Record struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl,omitempty"`
	Priority *int   `json:"priority,omitempty"`
}

type apiResponse struct {
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
	Result  json.RawMessage `json:"result"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type zoneResult struct {
	ID string `json:"id"`
}

type resultInfo struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
}

type listResponse struct {
	Success    bool       `json:"success"`
	Errors     []apiError `json:"errors"`
	Result     []Record   `json:"result"`
	ResultInfo resultInfo `json:"result_info"`
}

// NewClient creates a new Cloudflare API client.
func NewClient(apiToken string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		apiToken:   apiToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// GetZoneID returns the zone ID for the given domain.
func (c *Client) GetZoneID(ctx context.Context, domain string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, fmt.Sprintf("/zones?name=%s", domain), nil)
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("get zone ID: %w", err)
	}

	var zones []zoneResult
	if err := json.Unmarshal(resp.Result, &zones); err != nil {
		return "", fmt.Errorf("parse zones: %w", err)
	}

	if len(zones) == 0 {
		return "", fmt.Errorf("no zone found for domain %s", domain)
	}

	return zones[0].ID, nil
}

// ListDNSRecords returns all DNS records in the zone.
func (c *Client) ListDNSRecords(ctx context.Context, zoneID string) ([]Record, error) {
	var all []Record
	page := 1

	for {
		req, err := c.newRequest(ctx, http.MethodGet,
			fmt.Sprintf("/zones/%s/dns_records?per_page=100&page=%d", zoneID, page), nil)
		if err != nil {
			return nil, err
		}

		var resp listResponse
		if err := c.do(req, &resp); err != nil {
			return nil, fmt.Errorf("list DNS records page %d: %w", page, err)
		}

		all = append(all, resp.Result...)

		if page >= resp.ResultInfo.TotalPages {
			break
		}
		page++
	}

	return all, nil
}

// CreateDNSRecord creates a single DNS record in the zone.
func (c *Client) CreateDNSRecord(ctx context.Context, zoneID string, record Record) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost,
		fmt.Sprintf("/zones/%s/dns_records", zoneID), bytes.NewReader(body))
	if err != nil {
		return err
	}

	var resp apiResponse
	if err := c.do(req, &resp); err != nil {
		return fmt.Errorf("create %s record %s: %w", record.Type, record.Name, err)
	}

	return nil
}

// EnsureRecords creates the desired records that are not already present
// in the zone. Existing records are matched by type and fully qualified
// name and left untouched. Returns the number of records created.
func (c *Client) EnsureRecords(ctx context.Context, zoneID, domain string, desired []dns.Record) (int, error) {
	existing, err := c.ListDNSRecords(ctx, zoneID)
	if err != nil {
		return 0, fmt.Errorf("list existing records: %w", err)
	}

	present := make(map[string]bool, len(existing))
	for _, r := range existing {
		present[r.Type+"/"+r.Name] = true
	}

	created := 0
	for _, d := range desired {
		name := d.FQName(domain)
		if present[d.Type+"/"+name] {
			c.log.Debug().Str("type", d.Type).Str("name", name).Msg("record already exists, skipping")
			continue
		}

		record := Record{
			Type:    d.Type,
			Name:    name,
			Content: d.Content,
			TTL:     d.TTL,
		}
		if d.Type == "MX" {
			prio := d.Priority
			record.Priority = &prio
		}

		if err := c.CreateDNSRecord(ctx, zoneID, record); err != nil {
			return created, err
		}
		c.log.Info().Str("type", d.Type).Str("name", name).Msg("created DNS record")
		created++
	}

	return created, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w (status %d)", err, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
