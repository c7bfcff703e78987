// Package digitalocean is a minimal DigitalOcean API client covering the
// droplet operations needed to provision a mail server.
package digitalocean

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mailship/mailship/internal/provision"
)

const defaultBaseURL = "https://api.digitalocean.com/v2"

// Client talks to the DigitalOcean REST API.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a DigitalOcean API client.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		token:      token,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type createRequest struct {
	Name       string   `json:"name"`
	Region     string   `json:"region"`
	Size       string   `json:"size"`
	Image      string   `json:"image"`
	SSHKeys    []string `json:"ssh_keys,omitempty"`
	UserData   string   `json:"user_data,omitempty"`
	Monitoring bool     `json:"monitoring"`
	Tags       []string `json:"tags,omitempty"`
}

type droplet struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Networks struct {
		V4 []struct {
			IPAddress string `json:"ip_address"`
			Type      string `json:"type"`
		} `json:"v4"`
	} `json:"networks"`
}

type createResponse struct {
	Droplet droplet `json:"droplet"`
}

type getResponse struct {
	Droplet droplet `json:"droplet"`
}

// CreateServer submits a droplet create request. The API answers 202 on
// acceptance; anything else is a ProviderError.
func (c *Client) CreateServer(ctx context.Context, req provision.Request) (string, error) {
	body := createRequest{
		Name:       req.Name,
		Region:     req.Region,
		Size:       req.Size,
		Image:      req.Image,
		SSHKeys:    req.SSHKeys,
		UserData:   req.UserData,
		Monitoring: true,
		Tags:       req.Tags,
	}

	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/droplets", body, http.StatusAccepted, &resp); err != nil {
		return "", err
	}

	return strconv.FormatInt(resp.Droplet.ID, 10), nil
}

// GetServer returns the droplet's status and public IPv4 address.
func (c *Client) GetServer(ctx context.Context, id string) (*provision.Resource, error) {
	var resp getResponse
	if err := c.do(ctx, http.MethodGet, "/droplets/"+id, nil, http.StatusOK, &resp); err != nil {
		return nil, err
	}

	res := &provision.Resource{
		ID:     id,
		Status: mapStatus(resp.Droplet.Status),
	}
	for _, n := range resp.Droplet.Networks.V4 {
		if n.Type == "public" {
			res.PublicIP = n.IPAddress
			break
		}
	}
	return res, nil
}

// DeleteServer destroys the droplet.
func (c *Client) DeleteServer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/droplets/"+id, nil, http.StatusNoContent, nil)
}

// mapStatus converts DigitalOcean droplet status strings to resource
// states. "new" is the creation phase; "archive" and "off" are treated as
// failed because a first-boot droplet should never reach them.
func mapStatus(s string) provision.Status {
	switch s {
	case "active":
		return provision.StatusActive
	case "new":
		return provision.StatusPending
	default:
		return provision.StatusFailed
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != wantStatus {
		return &provision.ProviderError{
			Provider:   "digitalocean",
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}
