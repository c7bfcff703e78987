// Package hetzner implements server provisioning on Hetzner Cloud.
package hetzner

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/mailship/mailship/internal/provision"
	"github.com/mailship/mailship/internal/util/retry"
)

// serverAPI is the slice of the hcloud server client we use; narrowed for
// testability.
type serverAPI interface {
	Create(ctx context.Context, opts hcloud.ServerCreateOpts) (hcloud.ServerCreateResult, *hcloud.Response, error)
	GetByID(ctx context.Context, id int64) (*hcloud.Server, *hcloud.Response, error)
	DeleteWithResult(ctx context.Context, server *hcloud.Server) (*hcloud.ServerDeleteResult, *hcloud.Response, error)
}

// Client provisions servers through the Hetzner Cloud API.
type Client struct {
	client  *hcloud.Client
	servers serverAPI
}

// NewClient creates a Hetzner Cloud client.
func NewClient(token string) *Client {
	c := hcloud.NewClient(hcloud.WithToken(token))
	return &Client{client: c, servers: &c.Server}
}

// CreateServer resolves the request's named resources and creates the
// server. Invalid-parameter API errors are not retried.
func (c *Client) CreateServer(ctx context.Context, req provision.Request) (string, error) {
	opts, err := c.buildCreateOpts(ctx, req)
	if err != nil {
		return "", err
	}

	var result hcloud.ServerCreateResult
	err = retry.Do(ctx, func() error {
		res, _, err := c.servers.Create(ctx, opts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		result = res
		return nil
	}, retry.WithMaxRetries(3))
	if err != nil {
		return "", wrapAPIError(err)
	}

	return strconv.FormatInt(result.Server.ID, 10), nil
}

// GetServer returns the server's state mapped to the provisioning model.
func (c *Client) GetServer(ctx context.Context, id string) (*provision.Resource, error) {
	serverID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid server id: %s", id)
	}

	server, _, err := c.servers.GetByID(ctx, serverID)
	if err != nil {
		return nil, wrapAPIError(err)
	}
	if server == nil {
		return nil, fmt.Errorf("server not found: %s", id)
	}

	res := &provision.Resource{
		ID:     id,
		Status: mapStatus(server.Status),
	}
	if server.PublicNet.IPv4.IP != nil {
		res.PublicIP = server.PublicNet.IPv4.IP.String()
	}
	return res, nil
}

// DeleteServer deletes the server by ID.
func (c *Client) DeleteServer(ctx context.Context, id string) error {
	serverID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid server id: %s", id)
	}

	_, _, err = c.servers.DeleteWithResult(ctx, &hcloud.Server{ID: serverID})
	if err != nil {
		return wrapAPIError(err)
	}
	return nil
}

func (c *Client) buildCreateOpts(ctx context.Context, req provision.Request) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, req.Size)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", req.Size)
	}

	image, _, err := c.client.Image.GetForArchitecture(ctx, req.Image, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get image: %w", err)
	}
	if image == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("image not found: %s", req.Image)
	}

	location, _, err := c.client.Location.Get(ctx, req.Region)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get location: %w", err)
	}
	if location == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("location not found: %s", req.Region)
	}

	var sshKeys []*hcloud.SSHKey
	for _, name := range req.SSHKeys {
		key, _, err := c.client.SSHKey.Get(ctx, name)
		if err != nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get ssh key %s: %w", name, err)
		}
		if key == nil {
			return hcloud.ServerCreateOpts{}, fmt.Errorf("ssh key not found: %s", name)
		}
		sshKeys = append(sshKeys, key)
	}

	labels := map[string]string{}
	for _, tag := range req.Tags {
		labels[tag] = "true"
	}

	return hcloud.ServerCreateOpts{
		Name:       req.Name,
		ServerType: serverType,
		Image:      image,
		Location:   location,
		SSHKeys:    sshKeys,
		UserData:   req.UserData,
		Labels:     labels,
	}, nil
}

func mapStatus(s hcloud.ServerStatus) provision.Status {
	switch s {
	case hcloud.ServerStatusRunning:
		return provision.StatusActive
	case hcloud.ServerStatusInitializing, hcloud.ServerStatusStarting:
		return provision.StatusPending
	default:
		return provision.StatusFailed
	}
}
