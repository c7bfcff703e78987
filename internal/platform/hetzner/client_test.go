package hetzner

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailship/mailship/internal/provision"
)

type fakeServerAPI struct {
	server    *hcloud.Server
	getErr    error
	deleteErr error
	deleted   []int64
}

func (f *fakeServerAPI) Create(_ context.Context, _ hcloud.ServerCreateOpts) (hcloud.ServerCreateResult, *hcloud.Response, error) {
	return hcloud.ServerCreateResult{Server: f.server}, nil, nil
}

func (f *fakeServerAPI) GetByID(_ context.Context, _ int64) (*hcloud.Server, *hcloud.Response, error) {
	return f.server, nil, f.getErr
}

func (f *fakeServerAPI) DeleteWithResult(_ context.Context, server *hcloud.Server) (*hcloud.ServerDeleteResult, *hcloud.Response, error) {
	f.deleted = append(f.deleted, server.ID)
	return &hcloud.ServerDeleteResult{}, nil, f.deleteErr
}

func serverWithStatus(status hcloud.ServerStatus, ip string) *hcloud.Server {
	s := &hcloud.Server{ID: 42, Status: status}
	if ip != "" {
		s.PublicNet.IPv4.IP = net.ParseIP(ip)
	}
	return s
}

func TestGetServer_StatusMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		status hcloud.ServerStatus
		ip     string
		want   provision.Status
		wantIP string
	}{
		{"running is active", hcloud.ServerStatusRunning, "192.0.2.9", provision.StatusActive, "192.0.2.9"},
		{"initializing is pending", hcloud.ServerStatusInitializing, "", provision.StatusPending, ""},
		{"starting is pending", hcloud.ServerStatusStarting, "", provision.StatusPending, ""},
		{"off is failed", hcloud.ServerStatusOff, "", provision.StatusFailed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := &Client{servers: &fakeServerAPI{server: serverWithStatus(tt.status, tt.ip)}}

			res, err := c.GetServer(context.Background(), "42")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Status)
			assert.Equal(t, tt.wantIP, res.PublicIP)
		})
	}
}

func TestGetServer_InvalidID(t *testing.T) {
	t.Parallel()
	c := &Client{servers: &fakeServerAPI{}}
	_, err := c.GetServer(context.Background(), "not-a-number")
	require.Error(t, err)
}

func TestGetServer_NotFound(t *testing.T) {
	t.Parallel()
	c := &Client{servers: &fakeServerAPI{server: nil}}
	_, err := c.GetServer(context.Background(), "42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDeleteServer(t *testing.T) {
	t.Parallel()
	fake := &fakeServerAPI{server: serverWithStatus(hcloud.ServerStatusRunning, "")}
	c := &Client{servers: fake}

	require.NoError(t, c.DeleteServer(context.Background(), "42"))
	assert.Equal(t, []int64{42}, fake.deleted)
}

func TestIsInvalidParameter(t *testing.T) {
	t.Parallel()
	assert.True(t, isInvalidParameter(hcloud.Error{Code: hcloud.ErrorCodeInvalidInput}))
	assert.True(t, isInvalidParameter(hcloud.Error{Code: hcloud.ErrorCodeNotFound}))
	assert.False(t, isInvalidParameter(hcloud.Error{Code: hcloud.ErrorCodeRateLimitExceeded}))
	assert.False(t, isInvalidParameter(errors.New("plain error")))
	assert.False(t, isInvalidParameter(nil))
}

func TestWrapAPIError(t *testing.T) {
	t.Parallel()
	wrapped := wrapAPIError(hcloud.Error{Code: hcloud.ErrorCodeUnauthorized, Message: "unable to authenticate"})

	var pe *provision.ProviderError
	require.ErrorAs(t, wrapped, &pe)
	assert.Equal(t, "hetzner", pe.Provider)
	assert.Contains(t, pe.Message, "authenticate")

	plain := errors.New("dial error")
	assert.Equal(t, plain, wrapAPIError(plain))
	assert.NoError(t, wrapAPIError(nil))
}
