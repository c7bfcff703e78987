package handlers

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailship/mailship/internal/config"
	"github.com/mailship/mailship/internal/dns"
)

func TestCreateDNS(t *testing.T) {
	saveAndRestoreFactories(t)

	manager := &fakeDNSManager{}
	newDNSManager = func(_ *config.Config, _ *config.Timeouts, _ zerolog.Logger) (dnsManager, error) {
		return manager, nil
	}

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	var err error
	output := captureOutput(func() {
		err = CreateDNS(context.Background(), DNSOptions{ConfigPath: configPath, ServerIP: "192.0.2.7"})
	})

	require.NoError(t, err)
	assert.Equal(t, 6, manager.ensured["example.com"])
	assert.Contains(t, output, "example.com: 6 record(s) created")
}

func TestCreateDNS_EnsureError(t *testing.T) {
	saveAndRestoreFactories(t)

	newDNSManager = func(_ *config.Config, _ *config.Timeouts, _ zerolog.Logger) (dnsManager, error) {
		return &failingDNSManager{}, nil
	}

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	err := CreateDNS(context.Background(), DNSOptions{ConfigPath: configPath, ServerIP: "192.0.2.7"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create records for example.com")
}

func TestCreateDNS_ManagerError(t *testing.T) {
	saveAndRestoreFactories(t)

	newDNSManager = func(_ *config.Config, _ *config.Timeouts, _ zerolog.Logger) (dnsManager, error) {
		return nil, errors.New("DNS provider token missing")
	}

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	err := CreateDNS(context.Background(), DNSOptions{ConfigPath: configPath, ServerIP: "192.0.2.7"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "token missing")
}

type failingDNSManager struct{}

func (f *failingDNSManager) GetZoneID(_ context.Context, domain string) (string, error) {
	return "zone-" + domain, nil
}

func (f *failingDNSManager) EnsureRecords(_ context.Context, _, _ string, _ []dns.Record) (int, error) {
	return 0, errors.New("api unavailable")
}
