package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailship/mailship/internal/config"
	"github.com/mailship/mailship/internal/dns"
	"github.com/mailship/mailship/internal/mailserver"
	"github.com/mailship/mailship/internal/provision"
	"github.com/mailship/mailship/internal/report"
)

func TestDeploy_FullPipeline(t *testing.T) {
	saveAndRestoreFactories(t)
	prov, runner, manager := installDeployFakes(t)

	reportDir := filepath.Join(t.TempDir(), "report")
	configPath := writeTestConfig(t, reportDir)

	output := captureOutput(func() {
		require.NoError(t, Deploy(context.Background(), DeployOptions{ConfigPath: configPath}))
	})

	assert.Equal(t, 1, prov.provisions)
	assert.Equal(t, 6, manager.ensured["example.com"], "all desired records ensured")
	assert.Contains(t, output, "Deployment complete!")
	assert.Contains(t, output, "192.0.2.7")

	// report bundle written
	for _, name := range []string{report.JSONFileName, report.CSVFileName, report.InstructionsFileName} {
		_, err := os.Stat(filepath.Join(reportDir, name))
		assert.NoError(t, err, "missing report file %s", name)
	}

	// the mail stack was configured over the runner
	joined := ""
	for _, cmd := range runner.commands {
		joined += cmd + "\n"
	}
	assert.Contains(t, joined, "systemctl restart postfix")
	assert.Contains(t, joined, "systemctl restart dovecot")
	assert.Contains(t, joined, "certbot certonly --standalone -d mail.example.com")
	assert.Contains(t, joined, "INSERT INTO mailserver.users")
}

func TestDeploy_BlockingConflictAborts(t *testing.T) {
	saveAndRestoreFactories(t)
	prov, _, _ := installDeployFakes(t)

	newAnalyzer = func() domainAnalyzer {
		return &fakeAnalyzer{records: map[string]*dns.RecordSet{
			"example.com": {
				Domain:         "example.com",
				MXHosts:        []string{"aspmx.l.google.com"},
				HasMailARecord: true,
				HasSPFRecord:   true,
			},
		}}
	}

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	err := Deploy(context.Background(), DeployOptions{ConfigPath: configPath})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Google Workspace")
	assert.Zero(t, prov.provisions, "must not provision with blocking conflicts")
}

func TestDeploy_SkipChecksBypassesConflicts(t *testing.T) {
	saveAndRestoreFactories(t)
	prov, _, _ := installDeployFakes(t)

	analyzer := &fakeAnalyzer{records: map[string]*dns.RecordSet{
		"example.com": {Domain: "example.com", MXHosts: []string{"aspmx.l.google.com"}},
	}}
	newAnalyzer = func() domainAnalyzer { return analyzer }

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	captureOutput(func() {
		require.NoError(t, Deploy(context.Background(), DeployOptions{ConfigPath: configPath, SkipChecks: true}))
	})
	assert.Equal(t, 1, prov.provisions)
	assert.Zero(t, analyzer.analyzeCalls, "conflict analysis must be skipped with --skip-checks")
}

func TestDeploy_WaitsForPropagation(t *testing.T) {
	saveAndRestoreFactories(t)
	installDeployFakes(t)

	analyzer := &fakeAnalyzer{}
	newAnalyzer = func() domainAnalyzer { return analyzer }

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	captureOutput(func() {
		require.NoError(t, Deploy(context.Background(), DeployOptions{ConfigPath: configPath}))
	})
	assert.Equal(t, []string{"example.com"}, analyzer.propagations)
}

func TestDeploy_SkipDNS(t *testing.T) {
	saveAndRestoreFactories(t)
	_, _, manager := installDeployFakes(t)

	analyzer := &fakeAnalyzer{}
	newAnalyzer = func() domainAnalyzer { return analyzer }

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	captureOutput(func() {
		require.NoError(t, Deploy(context.Background(), DeployOptions{ConfigPath: configPath, SkipDNS: true}))
	})
	assert.Empty(t, manager.ensured, "no records may be created with --skip-dns")
	assert.Empty(t, analyzer.propagations, "no propagation wait with --skip-dns")
}

func TestDeploy_ProvisionFailure(t *testing.T) {
	saveAndRestoreFactories(t)
	prov, _, _ := installDeployFakes(t)
	prov.resource = nil
	prov.provErr = &provision.ProviderError{Provider: "digitalocean", StatusCode: 422, Message: "region invalid"}

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	err := Deploy(context.Background(), DeployOptions{ConfigPath: configPath})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "provisioning failed")
}

func TestDeploy_SetupTimeout(t *testing.T) {
	saveAndRestoreFactories(t)
	prov, _, _ := installDeployFakes(t)
	prov.setupErr = provision.ErrSetupTimeout

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	err := Deploy(context.Background(), DeployOptions{ConfigPath: configPath})

	require.Error(t, err)
	assert.ErrorIs(t, err, provision.ErrSetupTimeout)
}

func TestDeploy_MissingConfig(t *testing.T) {
	saveAndRestoreFactories(t)

	err := Deploy(context.Background(), DeployOptions{ConfigPath: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestDeploy_RunnerFailureSurfaces(t *testing.T) {
	saveAndRestoreFactories(t)
	installDeployFakes(t)
	newRunner = func(_ *config.Config, _ string) (mailserver.Runner, error) {
		return nil, errors.New("failed to read SSH private key")
	}

	configPath := writeTestConfig(t, filepath.Join(t.TempDir(), "report"))
	err := Deploy(context.Background(), DeployOptions{ConfigPath: configPath})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SSH private key")
}

func TestWriteReport_DefaultDirectory(t *testing.T) {
	saveAndRestoreFactories(t)

	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(cwd) })

	cfg := &config.Config{Domains: []string{"example.com"}}
	cfg.DNS.TTL = 3600
	deployment := report.New("192.0.2.7", cfg.Domains, nil)

	paths, err := writeReport(context.Background(), cfg, deployment)
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	assert.Contains(t, paths[0], "mailship-deploy-")
}

func TestWriteReport_S3Upload(t *testing.T) {
	saveAndRestoreFactories(t)

	uploads := map[string]int{}
	newUploader = func(_ *config.S3Config) (reportUploader, error) {
		return uploaderFunc(func(_ context.Context, bucket, prefix string, files map[string][]byte) ([]string, error) {
			uploads[bucket+"/"+prefix] = len(files)
			return nil, nil
		}), nil
	}

	cfg := &config.Config{Domains: []string{"example.com"}}
	cfg.DNS.TTL = 3600
	cfg.Report.OutputDir = t.TempDir()
	cfg.Report.S3 = &config.S3Config{Bucket: "reports"}
	deployment := report.New("192.0.2.7", cfg.Domains, nil)

	_, err := writeReport(context.Background(), cfg, deployment)
	require.NoError(t, err)
	assert.Equal(t, 3, uploads["reports/"+deployment.ID])
}

type uploaderFunc func(ctx context.Context, bucket, prefix string, files map[string][]byte) ([]string, error)

func (f uploaderFunc) UploadBundle(ctx context.Context, bucket, prefix string, files map[string][]byte) ([]string, error) {
	return f(ctx, bucket, prefix, files)
}
