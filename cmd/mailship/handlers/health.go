package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mailship/mailship/internal/logging"
	"github.com/mailship/mailship/internal/monitor"
)

// HealthOptions are the health command's flag values.
type HealthOptions struct {
	ConfigPath string
	ServerIP   string
}

// CheckHealth runs health checks against a deployed mail server and
// prints the snapshot as JSON. Returns an error when the server is
// unhealthy so the exit status reflects the result.
func CheckHealth(ctx context.Context, opts HealthOptions) error {
	cfg, err := loadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	log := newLogger()
	runner, err := newRunner(cfg, opts.ServerIP)
	if err != nil {
		return err
	}

	m := monitor.New(runner, monitor.Config{Host: opts.ServerIP}, logging.Component(log, "monitor"))
	snap := m.Check(ctx)

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))

	if !snap.Healthy {
		return fmt.Errorf("server unhealthy: %d alert(s)", len(snap.Alerts))
	}
	return nil
}
