package provision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailship/mailship/internal/config"
	"github.com/mailship/mailship/internal/util/netutil"
	"github.com/mailship/mailship/internal/util/retry"
)

// SetupSentinel is the file the first-boot script touches when it finishes.
const SetupSentinel = "/var/run/mailship/cloud-init.done"

// Provisioner drives a Provider through create and the readiness waits.
type Provisioner struct {
	provider Provider
	timeouts *config.Timeouts
	sshPort  int
	log      zerolog.Logger
}

// New creates a Provisioner. sshPort is the management port probed after
// the resource becomes active.
func New(provider Provider, timeouts *config.Timeouts, sshPort int, log zerolog.Logger) *Provisioner {
	return &Provisioner{
		provider: provider,
		timeouts: timeouts,
		sshPort:  sshPort,
		log:      log,
	}
}

// Provision creates the server and blocks until it is active and its
// management port accepts connections. The sentinel wait is separate (see
// WaitForSetup) because DNS records are usually created in between.
//
// On failure after the create call succeeded, the resource is left running;
// the returned error and the logged resource ID are the operator's cleanup
// handle.
func (p *Provisioner) Provision(ctx context.Context, req Request) (*Resource, error) {
	createCtx, cancel := context.WithTimeout(ctx, p.timeouts.CreateTimeout)
	id, err := p.provider.CreateServer(createCtx, req)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	p.log.Info().Str("id", id).Str("name", req.Name).Msg("server created, waiting for active state")

	res, err := p.waitForActive(ctx, id)
	if err != nil {
		return nil, err
	}

	p.log.Info().Str("id", res.ID).Str("ip", res.PublicIP).Msg("server active, waiting for SSH")

	if err := netutil.WaitForPort(ctx, res.PublicIP, p.sshPort, p.timeouts.SSHWait); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("%w: port %d on %s: %v", ErrUnreachable, p.sshPort, res.PublicIP, err)
	}

	return res, nil
}

// waitForActive polls the provider at a fixed interval until the resource
// is active with a public address, up to PollMaxAttempts polls. A failed
// status aborts immediately; exhausting the attempts yields ErrTimeout.
func (p *Provisioner) waitForActive(ctx context.Context, id string) (*Resource, error) {
	var last *Resource

	for attempt := 1; attempt <= p.timeouts.PollMaxAttempts; attempt++ {
		res, err := p.provider.GetServer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get server %s: %w", id, err)
		}
		last = res

		switch res.Status {
		case StatusActive:
			if res.PublicIP != "" {
				return res, nil
			}
			// Active without an address yet; keep polling.
		case StatusFailed:
			return res, fmt.Errorf("server %s entered failed state", id)
		}

		if attempt < p.timeouts.PollMaxAttempts {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(p.timeouts.PollInterval):
			}
		}
	}

	return last, fmt.Errorf("%w after %d polls", ErrTimeout, p.timeouts.PollMaxAttempts)
}

// WaitForSetup polls for the first-boot sentinel file over the given
// Executor until it appears or SetupMaxAttempts checks are exhausted.
func (p *Provisioner) WaitForSetup(ctx context.Context, exec Executor) error {
	check := fmt.Sprintf("test -f %s && echo ready", SetupSentinel)

	err := retry.Do(ctx, func() error {
		out, err := exec.Execute(ctx, check)
		if err != nil {
			return err
		}
		if strings.TrimSpace(out) != "ready" {
			return fmt.Errorf("sentinel %s not present", SetupSentinel)
		}
		return nil
	},
		retry.WithMaxRetries(p.timeouts.SetupMaxAttempts-1),
		retry.WithConstantDelay(p.timeouts.SetupInterval),
	)

	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %d checks: %v", ErrSetupTimeout, p.timeouts.SetupMaxAttempts, err)
	}

	p.log.Info().Msg("first-boot setup complete")
	return nil
}
