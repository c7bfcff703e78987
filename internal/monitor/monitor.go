// Package monitor inspects a running mail server over SSH and produces a
// health snapshot: service state, listening ports, resource usage and
// mail queue depth, checked against alert thresholds.
package monitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mailship/mailship/internal/mailserver"
	"github.com/mailship/mailship/internal/util/netutil"
)

// Thresholds are the limits above which a resource reading raises an
// alert.
type Thresholds struct {
	DiskUsagePercent   float64
	MemoryUsagePercent float64
	LoadAverage        float64
	QueueSize          int
}

// DefaultThresholds mirror what a small single-purpose mail host
// tolerates before an operator should look.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DiskUsagePercent:   90,
		MemoryUsagePercent: 90,
		LoadAverage:        5.0,
		QueueSize:          100,
	}
}

// Config selects what one Monitor watches.
type Config struct {
	// Host is probed directly for TCP reachability and recorded in the
	// snapshot.
	Host string

	// Services are the systemd units that must be active.
	// Defaults to the mail stack: postfix, dovecot, mysql, nginx.
	Services []string

	// Ports are probed for TCP reachability on Host.
	// Defaults to the mail protocol ports: 25, 587, 993, 995.
	Ports []int

	Thresholds Thresholds
}

func (c Config) withDefaults() Config {
	if len(c.Services) == 0 {
		c.Services = []string{"postfix", "dovecot", "mysql", "nginx"}
	}
	if len(c.Ports) == 0 {
		c.Ports = []int{25, 587, 993, 995}
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = DefaultThresholds()
	}
	return c
}

// Resources holds one sample of host resource usage.
type Resources struct {
	DiskUsagePercent   float64 `json:"disk_usage_percent"`
	MemoryUsagePercent float64 `json:"memory_usage_percent"`
	LoadAverage        float64 `json:"load_average"`
}

// Snapshot is the result of one health check run.
type Snapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Host      string          `json:"host"`
	Services  map[string]bool `json:"services"`
	Ports     map[int]bool    `json:"ports"`
	Resources Resources       `json:"resources"`
	QueueSize int             `json:"mail_queue"`
	Alerts    []string        `json:"alerts,omitempty"`
	Healthy   bool            `json:"healthy"`
}

// Monitor runs health checks against one host.
type Monitor struct {
	runner mailserver.Runner
	cfg    Config
	log    zerolog.Logger
}

// New creates a Monitor. The runner executes commands on the target host.
func New(runner mailserver.Runner, cfg Config, log zerolog.Logger) *Monitor {
	return &Monitor{runner: runner, cfg: cfg.withDefaults(), log: log}
}

// Check runs all health checks and returns the snapshot. Individual
// probe failures become alerts rather than errors so one broken probe
// does not hide the rest of the picture.
func (m *Monitor) Check(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		Timestamp: time.Now().UTC(),
		Host:      m.cfg.Host,
		Services:  make(map[string]bool, len(m.cfg.Services)),
		Ports:     make(map[int]bool, len(m.cfg.Ports)),
	}

	for _, service := range m.cfg.Services {
		active := m.serviceActive(ctx, service)
		snap.Services[service] = active
		if !active {
			snap.Alerts = append(snap.Alerts, fmt.Sprintf("Service %s is not running", service))
		}
	}

	for _, port := range m.cfg.Ports {
		open := netutil.PortOpen(m.cfg.Host, port)
		snap.Ports[port] = open
		if !open {
			snap.Alerts = append(snap.Alerts, fmt.Sprintf("Port %d is not accessible", port))
		}
	}

	snap.Resources = m.sampleResources(ctx, snap)
	snap.QueueSize = m.queueSize(ctx, snap)

	t := m.cfg.Thresholds
	if snap.Resources.DiskUsagePercent > t.DiskUsagePercent {
		snap.Alerts = append(snap.Alerts, fmt.Sprintf("High disk usage: %.0f%%", snap.Resources.DiskUsagePercent))
	}
	if snap.Resources.MemoryUsagePercent > t.MemoryUsagePercent {
		snap.Alerts = append(snap.Alerts, fmt.Sprintf("High memory usage: %.0f%%", snap.Resources.MemoryUsagePercent))
	}
	if snap.Resources.LoadAverage > t.LoadAverage {
		snap.Alerts = append(snap.Alerts, fmt.Sprintf("High load average: %.2f", snap.Resources.LoadAverage))
	}
	if snap.QueueSize > t.QueueSize {
		snap.Alerts = append(snap.Alerts, fmt.Sprintf("Large mail queue: %d messages", snap.QueueSize))
	}

	snap.Healthy = len(snap.Alerts) == 0
	m.log.Info().Bool("healthy", snap.Healthy).Int("alerts", len(snap.Alerts)).Msg("health check complete")
	return snap
}

func (m *Monitor) serviceActive(ctx context.Context, service string) bool {
	output, err := m.runner.Execute(ctx, "systemctl is-active "+service)
	return err == nil && strings.TrimSpace(output) == "active"
}

func (m *Monitor) sampleResources(ctx context.Context, snap *Snapshot) Resources {
	var res Resources

	if out, err := m.runner.Execute(ctx, "df --output=pcent / | tail -1"); err == nil {
		raw := strings.TrimSuffix(strings.TrimSpace(out), "%")
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			res.DiskUsagePercent = v
		}
	} else {
		snap.Alerts = append(snap.Alerts, "Could not read disk usage")
	}

	if out, err := m.runner.Execute(ctx, "free | awk '/Mem:/ {printf \"%.1f\", $3/$2*100}'"); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(out), 64); err == nil {
			res.MemoryUsagePercent = v
		}
	} else {
		snap.Alerts = append(snap.Alerts, "Could not read memory usage")
	}

	if out, err := m.runner.Execute(ctx, "cat /proc/loadavg"); err == nil {
		fields := strings.Fields(out)
		if len(fields) > 0 {
			if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
				res.LoadAverage = v
			}
		}
	} else {
		snap.Alerts = append(snap.Alerts, "Could not read load average")
	}

	return res
}

// queueSize counts messages in the Postfix queue.
func (m *Monitor) queueSize(ctx context.Context, snap *Snapshot) int {
	out, err := m.runner.Execute(ctx, "postqueue -p")
	if err != nil {
		snap.Alerts = append(snap.Alerts, "Could not read mail queue")
		return 0
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) == 0 || strings.Contains(lines[len(lines)-1], "Mail queue is empty") {
		return 0
	}

	count := 0
	for _, line := range lines {
		if line == "" || strings.HasPrefix(line, "-") || strings.HasPrefix(line, "Mail") {
			continue
		}
		count++
	}
	if count > 0 {
		count-- // header line
	}
	return count
}
