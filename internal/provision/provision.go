// Package provision creates a VPS through a cloud provider API and waits,
// in bounded steps, until it is ready for remote configuration.
//
// Readiness is established in three sequential waits: the provider reports
// the resource active, the SSH port accepts connections, and the first-boot
// script leaves its completion sentinel. Each wait honors context
// cancellation between attempts, so an operator can abort with SIGINT
// without waiting out the full budget.
package provision

import "context"

// Status is the lifecycle state of a provisioned resource.
type Status string

const (
	// StatusPending means the resource is still being created or booted.
	StatusPending Status = "pending"
	// StatusActive means the resource is running and has a public address.
	StatusActive Status = "active"
	// StatusFailed is terminal; the provider gave up on the resource.
	StatusFailed Status = "failed"
)

// Request describes the server to create. Immutable once submitted.
type Request struct {
	Name     string
	Region   string
	Size     string
	Image    string
	SSHKeys  []string
	UserData string
	Tags     []string
}

// Resource is a snapshot of a provisioned server as reported by the
// provider. PublicIP is empty until the resource reaches StatusActive.
type Resource struct {
	ID       string
	PublicIP string
	Status   Status
}

// Provider abstracts the cloud API used to create and inspect servers.
type Provider interface {
	// CreateServer submits the create request and returns the resource ID.
	CreateServer(ctx context.Context, req Request) (string, error)
	// GetServer returns the current state of the resource.
	GetServer(ctx context.Context, id string) (*Resource, error)
}

// Executor runs a command on the provisioned server and returns its
// combined output.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}
