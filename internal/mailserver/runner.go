// Package mailserver configures Postfix, Dovecot, TLS certificates and
// virtual mailboxes on a provisioned server, and creates email accounts
// backed by a MySQL user database.
package mailserver

import (
	"context"
	"os"
	"strings"
)

// Runner executes commands on and uploads files to the target server.
// *ssh.Client satisfies this interface.
type Runner interface {
	Execute(ctx context.Context, command string) (string, error)
	Upload(ctx context.Context, remotePath string, content []byte, mode os.FileMode) error
}

// shellQuote wraps s in single quotes for safe interpolation into a shell
// command line.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// sqlQuote escapes s for embedding in a single-quoted SQL string literal.
func sqlQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
