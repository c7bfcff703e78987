package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mailship/mailship/internal/config"
	"github.com/mailship/mailship/internal/util/keygen"
)

// fileExists checks if a file exists (for testing injection).
var fileExists = func(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

const starterConfig = `# mailship deployment configuration
#
# Tokens can also come from the environment:
#   DIGITALOCEAN_TOKEN / HCLOUD_TOKEN (server)
#   CLOUDFLARE_API_TOKEN (dns)

server:
  provider: digitalocean    # digitalocean or hetzner
  region: fra1
  size: s-2vcpu-4gb
  image: ubuntu-22-04-x64
  ssh_keys: []              # provider SSH key names or fingerprints
  ssh_private_key: ~/.ssh/id_rsa

dns:
  provider: cloudflare
  ttl: 3600
  # zone_ids:
  #   example.com: your-zone-id

domains:
  - example.com

email:
  accounts_per_domain: 3
  password_length: 16
  admin_email: admin@example.com

report:
  output_dir: ""            # default: mailship-deploy-<timestamp>
  # s3:
  #   endpoint: https://s3.eu-central-1.amazonaws.com
  #   region: eu-central-1
  #   bucket: mail-reports
  #   access_key: ...
  #   secret_key: ...

# webhook: https://hooks.example.com/services/...
`

// InitOptions are the init command's flag values.
type InitOptions struct {
	OutputPath  string
	GenerateKey bool
}

// deployKeyBits sizes the generated deploy keypair.
const deployKeyBits = 4096

// Init writes a starter configuration file and prints next steps. With
// GenerateKey set, it also generates an SSH deploy keypair next to the
// config and points the starter config at it.
func Init(_ context.Context, opts InitOptions) error {
	if fileExists(opts.OutputPath) {
		fmt.Printf("Warning: %s already exists and will be overwritten.\n\n", opts.OutputPath)
	}

	content := starterConfig
	var keyPath string
	if opts.GenerateKey {
		var err error
		keyPath, err = writeDeployKey(opts.OutputPath)
		if err != nil {
			return err
		}
		content = strings.Replace(content, "ssh_private_key: ~/.ssh/id_rsa", "ssh_private_key: "+keyPath, 1)
	}

	if err := writeFile(opts.OutputPath, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(opts.OutputPath, keyPath)
	return nil
}

// writeDeployKey generates an RSA keypair beside the config file and
// returns the private key path.
func writeDeployKey(configPath string) (string, error) {
	pair, err := keygen.GenerateRSAKeyPair(deployKeyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate deploy key: %w", err)
	}

	keyPath := filepath.Join(filepath.Dir(configPath), "mailship_rsa")
	if err := writeFile(keyPath, pair.PrivateKey, 0o600); err != nil {
		return "", fmt.Errorf("failed to write private key: %w", err)
	}
	if err := writeFile(keyPath+".pub", pair.PublicKey, 0o644); err != nil {
		return "", fmt.Errorf("failed to write public key: %w", err)
	}
	return keyPath, nil
}

func printInitSuccess(outputPath, keyPath string) {
	fmt.Println()
	fmt.Println("Configuration saved!")
	fmt.Println()
	fmt.Printf("  File: %s\n", outputPath)
	if keyPath != "" {
		fmt.Printf("  Deploy key: %s (upload %s.pub to your provider)\n", keyPath, keyPath)
	}
	fmt.Println()
	fmt.Println("Next Steps")
	fmt.Println("----------")
	fmt.Println("  1. Edit the file: set your domains, region and SSH key")
	fmt.Println()
	fmt.Println("  2. Set your provider tokens:")
	fmt.Println("     export DIGITALOCEAN_TOKEN=<your-token>")
	fmt.Println("     export CLOUDFLARE_API_TOKEN=<your-token>")
	fmt.Println()
	fmt.Println("  3. Check your domains for conflicts:")
	fmt.Println("     mailship analyze")
	fmt.Println()
	fmt.Println("  4. Deploy:")
	fmt.Println("     mailship deploy")
	fmt.Println()
	fmt.Printf("The default config file name is %s.\n", config.DefaultConfigFile)
}
