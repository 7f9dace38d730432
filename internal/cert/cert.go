// Package cert is responsible for providing TLS certificates via the
// external openssl tool.
package cert

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/AdguardTeam/golibs/log"
)

// Provider generates long-lived self-signed certificates.
type Provider struct {
	// Dir is the directory the certificate and key are written to.
	Dir string
}

// EnsureCertificate generates a self-signed certificate for commonName and
// returns the paths to the certificate and the key.  An empty common name
// falls back to "localhost".
func (p *Provider) EnsureCertificate(commonName string) (certPath, keyPath string, err error) {
	if commonName == "" {
		log.Info("cert: empty common name, using localhost")

		commonName = "localhost"
	}

	err = os.MkdirAll(p.Dir, 0o755)
	if err != nil {
		return "", "", fmt.Errorf("creating cert dir: %w", err)
	}

	certPath = filepath.Join(p.Dir, "server.crt")
	keyPath = filepath.Join(p.Dir, "server.key")

	log.Info("cert: generating self-signed certificate for %s", commonName)

	// #nosec G204 -- The common name comes from the operator.
	out, err := exec.Command(
		"openssl", "req", "-x509", "-nodes",
		"-newkey", "rsa:4096",
		"-keyout", keyPath,
		"-out", certPath,
		"-subj", "/CN="+commonName,
		"-days", "36500",
		"-sha256",
	).CombinedOutput()
	if err != nil {
		return "", "", fmt.Errorf("openssl failed: %w: %s", err, out)
	}

	err = os.Chmod(certPath, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("setting cert permissions: %w", err)
	}

	err = os.Chmod(keyPath, 0o600)
	if err != nil {
		return "", "", fmt.Errorf("setting key permissions: %w", err)
	}

	return certPath, keyPath, nil
}
