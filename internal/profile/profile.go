// Package profile defines the server deployment profile, an immutable
// description of a single deployment run.
package profile

import "path/filepath"

// Features is the set of optional hardening features requested for the
// deployment.
type Features struct {
	// ObfsPassword is the salamander obfuscation password.  Obfuscation is
	// enabled when it is not empty.
	ObfsPassword string

	// PortHopping enables advertising a client-visible port range that an
	// external redirection layer maps onto the single listen port.
	PortHopping bool

	// HTTP3Masquerade makes the proxy traffic mimic ordinary HTTP/3.
	HTTP3Masquerade bool
}

// Profile describes the desired deployment.  It is created once per run from
// the user input and must not be mutated afterwards.
type Profile struct {
	// Address is the public address (IP or domain) clients connect to.
	Address string

	// Password is the proxy authentication password.
	Password string

	// CertPath and KeyPath point to the TLS certificate and private key used
	// both by the proxy and by the front proxy.
	CertPath string
	KeyPath  string

	// WebRoot is the directory with decoy static content.  Optional, empty
	// means no local web root is used.
	WebRoot string

	// BaseDir is the directory where all generated artifacts live.
	BaseDir string

	// BandwidthUp and BandwidthDown are the bandwidth caps copied verbatim
	// into the proxy configuration.
	BandwidthUp   string
	BandwidthDown string

	// Features holds the optional feature toggles.
	Features Features

	// Port is the shared TCP/UDP port number.
	Port uint16

	// RealCert is true when the certificate trust chain is externally
	// verifiable, i.e. not a self-signed certificate.
	RealCert bool
}

// ConfigPath returns the path to the generated proxy configuration file.
func (p *Profile) ConfigPath() (path string) {
	return filepath.Join(p.BaseDir, "config", "config.json")
}

// LogPath returns the path to the proxy log file.
func (p *Profile) LogPath() (path string) {
	return filepath.Join(p.BaseDir, "logs", "hysteria.log")
}

// CertDir returns the directory where generated certificates are stored.
func (p *Profile) CertDir() (dir string) {
	return filepath.Join(p.BaseDir, "cert")
}

// WebDir returns the default decoy web root directory.
func (p *Profile) WebDir() (dir string) {
	return filepath.Join(p.BaseDir, "web")
}
