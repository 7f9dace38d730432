// Package config is responsible for parsing the deployment configuration
// file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File represents a deployment configuration file.
type File struct {
	// Server is the proxy server section of the configuration file.  Must be
	// specified.
	Server *Server `yaml:"server"`

	// Features is the optional hardening features section.
	Features *Features `yaml:"features"`

	// Nginx is the front proxy section.
	Nginx *Nginx `yaml:"nginx"`

	// Prometheus enables the metrics endpoint of the foreground run command.
	Prometheus *Prometheus `yaml:"prometheus"`

	// BaseDir is the directory where all generated artifacts live.  If not
	// specified, ".hysteria2" under the user home directory is used.
	BaseDir string `yaml:"base-dir"`
}

// Server represents the proxy server section of the configuration file.
type Server struct {
	// Address is the public address (IP or domain) clients connect to.  If
	// not specified, the public address is detected at run time.
	Address string `yaml:"address"`

	// Password is the proxy authentication password.  If not specified, a
	// random one is generated.
	Password string `yaml:"password"`

	// CertPath and KeyPath point to an existing certificate and key.  If not
	// specified or missing, a self-signed certificate is generated.
	CertPath string `yaml:"cert-path"`
	KeyPath  string `yaml:"key-path"`

	// WebRoot is an existing directory with decoy static content.  If not
	// specified, a decoy site is generated.
	WebRoot string `yaml:"web-root"`

	// BandwidthUp and BandwidthDown are the bandwidth caps.  If not
	// specified, "1000 mbps" is used for both.
	BandwidthUp   string `yaml:"bandwidth-up"`
	BandwidthDown string `yaml:"bandwidth-down"`

	// Port is the shared TCP/UDP port.  Must be specified.
	Port uint16 `yaml:"port"`

	// RealCert declares that the certificate trust chain is externally
	// verifiable.  Requires CertPath and KeyPath.
	RealCert bool `yaml:"real-cert"`
}

// Features represents the hardening features section of the configuration
// file.
type Features struct {
	// ObfsPassword enables salamander obfuscation when not empty.
	ObfsPassword string `yaml:"obfs-password"`

	// PortHopping enables advertising a client-visible port range.
	PortHopping bool `yaml:"port-hopping"`

	// HTTP3Masquerade makes the proxy traffic mimic ordinary HTTP/3.
	HTTP3Masquerade bool `yaml:"http3-masquerade"`

	// OneClick enables port hopping and HTTP/3 masquerade and generates an
	// obfuscation password when none is specified.
	OneClick bool `yaml:"one-click"`
}

// Nginx represents the front proxy section of the configuration file.
type Nginx struct {
	// User is the system user nginx workers run as.  If not specified,
	// "nginx" is used.
	User string `yaml:"user"`

	// ConfPath is the live configuration path.  If not specified,
	// /etc/nginx/nginx.conf is used.
	ConfPath string `yaml:"conf-path"`

	// Service is the service name used for restarts.  If not specified,
	// "nginx" is used.
	Service string `yaml:"service"`

	// Sudo elevates the external nginx and systemctl invocations.
	Sudo bool `yaml:"sudo"`
}

// Prometheus represents the prometheus configuration.
type Prometheus struct {
	// Addr is the address where prometheus metrics are exposed.
	Addr string `yaml:"addr"`

	// Port is the port where prometheus metrics will be exposed.
	Port uint16 `yaml:"port"`
}

// Load loads and validates configuration from the specified file.
func Load(path string) (cfg *File, err error) {
	// Ignore G304 here as it's trusted context.
	//nolint:gosec
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg = &File{}
	err = yaml.Unmarshal(b, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	err = validate(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to validate config file: %w", err)
	}

	return cfg, nil
}

func validate(cfg *File) (err error) {
	if cfg.Server == nil {
		return fmt.Errorf("no server configured")
	}

	if cfg.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}

	if cfg.Server.RealCert &&
		(cfg.Server.CertPath == "" || cfg.Server.KeyPath == "") {
		return fmt.Errorf("real-cert requires cert-path and key-path")
	}

	if cfg.Prometheus != nil && cfg.Prometheus.Port == 0 {
		return fmt.Errorf("prometheus.port is required")
	}

	return nil
}
