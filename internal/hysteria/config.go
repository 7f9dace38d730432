// Package hysteria is responsible for synthesizing the hysteria2 server
// configuration from a deployment profile.
package hysteria

import "encoding/json"

// Config represents the hysteria2 server configuration document.  It is
// serialized to JSON in the exact shape the hysteria2 binary consumes.
type Config struct {
	// Listen is the listen address in the ":port" form.  The server always
	// binds exactly one UDP port even when port hopping is enabled.
	Listen string `json:"listen"`

	// TLS points to the certificate and key files.
	TLS TLS `json:"tls"`

	// Auth is the password authentication section.
	Auth Auth `json:"auth"`

	// Bandwidth holds the up/down bandwidth caps.
	Bandwidth Bandwidth `json:"bandwidth"`

	// IgnoreClientBandwidth disables the client-side bandwidth negotiation.
	IgnoreClientBandwidth bool `json:"ignoreClientBandwidth"`

	// Log is the log sink configuration.
	Log Log `json:"log"`

	// Resolver is the upstream DNS resolver used by the proxy.
	Resolver Resolver `json:"resolver"`

	// Obfs is the salamander obfuscation section.  Nil when obfuscation is
	// disabled.
	Obfs *Obfs `json:"obfs,omitempty"`

	// Masquerade describes the decoy behavior presented to probes.
	Masquerade Masquerade `json:"masquerade"`

	// PortHopping is advertised metadata for the external port-redirection
	// layer.  The hysteria2 binary itself ignores this section.  Nil when
	// port hopping is disabled.
	PortHopping *PortHopping `json:"_port_hopping,omitempty"`

	// QUIC is the optional QUIC transport tuning section.
	QUIC *QUIC `json:"quic,omitempty"`
}

// Marshal serializes the configuration document.  The output is deterministic
// for a given Config value.
func (c *Config) Marshal() (b []byte, err error) {
	return json.MarshalIndent(c, "", "  ")
}

// TLS is the TLS section of the configuration.
type TLS struct {
	Cert string `json:"cert"`
	Key  string `json:"key"`
}

// Auth is the authentication section of the configuration.
type Auth struct {
	Type     string `json:"type"`
	Password string `json:"password"`
}

// Bandwidth is the bandwidth section of the configuration.
type Bandwidth struct {
	Up   string `json:"up"`
	Down string `json:"down"`
}

// Log is the log section of the configuration.
type Log struct {
	Level     string `json:"level"`
	Output    string `json:"output"`
	Timestamp bool   `json:"timestamp"`
}

// Resolver is the resolver section of the configuration.
type Resolver struct {
	Type string           `json:"type"`
	TCP  ResolverUpstream `json:"tcp"`
	UDP  ResolverUpstream `json:"udp"`
}

// ResolverUpstream is a single upstream entry of the resolver section.
type ResolverUpstream struct {
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// Obfs is the salamander obfuscation section of the configuration.
type Obfs struct {
	Type       string     `json:"type"`
	Salamander Salamander `json:"salamander"`
}

// Salamander holds the salamander obfuscation password.
type Salamander struct {
	Password string `json:"password"`
}

// Masquerade is a tagged variant: exactly one of File and Proxy is set,
// depending on Type.  Use NewFileMasquerade and NewProxyMasquerade to
// construct valid values.
type Masquerade struct {
	Type  string            `json:"type"`
	File  *FileServe        `json:"file,omitempty"`
	Proxy *ProxyPassthrough `json:"proxy,omitempty"`
}

// Masquerade type tags.
const (
	MasqueradeFile  = "file"
	MasqueradeProxy = "proxy"
)

// FileServe is the file-serving masquerade variant.
type FileServe struct {
	Dir string `json:"dir"`
}

// ProxyPassthrough is the reverse-proxy masquerade variant.
type ProxyPassthrough struct {
	URL         string `json:"url"`
	RewriteHost bool   `json:"rewriteHost"`
}

// NewFileMasquerade returns a masquerade that serves static files from dir.
func NewFileMasquerade(dir string) (m Masquerade) {
	return Masquerade{
		Type: MasqueradeFile,
		File: &FileServe{Dir: dir},
	}
}

// NewProxyMasquerade returns a masquerade that proxies probe traffic to url.
func NewProxyMasquerade(url string) (m Masquerade) {
	return Masquerade{
		Type:  MasqueradeProxy,
		Proxy: &ProxyPassthrough{URL: url, RewriteHost: true},
	}
}

// PortHopping is the advertised port-hopping metadata.  ListenPort always
// equals the port in Listen, and RangeStart <= ListenPort <= RangeEnd holds
// for every value produced by Synthesize.
type PortHopping struct {
	Enabled    bool   `json:"enabled"`
	RangeStart uint16 `json:"range_start"`
	RangeEnd   uint16 `json:"range_end"`
	ListenPort uint16 `json:"listen_port"`
}

// QUIC is the QUIC transport tuning section of the configuration.
type QUIC struct {
	InitStreamReceiveWindow int64  `json:"initStreamReceiveWindow"`
	MaxStreamReceiveWindow  int64  `json:"maxStreamReceiveWindow"`
	InitConnReceiveWindow   int64  `json:"initConnReceiveWindow"`
	MaxConnReceiveWindow    int64  `json:"maxConnReceiveWindow"`
	MaxIdleTimeout          string `json:"maxIdleTimeout"`
	MaxIncomingStreams      int64  `json:"maxIncomingStreams"`
	DisablePathMTUDiscovery bool   `json:"disablePathMTUDiscovery"`
}
