package hysteria

import (
	"math/rand"
	"os"

	"github.com/AdguardTeam/golibs/log"
	"github.com/AdguardTeam/golibs/netutil"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
)

// Port-hopping derivation constants.  The advertised range spans hopSpan
// ports on each side of the listen port, clamped to the usable port space.
// Ports below lowPortThreshold get the fixed low window instead so that the
// range never degenerates near the bottom of the dynamic-port space.
const (
	hopSpan          = 25
	hopRangeFloor    = 1024
	hopRangeCeil     = 65535
	lowPortThreshold = hopRangeFloor + hopSpan
	lowWindowStart   = 1024
	lowWindowEnd     = 1074
)

// Fixed masquerade endpoints for the first two passthrough rules of the
// decision table.
const (
	http3MasqueradeURL = "https://www.google.com"
	wellKnownPortURL   = "https://www.microsoft.com"
)

// DefaultMasqueradeCandidates is the candidate list for the random
// passthrough masquerade.  All entries are well-known HTTPS sites.
var DefaultMasqueradeCandidates = []string{
	"https://www.microsoft.com",
	"https://www.apple.com",
	"https://www.amazon.com",
	"https://www.github.com",
	"https://www.stackoverflow.com",
}

// wellKnownPorts is the set of ports for which probes expect a specific
// well-established site rather than a random one.
var wellKnownPorts = map[uint16]struct{}{
	80:   {},
	443:  {},
	8080: {},
	8443: {},
}

// optimizedPorts is the set of ports for which the QUIC tuning section is
// emitted.
var optimizedPorts = map[uint16]struct{}{
	54116: {},
	17205: {},
	39670: {},
}

// SynthesizerConfig is the configuration for creating a Synthesizer.
type SynthesizerConfig struct {
	// Rand is the randomness source used for the random passthrough
	// masquerade choice.  It is injected so that the choice is reproducible
	// in tests.  Must not be nil.
	Rand *rand.Rand

	// MasqueradeCandidates is the candidate list for the random passthrough
	// masquerade.  If empty, DefaultMasqueradeCandidates is used.
	MasqueradeCandidates []string

	// DirExists reports whether path is an existing directory.  If nil,
	// the local filesystem is checked.
	DirExists func(path string) (ok bool)
}

// Synthesizer derives a complete proxy configuration from a deployment
// profile.  It is stateless apart from the injected randomness source and
// safe to reuse across runs.
type Synthesizer struct {
	rand       *rand.Rand
	candidates []string
	dirExists  func(path string) (ok bool)
}

// NewSynthesizer creates a new Synthesizer.
func NewSynthesizer(cfg *SynthesizerConfig) (s *Synthesizer) {
	s = &Synthesizer{
		rand:       cfg.Rand,
		candidates: cfg.MasqueradeCandidates,
		dirExists:  cfg.DirExists,
	}

	if len(s.candidates) == 0 {
		s.candidates = DefaultMasqueradeCandidates
	}

	if s.dirExists == nil {
		s.dirExists = func(path string) (ok bool) {
			fi, err := os.Stat(path)

			return err == nil && fi.IsDir()
		}
	}

	return s
}

// Synthesize maps the profile to a proxy configuration.  It is total: any
// profile produces a usable configuration, invalid optional inputs are
// normalized rather than rejected.
func (s *Synthesizer) Synthesize(p *profile.Profile) (c *Config) {
	c = &Config{
		Listen: netutil.JoinHostPort("", p.Port),
		TLS: TLS{
			Cert: p.CertPath,
			Key:  p.KeyPath,
		},
		Auth: Auth{
			Type:     "password",
			Password: p.Password,
		},
		Bandwidth: Bandwidth{
			Up:   p.BandwidthUp,
			Down: p.BandwidthDown,
		},
		Log: Log{
			Level:     "warn",
			Output:    p.LogPath(),
			Timestamp: true,
		},
		Resolver: Resolver{
			Type: "udp",
			TCP:  ResolverUpstream{Addr: "8.8.8.8:53", Timeout: "4s"},
			UDP:  ResolverUpstream{Addr: "8.8.8.8:53", Timeout: "4s"},
		},
	}

	if p.Features.PortHopping {
		c.PortHopping = hopRange(p.Port)

		log.Debug(
			"synth: port hopping enabled, listen %d, advertised range %d-%d",
			p.Port,
			c.PortHopping.RangeStart,
			c.PortHopping.RangeEnd,
		)
	}

	if p.Features.ObfsPassword != "" {
		c.Obfs = &Obfs{
			Type:       "salamander",
			Salamander: Salamander{Password: p.Features.ObfsPassword},
		}
	}

	c.Masquerade = s.selectMasquerade(p)

	if _, ok := optimizedPorts[p.Port]; ok {
		c.QUIC = quicTuning()
	}

	return c
}

// hopRange derives the advertised port-hopping range for port.  The server
// still binds exactly one port, the range is metadata for the external
// redirection layer.
func hopRange(port uint16) (h *PortHopping) {
	start := int(port) - hopSpan
	if start < hopRangeFloor {
		start = hopRangeFloor
	}

	end := int(port) + hopSpan
	if end > hopRangeCeil {
		end = hopRangeCeil
	}

	if port < lowPortThreshold {
		start = lowWindowStart
		end = lowWindowEnd
	}

	return &PortHopping{
		Enabled:    true,
		RangeStart: uint16(start),
		RangeEnd:   uint16(end),
		ListenPort: port,
	}
}

// selectMasquerade evaluates the masquerade decision table in strict
// precedence order, first match wins.
func (s *Synthesizer) selectMasquerade(p *profile.Profile) (m Masquerade) {
	webRootOK := p.WebRoot != "" && s.dirExists(p.WebRoot)

	switch {
	case p.Features.HTTP3Masquerade && webRootOK:
		return NewFileMasquerade(p.WebRoot)
	case p.Features.HTTP3Masquerade:
		return NewProxyMasquerade(http3MasqueradeURL)
	case webRootOK:
		return NewFileMasquerade(p.WebRoot)
	}

	if _, ok := wellKnownPorts[p.Port]; ok {
		return NewProxyMasquerade(wellKnownPortURL)
	}

	return NewProxyMasquerade(s.candidates[s.rand.Intn(len(s.candidates))])
}

// quicTuning returns the fixed QUIC parameter set for optimized ports.
func quicTuning() (q *QUIC) {
	return &QUIC{
		InitStreamReceiveWindow: 8388608,
		MaxStreamReceiveWindow:  8388608,
		InitConnReceiveWindow:   20971520,
		MaxConnReceiveWindow:    20971520,
		MaxIdleTimeout:          "30s",
		MaxIncomingStreams:      1024,
		DisablePathMTUDiscovery: false,
	}
}
