// Package share builds and parses shareable hysteria2 connection
// descriptors.
package share

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/AdguardTeam/golibs/netutil"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
)

// scheme is the descriptor URI scheme.
const scheme = "hysteria2"

// obfsType is the only obfuscation type the descriptor can carry.
const obfsType = "salamander"

// Build produces the connection descriptor for the profile.  The descriptor
// is a strict function of the profile: no network or filesystem access.
//
// The shape is:
//
//	hysteria2://password@address:port?insecure=0|1&sni=address[&obfs=salamander&obfs-password=...]
func Build(p *profile.Profile) (link string) {
	insecure := "1"
	if p.RealCert {
		insecure = "0"
	}

	params := []string{
		"insecure=" + insecure,
		"sni=" + queryEscape(p.Address),
	}

	if p.Features.ObfsPassword != "" {
		params = append(
			params,
			"obfs="+obfsType,
			"obfs-password="+queryEscape(p.Features.ObfsPassword),
		)
	}

	u := &url.URL{
		Scheme:   scheme,
		User:     url.User(p.Password),
		Host:     netutil.JoinHostPort(p.Address, p.Port),
		RawQuery: strings.Join(params, "&"),
	}

	return u.String()
}

// queryEscape percent-encodes v for use as a query value.  Spaces are encoded
// as "%20", not "+", so the value reads the same under both form and strict
// percent decoding.
func queryEscape(v string) (escaped string) {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// Descriptor is the parsed form of a connection descriptor.
type Descriptor struct {
	Address      string
	Password     string
	SNI          string
	ObfsPassword string
	Port         uint16
	Insecure     bool
}

// Parse parses a connection descriptor previously produced by Build.
func Parse(link string) (d *Descriptor, err error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("parsing descriptor: %w", err)
	}

	if u.Scheme != scheme {
		return nil, fmt.Errorf("unexpected scheme %q", u.Scheme)
	}

	if u.User == nil {
		return nil, fmt.Errorf("descriptor has no password")
	}

	port, err := strconv.ParseUint(u.Port(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("parsing descriptor port: %w", err)
	}

	q := u.Query()

	d = &Descriptor{
		Address:  u.Hostname(),
		Password: u.User.Username(),
		SNI:      q.Get("sni"),
		Insecure: q.Get("insecure") == "1",
		Port:     uint16(port),
	}

	if q.Get("obfs") == obfsType {
		d.ObfsPassword = q.Get("obfs-password")
	}

	return d, nil
}
