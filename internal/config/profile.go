package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AdguardTeam/golibs/log"
	"github.com/google/uuid"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
)

// defaultBandwidth is the bandwidth cap used when none is configured.
const defaultBandwidth = "1000 mbps"

// ToProfile transforms the configuration to the immutable deployment
// profile.  Missing credentials are generated here, so the returned profile
// is complete and never changes afterwards.
func (f *File) ToProfile() (p *profile.Profile, err error) {
	s := f.Server

	p = &profile.Profile{
		Address:       s.Address,
		Password:      s.Password,
		CertPath:      s.CertPath,
		KeyPath:       s.KeyPath,
		WebRoot:       s.WebRoot,
		BandwidthUp:   s.BandwidthUp,
		BandwidthDown: s.BandwidthDown,
		Port:          s.Port,
		RealCert:      s.RealCert,
	}

	if p.Password == "" {
		p.Password = strings.ReplaceAll(uuid.NewString(), "-", "")

		log.Info("config: generated proxy password")
	}

	if p.BandwidthUp == "" {
		p.BandwidthUp = defaultBandwidth
	}

	if p.BandwidthDown == "" {
		p.BandwidthDown = defaultBandwidth
	}

	p.BaseDir = f.BaseDir
	if p.BaseDir == "" {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return nil, fmt.Errorf("resolving home dir: %w", homeErr)
		}

		p.BaseDir = filepath.Join(home, ".hysteria2")
	}

	if f.Features != nil {
		p.Features = profile.Features{
			ObfsPassword:    f.Features.ObfsPassword,
			PortHopping:     f.Features.PortHopping,
			HTTP3Masquerade: f.Features.HTTP3Masquerade,
		}

		if f.Features.OneClick {
			p.Features.PortHopping = true
			p.Features.HTTP3Masquerade = true

			if p.Features.ObfsPassword == "" {
				p.Features.ObfsPassword = strings.ReplaceAll(uuid.NewString(), "-", "")

				log.Info("config: generated obfuscation password")
			}
		}
	}

	return p, nil
}

// NginxUser returns the configured nginx user or the default one.
func (f *File) NginxUser() (user string) {
	if f.Nginx == nil || f.Nginx.User == "" {
		return "nginx"
	}

	return f.Nginx.User
}

// NginxConfPath returns the configured live nginx configuration path, empty
// when the default should be used.
func (f *File) NginxConfPath() (path string) {
	if f.Nginx == nil {
		return ""
	}

	return f.Nginx.ConfPath
}

// NginxService returns the configured front proxy service name or the
// default one.
func (f *File) NginxService() (name string) {
	if f.Nginx == nil || f.Nginx.Service == "" {
		return "nginx"
	}

	return f.Nginx.Service
}

// NginxSudo reports whether external nginx invocations should be elevated.
func (f *File) NginxSudo() (ok bool) {
	return f.Nginx != nil && f.Nginx.Sudo
}
