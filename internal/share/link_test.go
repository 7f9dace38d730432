package share_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/share"
)

func TestBuild(t *testing.T) {
	testCases := []struct {
		name    string
		profile *profile.Profile
		want    string
	}{{
		name: "plain",
		profile: &profile.Profile{
			Address:  "203.0.113.10",
			Password: "secret",
			Port:     54116,
		},
		want: "hysteria2://secret@203.0.113.10:54116?insecure=1&sni=203.0.113.10",
	}, {
		name: "real_cert",
		profile: &profile.Profile{
			Address:  "proxy.example.org",
			Password: "secret",
			Port:     443,
			RealCert: true,
		},
		want: "hysteria2://secret@proxy.example.org:443?insecure=0&sni=proxy.example.org",
	}, {
		name: "obfs",
		profile: &profile.Profile{
			Address:  "203.0.113.10",
			Password: "secret",
			Port:     54116,
			Features: profile.Features{ObfsPassword: "ob fs&pass"},
		},
		// Spaces are strictly percent-encoded, never "+".
		want: "hysteria2://secret@203.0.113.10:54116" +
			"?insecure=1&sni=203.0.113.10&obfs=salamander&obfs-password=ob%20fs%26pass",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, share.Build(tc.profile))
		})
	}
}

func TestParse_roundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		profile *profile.Profile
	}{{
		name: "plain",
		profile: &profile.Profile{
			Address:  "203.0.113.10",
			Password: "secret",
			Port:     54116,
		},
	}, {
		name: "special_chars",
		profile: &profile.Profile{
			Address:  "proxy.example.org",
			Password: "123qwe!@#QWE",
			Port:     443,
			RealCert: true,
			Features: profile.Features{ObfsPassword: "p@ss w/ord&more"},
		},
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := share.Parse(share.Build(tc.profile))
			require.NoError(t, err)

			assert.Equal(t, tc.profile.Address, d.Address)
			assert.Equal(t, tc.profile.Port, d.Port)
			assert.Equal(t, tc.profile.Password, d.Password)
			assert.Equal(t, tc.profile.Features.ObfsPassword, d.ObfsPassword)
			assert.Equal(t, tc.profile.Address, d.SNI)
			assert.Equal(t, !tc.profile.RealCert, d.Insecure)
		})
	}
}

func TestParse_errors(t *testing.T) {
	testCases := []struct {
		name string
		link string
	}{{
		name: "wrong_scheme",
		link: "vmess://secret@203.0.113.10:443?insecure=1",
	}, {
		name: "no_password",
		link: "hysteria2://203.0.113.10:443?insecure=1",
	}, {
		name: "no_port",
		link: "hysteria2://secret@203.0.113.10?insecure=1",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := share.Parse(tc.link)
			require.Error(t, err)
		})
	}
}
