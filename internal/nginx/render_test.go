package nginx_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/nginx"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
)

func TestRenderer_Render(t *testing.T) {
	r := nginx.NewRenderer(&nginx.RendererConfig{User: "www-data"})

	p := &profile.Profile{
		Address:  "203.0.113.10",
		CertPath: "/etc/ssl/server.crt",
		KeyPath:  "/etc/ssl/server.key",
		Port:     54116,
	}

	doc, err := r.Render(p, "/srv/decoy")
	require.NoError(t, err)

	assert.Equal(t, nginx.DefaultConfPath, doc.Path)

	for _, want := range []string{
		"user www-data;",
		"listen 80;",
		"listen 54116 ssl http2;",
		"server_name _;",
		"ssl_certificate /etc/ssl/server.crt;",
		"ssl_certificate_key /etc/ssl/server.key;",
		"ssl_protocols TLSv1.2 TLSv1.3;",
		"root /srv/decoy;",
		"try_files $uri $uri/ /index.html;",
		"add_header X-Frame-Options DENY always;",
		"add_header X-Content-Type-Options nosniff always;",
		"server_tokens off;",
	} {
		assert.Contains(t, doc.Text, want)
	}
}

func TestRenderer_Render_defaults(t *testing.T) {
	r := nginx.NewRenderer(&nginx.RendererConfig{ConfPath: "/tmp/nginx-test.conf"})

	p := &profile.Profile{
		CertPath: "server.crt",
		KeyPath:  "server.key",
		Port:     8443,
	}

	doc, err := r.Render(p, "/srv/decoy")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/nginx-test.conf", doc.Path)
	assert.Contains(t, doc.Text, "user nginx;")

	// Relative paths are embedded as absolute ones.
	for _, line := range strings.Split(doc.Text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "ssl_certificate") {
			parts := strings.Fields(trimmed)
			require.Len(t, parts, 2)

			assert.True(t, strings.HasPrefix(parts[1], "/"), "path %q is not absolute", parts[1])
		}
	}
}

func TestRenderer_Render_deterministic(t *testing.T) {
	r := nginx.NewRenderer(&nginx.RendererConfig{User: "nginx"})

	p := &profile.Profile{
		CertPath: "/etc/ssl/server.crt",
		KeyPath:  "/etc/ssl/server.key",
		Port:     443,
	}

	first, err := r.Render(p, "/srv/decoy")
	require.NoError(t, err)

	second, err := r.Render(p, "/srv/decoy")
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
}
