// Package nginx is responsible for the front proxy: rendering the nginx
// configuration document and talking to the nginx binary and service.
package nginx

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
)

// DefaultConfPath is the live nginx configuration path on most distributions.
const DefaultConfPath = "/etc/nginx/nginx.conf"

// confTemplate is the front proxy configuration.  A single virtual host
// listens on plain port 80 and on the shared port with TLS, serves the decoy
// site with a single-page-app fallback and hides the proxy completely.
const confTemplate = `user {{.User}};
worker_processes auto;
error_log /var/log/nginx/error.log notice;
pid /run/nginx.pid;

events {
    worker_connections 1024;
}

http {
    include /etc/nginx/mime.types;
    default_type application/octet-stream;
    sendfile on;
    keepalive_timeout 65;
    server_tokens off;

    server {
        listen 80;
        listen {{.Port}} ssl http2;
        server_name _;

        ssl_certificate {{.CertPath}};
        ssl_certificate_key {{.KeyPath}};
        ssl_protocols TLSv1.2 TLSv1.3;
        ssl_ciphers ECDHE-RSA-AES128-GCM-SHA256:ECDHE-RSA-AES256-GCM-SHA384;

        root {{.WebRoot}};
        index index.html index.htm;

        location / {
            try_files $uri $uri/ /index.html;
        }

        add_header X-Frame-Options DENY always;
        add_header X-Content-Type-Options nosniff always;
    }
}
`

// Document is a rendered front proxy configuration together with the live
// path it is meant to be written to.
type Document struct {
	// Path is the target configuration file path.
	Path string

	// Text is the rendered configuration.
	Text string
}

// RendererConfig is the configuration for creating a Renderer.
type RendererConfig struct {
	// User is the system user nginx workers run as.
	User string

	// ConfPath is the live configuration path.  If empty, DefaultConfPath is
	// used.
	ConfPath string
}

// Renderer renders front proxy configuration documents.  Rendering is pure
// string templating: it requires neither nginx nor the referenced files to be
// present.
type Renderer struct {
	tmpl     *template.Template
	user     string
	confPath string
}

// NewRenderer creates a new Renderer.
func NewRenderer(cfg *RendererConfig) (r *Renderer) {
	r = &Renderer{
		tmpl:     template.Must(template.New("nginx.conf").Parse(confTemplate)),
		user:     cfg.User,
		confPath: cfg.ConfPath,
	}

	if r.user == "" {
		r.user = "nginx"
	}

	if r.confPath == "" {
		r.confPath = DefaultConfPath
	}

	return r
}

// Render produces the front proxy document for the profile.  Certificate and
// key paths are embedded as absolute paths.
func (r *Renderer) Render(p *profile.Profile, webRoot string) (doc *Document, err error) {
	certPath, err := filepath.Abs(p.CertPath)
	if err != nil {
		return nil, fmt.Errorf("resolving cert path: %w", err)
	}

	keyPath, err := filepath.Abs(p.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("resolving key path: %w", err)
	}

	b := &strings.Builder{}
	err = r.tmpl.Execute(b, struct {
		User     string
		CertPath string
		KeyPath  string
		WebRoot  string
		Port     uint16
	}{
		User:     r.user,
		CertPath: certPath,
		KeyPath:  keyPath,
		WebRoot:  webRoot,
		Port:     p.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering nginx config: %w", err)
	}

	return &Document{
		Path: r.confPath,
		Text: b.String(),
	}, nil
}
