// Package webroot is responsible for generating the decoy static site served
// by the front proxy and by the file masquerade.
package webroot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AdguardTeam/golibs/log"
)

// indexHTML is the decoy landing page.  A bland corporate site is the least
// remarkable thing a probe can find behind a TLS port.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Global Digital Solutions - Enterprise Cloud Services</title>
    <meta name="description" content="Leading provider of enterprise cloud solutions, digital infrastructure, and business technology services.">
    <meta name="keywords" content="cloud computing, enterprise solutions, digital transformation, IT services">
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; background: #f8f9fa; }
        .container { max-width: 1200px; margin: 0 auto; padding: 0 20px; }
        header { background: linear-gradient(135deg, #2c5aa0 0%, #1e3a8a 100%); color: white; padding: 1rem 0; }
        nav { display: flex; justify-content: space-between; align-items: center; }
        .logo { font-size: 1.8rem; font-weight: bold; }
        .nav-links { display: flex; list-style: none; gap: 2rem; }
        .nav-links a { color: white; text-decoration: none; font-weight: 500; }
        .hero { background: linear-gradient(135deg, #f8fafc 0%, #e2e8f0 100%); padding: 5rem 0; text-align: center; }
        .hero h1 { font-size: 3.5rem; margin-bottom: 1rem; color: #1e293b; font-weight: 700; }
        .hero p { font-size: 1.3rem; color: #64748b; margin-bottom: 2.5rem; max-width: 600px; margin-left: auto; margin-right: auto; }
        .btn { display: inline-block; background: #2563eb; color: white; padding: 15px 35px; text-decoration: none; border-radius: 8px; font-weight: 600; margin: 0 10px; }
        .features { padding: 5rem 0; background: #f8fafc; }
        .features h2 { text-align: center; font-size: 2.5rem; margin-bottom: 3rem; color: #1e293b; }
        .features-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(350px, 1fr)); gap: 3rem; }
        .feature { background: white; padding: 2.5rem; border-radius: 15px; box-shadow: 0 10px 30px rgba(0,0,0,0.1); text-align: center; }
        .feature h3 { color: #1e293b; margin-bottom: 1rem; font-size: 1.3rem; }
        .feature p { color: #64748b; line-height: 1.7; }
        footer { background: #1e293b; color: #94a3b8; text-align: center; padding: 3rem 0; }
    </style>
</head>
<body>
    <header>
        <nav class="container">
            <div class="logo">Global Digital Solutions</div>
            <ul class="nav-links">
                <li><a href="#home">Home</a></li>
                <li><a href="#services">Solutions</a></li>
                <li><a href="#about">About</a></li>
                <li><a href="#contact">Contact</a></li>
            </ul>
        </nav>
    </header>

    <section class="hero">
        <div class="container">
            <h1>Transform Your Digital Future</h1>
            <p>Leading enterprise cloud solutions and digital infrastructure services for businesses worldwide. Secure, scalable, and always available.</p>
            <a href="#services" class="btn">Explore Solutions</a>
        </div>
    </section>

    <section class="features" id="services">
        <div class="container">
            <h2>Enterprise Cloud Solutions</h2>
            <div class="features-grid">
                <div class="feature">
                    <h3>Cloud Infrastructure</h3>
                    <p>Scalable and secure cloud infrastructure with global reach. Deploy your applications with confidence on our enterprise-grade platform.</p>
                </div>
                <div class="feature">
                    <h3>Security &amp; Compliance</h3>
                    <p>Advanced security protocols and compliance standards including SOC 2, ISO 27001, and GDPR to protect your business data.</p>
                </div>
                <div class="feature">
                    <h3>High Performance</h3>
                    <p>Lightning-fast performance with our global CDN network and optimized infrastructure for maximum speed and reliability.</p>
                </div>
            </div>
        </div>
    </section>

    <footer>
        <div class="container">
            <p>&copy; 2024 Global Digital Solutions Inc. All rights reserved. | Enterprise Cloud Services</p>
        </div>
    </footer>
</body>
</html>
`

// robotsTxt makes the decoy site look indexed.
const robotsTxt = `User-agent: *
Allow: /

Sitemap: /sitemap.xml
`

// sitemapXML completes the decoy site surface.
const sitemapXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>/</loc>
    <lastmod>2024-01-01</lastmod>
    <changefreq>monthly</changefreq>
    <priority>1.0</priority>
  </url>
  <url>
    <loc>/services</loc>
    <lastmod>2024-01-01</lastmod>
    <changefreq>monthly</changefreq>
    <priority>0.8</priority>
  </url>
  <url>
    <loc>/about</loc>
    <lastmod>2024-01-01</lastmod>
    <changefreq>monthly</changefreq>
    <priority>0.6</priority>
  </url>
  <url>
    <loc>/contact</loc>
    <lastmod>2024-01-01</lastmod>
    <changefreq>monthly</changefreq>
    <priority>0.7</priority>
  </url>
</urlset>
`

// Generator writes the decoy site files.
type Generator struct{}

// Ensure creates dir and writes the decoy site into it.  The content is
// constant, so repeated calls produce byte-identical files.
func (g *Generator) Ensure(dir string) (err error) {
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return fmt.Errorf("creating web root: %w", err)
	}

	files := []struct {
		name    string
		content string
	}{{
		name:    "index.html",
		content: indexHTML,
	}, {
		name:    "robots.txt",
		content: robotsTxt,
	}, {
		name:    "sitemap.xml",
		content: sitemapXML,
	}}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		err = os.WriteFile(path, []byte(f.content), 0o644)
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	log.Debug("webroot: decoy site written to %s", dir)

	return nil
}
