// Package deploy is responsible for orchestrating a deployment run: acquire
// prerequisites, synthesize the proxy configuration, render the front proxy
// document, then activate everything without ever leaving the host with a
// broken web server.
package deploy

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/log"
	"github.com/AdguardTeam/golibs/netutil"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/hysteria"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/nginx"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/share"
)

// ArtifactProvider acquires the proxy server binary for the given platform.
type ArtifactProvider interface {
	Acquire(osName, arch string) (path string, err error)
}

// CertificateProvider makes sure a certificate for the given common name
// exists and returns the paths to the certificate and the key.
type CertificateProvider interface {
	EnsureCertificate(commonName string) (certPath, keyPath string, err error)
}

// SyntaxValidator checks the syntax of a written front proxy document.
type SyntaxValidator interface {
	Validate(documentPath string) (ok bool, msg string)
}

// ServiceController restarts system services.
type ServiceController interface {
	Restart(serviceName string) (ok bool, msg string)
}

// WebRootProvider makes sure the decoy web root exists at dir.
type WebRootProvider interface {
	Ensure(dir string) (err error)
}

// Config is the configuration for creating an Orchestrator.
type Config struct {
	// Profile is the deployment profile.  Must not be nil.
	Profile *profile.Profile

	// Synthesizer derives the proxy configuration.  Must not be nil.
	Synthesizer *hysteria.Synthesizer

	// Renderer renders the front proxy document.  Must not be nil.
	Renderer *nginx.Renderer

	// Artifacts, Certificates, Validator, Service and WebRoot are the
	// external collaborators.  All must not be nil.
	Artifacts    ArtifactProvider
	Certificates CertificateProvider
	Validator    SyntaxValidator
	Service      ServiceController
	WebRoot      WebRootProvider

	// ServiceName is the front proxy service name.  If empty, "nginx" is
	// used.
	ServiceName string

	// OS and Arch identify the platform the artifact is acquired for.  If
	// empty, the current platform is used.
	OS   string
	Arch string

	// PortProbe reports whether the proxy's UDP port can be bound.  If nil,
	// a plain listen probe is used.
	PortProbe func(port uint16) (free bool)
}

// Result describes the outcome of a single deployment run.
type Result struct {
	// ActiveConfigPath is the path to the written proxy configuration.
	ActiveConfigPath string

	// BinaryPath is the path to the acquired proxy binary.
	BinaryPath string

	// ClientDescriptor is the shareable connection descriptor.  Empty until
	// the front proxy document has been validated.
	ClientDescriptor string

	// Diagnostics is the ordered log of what the run did.
	Diagnostics []string

	// Success is true only when the run reached the active state.
	Success bool
}

// note appends a diagnostic line to the result and logs it.
func (r *Result) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Diagnostics = append(r.Diagnostics, msg)

	log.Info("deploy: %s", msg)
}

// Orchestrator sequences one deployment run.  Each run starts fresh: the
// orchestrator keeps no state between runs, and re-running after a failure is
// always safe because the backup captures the state immediately prior to this
// run's own write.  Callers must serialize runs.
type Orchestrator struct {
	profile      *profile.Profile
	synthesizer  *hysteria.Synthesizer
	renderer     *nginx.Renderer
	artifacts    ArtifactProvider
	certificates CertificateProvider
	validator    SyntaxValidator
	service      ServiceController
	webRoot      WebRootProvider
	serviceName  string
	osName       string
	arch         string
	portProbe    func(port uint16) (free bool)
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(cfg *Config) (o *Orchestrator) {
	o = &Orchestrator{
		profile:      cfg.Profile,
		synthesizer:  cfg.Synthesizer,
		renderer:     cfg.Renderer,
		artifacts:    cfg.Artifacts,
		certificates: cfg.Certificates,
		validator:    cfg.Validator,
		service:      cfg.Service,
		webRoot:      cfg.WebRoot,
		serviceName:  cfg.ServiceName,
		osName:       cfg.OS,
		arch:         cfg.Arch,
		portProbe:    cfg.PortProbe,
	}

	if o.serviceName == "" {
		o.serviceName = "nginx"
	}

	if o.osName == "" {
		o.osName = runtime.GOOS
	}

	if o.arch == "" {
		o.arch = runtime.GOARCH
	}

	if o.portProbe == nil {
		o.portProbe = udpPortFree
	}

	return o
}

// Run performs the deployment.  res is never nil and carries the ordered
// diagnostics even when err is not nil.  With an identical profile and
// synthesizer randomness the written documents are byte-identical between
// runs.
func (o *Orchestrator) Run() (res *Result, err error) {
	res = &Result{}

	eff, binPath, err := o.prepare(res)
	if err != nil {
		return res, err
	}

	res.BinaryPath = binPath

	proxyCfg := o.synthesizer.Synthesize(eff)
	cfgData, err := proxyCfg.Marshal()
	if err != nil {
		return res, fmt.Errorf("marshaling proxy config: %w", err)
	}

	res.note("synthesized proxy config for port %d", eff.Port)

	doc, err := o.renderer.Render(eff, eff.WebRoot)
	if err != nil {
		return res, fmt.Errorf("rendering front proxy document: %w", err)
	}

	res.note("rendered front proxy document for %s", doc.Path)

	err = o.activate(res, eff, cfgData, doc)
	if err != nil {
		return res, err
	}

	res.Success = true

	return res, nil
}

// prepare acquires the prerequisites and returns the effective profile: a
// copy of the configured one with the web root and certificate paths
// resolved.  The original profile is never mutated.
func (o *Orchestrator) prepare(res *Result) (eff *profile.Profile, binPath string, err error) {
	p := *o.profile
	eff = &p

	// The front proxy holds the TCP side of the port, the proxy itself the
	// UDP one, so only the UDP side is probed.  A busy port is worth a
	// warning, not an abort: it may well be a prior proxy instance.
	if !o.portProbe(eff.Port) {
		res.note("udp port %d appears to be in use", eff.Port)
	}

	for _, dir := range []string{"config", "logs", "cert"} {
		err = os.MkdirAll(filepath.Join(eff.BaseDir, dir), 0o755)
		if err != nil {
			return nil, "", fmt.Errorf("creating %s dir: %w", dir, err)
		}
	}

	binPath, err = o.artifacts.Acquire(o.osName, o.arch)
	if err != nil {
		return nil, "", &AcquisitionError{Err: err, OS: o.osName, Arch: o.arch}
	}

	res.note("acquired proxy binary at %s", binPath)

	// A supplied web root is used as is, only the generated one is filled
	// with decoy content.
	if eff.WebRoot == "" {
		eff.WebRoot = eff.WebDir()

		err = o.webRoot.Ensure(eff.WebRoot)
		if err != nil {
			return nil, "", fmt.Errorf("ensuring web root %s: %w", eff.WebRoot, err)
		}
	}

	if !fileExists(eff.CertPath) || !fileExists(eff.KeyPath) {
		if eff.RealCert {
			res.note("certificate files missing, falling back to self-signed")
		}

		eff.CertPath, eff.KeyPath, err = o.certificates.EnsureCertificate(eff.Address)
		if err != nil {
			return nil, "", &CertificateError{Err: err, CommonName: eff.Address}
		}

		eff.RealCert = false
	}

	res.note("using certificate %s", eff.CertPath)

	return eff, binPath, nil
}

// activate writes both documents under the backup discipline, validates the
// front proxy document and restarts the service.  On validation failure both
// files are restored to their exact prior bytes.  On restart failure the
// files are kept: they already passed validation, only the process
// activation failed.
func (o *Orchestrator) activate(
	res *Result,
	eff *profile.Profile,
	cfgData []byte,
	doc *nginx.Document,
) (err error) {
	cfgTx, err := BeginFileTx(eff.ConfigPath())
	if err != nil {
		return err
	}

	err = cfgTx.Write(cfgData, 0o644)
	if err != nil {
		return err
	}

	res.ActiveConfigPath = eff.ConfigPath()
	res.note("wrote proxy config to %s", eff.ConfigPath())

	docTx, err := BeginFileTx(doc.Path)
	if err != nil {
		return errors.Join(err, cfgTx.Revert())
	}

	if docTx.Existed() {
		res.note("backed up prior front proxy document at %s", doc.Path)
	} else {
		res.note("no prior front proxy document at %s", doc.Path)
	}

	err = docTx.Write([]byte(doc.Text), 0o644)
	if err != nil {
		return errors.Join(err, docTx.Revert(), cfgTx.Revert())
	}

	res.note("wrote front proxy document to %s", doc.Path)

	ok, msg := o.validator.Validate(doc.Path)
	if !ok {
		res.note("front proxy document rejected, rolling back")

		err = &ValidationError{Path: doc.Path, Message: msg}

		return errors.Join(err, docTx.Revert(), cfgTx.Revert())
	}

	res.note("front proxy document validated")

	res.ClientDescriptor = share.Build(eff)

	ok, msg = o.service.Restart(o.serviceName)
	if !ok {
		return &ActivationError{Service: o.serviceName, Message: msg}
	}

	res.note("restarted %s", o.serviceName)

	return nil
}

// udpPortFree reports whether the UDP port can be bound on the wildcard
// address.
func udpPortFree(port uint16) (free bool) {
	c, err := net.ListenPacket("udp", netutil.JoinHostPort("", port))
	if err != nil {
		return false
	}

	log.OnCloserError(c, log.DEBUG)

	return true
}

// fileExists reports whether path is an existing regular file.
func fileExists(path string) (ok bool) {
	fi, err := os.Stat(path)

	return err == nil && fi.Mode().IsRegular()
}
