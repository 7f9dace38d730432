package deploy_test

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/deploy"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/hysteria"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/nginx"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/share"
)

// fakeArtifacts is an ArtifactProvider that returns a fixed path.
type fakeArtifacts struct {
	path string
}

func (f *fakeArtifacts) Acquire(_, _ string) (path string, err error) {
	return f.path, nil
}

// fakeCerts is a CertificateProvider that returns fixed paths and records
// whether it was invoked.
type fakeCerts struct {
	certPath string
	keyPath  string
	invoked  bool
}

func (f *fakeCerts) EnsureCertificate(_ string) (certPath, keyPath string, err error) {
	f.invoked = true

	return f.certPath, f.keyPath, nil
}

// fakeValidator is a SyntaxValidator with a configurable verdict.
type fakeValidator struct {
	msg string
	ok  bool
}

func (f *fakeValidator) Validate(_ string) (ok bool, msg string) {
	return f.ok, f.msg
}

// fakeService is a ServiceController with a configurable verdict.
type fakeService struct {
	msg      string
	restarts int
	ok       bool
}

func (f *fakeService) Restart(_ string) (ok bool, msg string) {
	f.restarts++

	return f.ok, f.msg
}

// fakeWebRoot is a WebRootProvider that only creates the directory.
type fakeWebRoot struct{}

func (f *fakeWebRoot) Ensure(dir string) (err error) {
	return os.MkdirAll(dir, 0o755)
}

// env bundles an orchestrator with its fakes and paths.
type env struct {
	orch     *deploy.Orchestrator
	certs    *fakeCerts
	service  *fakeService
	confPath string
	profile  *profile.Profile
	portFree bool
}

// newEnv creates an orchestrator wired to fakes under a fresh temp dir.
func newEnv(t *testing.T, validatorOK, serviceOK bool) (e *env) {
	t.Helper()

	dir := t.TempDir()

	e = &env{
		certs: &fakeCerts{
			certPath: filepath.Join(dir, "server.crt"),
			keyPath:  filepath.Join(dir, "server.key"),
		},
		service:  &fakeService{ok: serviceOK, msg: "fake"},
		confPath: filepath.Join(dir, "nginx.conf"),
		portFree: true,
		profile: &profile.Profile{
			Address:       "203.0.113.10",
			Password:      "p@ss word",
			BaseDir:       filepath.Join(dir, "base"),
			BandwidthUp:   "1000 mbps",
			BandwidthDown: "1000 mbps",
			Port:          54116,
			Features: profile.Features{
				PortHopping:  true,
				ObfsPassword: "ob/fs",
			},
		},
	}

	e.orch = deploy.NewOrchestrator(&deploy.Config{
		Profile: e.profile,
		Synthesizer: hysteria.NewSynthesizer(&hysteria.SynthesizerConfig{
			Rand: rand.New(rand.NewSource(1)),
		}),
		Renderer: nginx.NewRenderer(&nginx.RendererConfig{
			User:     "nginx",
			ConfPath: e.confPath,
		}),
		Artifacts:    &fakeArtifacts{path: filepath.Join(dir, "hysteria")},
		Certificates: e.certs,
		Validator:    &fakeValidator{ok: validatorOK, msg: "fake"},
		Service:      e.service,
		WebRoot:      &fakeWebRoot{},
		PortProbe:    func(_ uint16) (free bool) { return e.portFree },
	})

	return e
}

func TestOrchestrator_Run(t *testing.T) {
	e := newEnv(t, true, true)

	res, err := e.orch.Run()
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Success)
	assert.True(t, e.certs.invoked)
	assert.Equal(t, 1, e.service.restarts)
	assert.NotEmpty(t, res.Diagnostics)

	cfgData, err := os.ReadFile(res.ActiveConfigPath)
	require.NoError(t, err)
	assert.Contains(t, string(cfgData), `"listen": ":54116"`)

	docData, err := os.ReadFile(e.confPath)
	require.NoError(t, err)
	assert.Contains(t, string(docData), "listen 54116 ssl http2;")

	// The descriptor round-trips through the parser.
	d, err := share.Parse(res.ClientDescriptor)
	require.NoError(t, err)

	assert.Equal(t, e.profile.Address, d.Address)
	assert.Equal(t, e.profile.Port, d.Port)
	assert.Equal(t, e.profile.Password, d.Password)
	assert.Equal(t, e.profile.Features.ObfsPassword, d.ObfsPassword)
	assert.True(t, d.Insecure)
}

func TestOrchestrator_Run_validationRollback(t *testing.T) {
	e := newEnv(t, false, true)

	prior := []byte("prior front proxy document\n")
	require.NoError(t, os.WriteFile(e.confPath, prior, 0o644))

	res, err := e.orch.Run()
	require.Error(t, err)

	var valErr *deploy.ValidationError
	require.ErrorAs(t, err, &valErr)

	assert.False(t, res.Success)
	assert.Equal(t, 0, e.service.restarts)
	assert.Empty(t, res.ClientDescriptor)

	// The live document equals the pre-run bytes exactly.
	got, readErr := os.ReadFile(e.confPath)
	require.NoError(t, readErr)
	assert.Equal(t, prior, got)

	// The proxy config write is rolled back too: nothing existed before.
	_, statErr := os.Stat(e.profile.ConfigPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestOrchestrator_Run_documentWriteFailure(t *testing.T) {
	e := newEnv(t, true, true)

	// A directory at the document path makes the document-side transaction
	// fail after the proxy config has already been written.
	require.NoError(t, os.MkdirAll(e.confPath, 0o755))

	prior := []byte("prior proxy config\n")
	require.NoError(t, os.MkdirAll(filepath.Dir(e.profile.ConfigPath()), 0o755))
	require.NoError(t, os.WriteFile(e.profile.ConfigPath(), prior, 0o644))

	res, err := e.orch.Run()
	require.Error(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 0, e.service.restarts)

	// The proxy config equals the pre-run bytes exactly.
	got, readErr := os.ReadFile(e.profile.ConfigPath())
	require.NoError(t, readErr)
	assert.Equal(t, prior, got)
}

func TestOrchestrator_Run_portBusy(t *testing.T) {
	e := newEnv(t, true, true)
	e.portFree = false

	res, err := e.orch.Run()
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Contains(t, res.Diagnostics, "udp port 54116 appears to be in use")
}

func TestOrchestrator_Run_activationFailure(t *testing.T) {
	e := newEnv(t, true, false)

	res, err := e.orch.Run()
	require.Error(t, err)

	var actErr *deploy.ActivationError
	require.ErrorAs(t, err, &actErr)

	assert.False(t, res.Success)

	// The files are deliberately kept: they passed validation.
	docData, readErr := os.ReadFile(e.confPath)
	require.NoError(t, readErr)
	assert.Contains(t, string(docData), "listen 54116 ssl http2;")

	_, statErr := os.Stat(e.profile.ConfigPath())
	assert.NoError(t, statErr)
}

func TestOrchestrator_Run_idempotent(t *testing.T) {
	first := newEnv(t, true, true)
	res, err := first.orch.Run()
	require.NoError(t, err)

	firstCfg, err := os.ReadFile(res.ActiveConfigPath)
	require.NoError(t, err)

	firstDoc, err := os.ReadFile(first.confPath)
	require.NoError(t, err)

	second := newEnv(t, true, true)

	res, err = second.orch.Run()
	require.NoError(t, err)

	secondCfg, err := os.ReadFile(res.ActiveConfigPath)
	require.NoError(t, err)

	secondDoc, err := os.ReadFile(second.confPath)
	require.NoError(t, err)

	// Same profile, same seed: byte-identical outputs up to the temp dir
	// embedded in the paths.
	firstDir := filepath.Dir(first.confPath)
	secondDir := filepath.Dir(second.confPath)

	assert.Equal(t,
		strings.ReplaceAll(string(firstCfg), firstDir, ""),
		strings.ReplaceAll(string(secondCfg), secondDir, ""),
	)
	assert.Equal(t,
		strings.ReplaceAll(string(firstDoc), firstDir, ""),
		strings.ReplaceAll(string(secondDoc), secondDir, ""),
	)
}
