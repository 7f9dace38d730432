// Package cmd is responsible for the program's command-line interface.
package cmd

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/AdguardTeam/golibs/log"
	"github.com/AdguardTeam/golibs/netutil"
	goFlags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/artifact"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/cert"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/config"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/deploy"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/hysteria"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/metrics"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/nginx"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/profile"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/service"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/share"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/version"
	"github.com/wkjw/clash-jiaoben-vps-vpn/internal/webroot"
)

// Main is the entry point of the program.
func Main() {
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		fmt.Printf("hy2nginx version: %s\n", version.Version())

		os.Exit(0)
	}

	o, command, err := parseOptions()
	var flagErr *goFlags.Error
	if errors.As(err, &flagErr) && flagErr.Type == goFlags.ErrHelp {
		// This is a special case when we exit process here as we received
		// --help.
		os.Exit(0)
	}

	check("parse args", err)

	if o.Verbose {
		log.SetLevel(log.DEBUG)
	}

	envs, err := readEnvs()
	check("read environment", err)

	cfg, err := config.Load(o.ConfigPath)
	check("load config file", err)

	applyEnvs(cfg, envs)

	if cfg.Server.Address == "" {
		cfg.Server.Address = detectAddress()

		log.Info("cmd: detected server address %s", cfg.Server.Address)
	}

	p, err := cfg.ToProfile()
	check("build deployment profile", err)

	switch command {
	case commandInstall:
		install(cfg, p)
	case commandLink:
		fmt.Println(share.Build(p))
	case commandStart:
		check("start proxy", newService(p).Start())
	case commandStop:
		check("stop proxy", newService(p).Stop())
	case commandRun:
		run(cfg, p)
	default:
		check("parse args", fmt.Errorf("unknown command %q", command))
	}
}

// install performs a full deployment run and prints the resulting connection
// descriptor.
func install(cfg *config.File, p *profile.Profile) {
	orch := deploy.NewOrchestrator(&deploy.Config{
		Profile: p,
		Synthesizer: hysteria.NewSynthesizer(&hysteria.SynthesizerConfig{
			Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		}),
		Renderer: nginx.NewRenderer(&nginx.RendererConfig{
			User:     cfg.NginxUser(),
			ConfPath: cfg.NginxConfPath(),
		}),
		Artifacts:    artifact.NewDownloader(&artifact.DownloaderConfig{Dir: p.BaseDir}),
		Certificates: &cert.Provider{Dir: p.CertDir()},
		Validator:    &nginx.CmdValidator{Sudo: cfg.NginxSudo()},
		Service:      &nginx.CmdService{Sudo: cfg.NginxSudo()},
		WebRoot:      &webroot.Generator{},
		ServiceName:  cfg.NginxService(),
	})

	res, err := orch.Run()

	result := "success"
	if err != nil {
		result = "failure"
	}

	metrics.DeploymentsTotal.WithLabelValues(result).Inc()

	check("deploy", err)

	fmt.Printf(`deployment succeeded

server:      %s
proxy port:  %d (UDP)
web port:    %d (TCP)
binary:      %s
config:      %s

client descriptor:
%s

start the proxy with the "start" command, stop it with "stop".
`,
		p.Address,
		p.Port,
		p.Port,
		res.BinaryPath,
		res.ActiveConfigPath,
		res.ClientDescriptor,
	)
}

// run supervises the proxy process in the foreground and exposes the metrics
// endpoint if it is configured.
func run(cfg *config.File, p *profile.Profile) {
	svc := newService(p)

	metrics.SetUpGauge(version.Version(), runtime.Version())

	if cfg.Prometheus != nil {
		go serveMetrics(cfg.Prometheus.Addr, cfg.Prometheus.Port)
	}

	sigHandler := newSignalHandler(svc)
	go sigHandler.handle()

	err := svc.Run()
	if err != nil {
		log.Info("cmd: proxy exited: %v", err)
	}
}

// newService creates the process controller for the deployed proxy.
func newService(p *profile.Profile) (svc *service.Service) {
	return service.New(&service.Config{
		BinaryPath: filepath.Join(p.BaseDir, "hysteria"),
		ConfigPath: p.ConfigPath(),
		LogPath:    p.LogPath(),
	})
}

// applyEnvs overrides configuration file values with the environment ones.
func applyEnvs(cfg *config.File, envs *environments) {
	if envs.ServerAddress != "" {
		cfg.Server.Address = envs.ServerAddress
	}

	if envs.ServerPassword != "" {
		cfg.Server.Password = envs.ServerPassword
	}

	if envs.ObfsPassword != "" {
		if cfg.Features == nil {
			cfg.Features = &config.Features{}
		}

		cfg.Features.ObfsPassword = envs.ObfsPassword
	}
}

// check panics if err is not nil.
func check(operationName string, err error) {
	if err != nil {
		log.Error("failed to %s: %v", operationName, err)

		os.Exit(1)
	}
}

// serveMetrics starts the prometheus endpoint.
func serveMetrics(listenAddr string, port uint16) {
	metricsAddr := netutil.JoinHostPort(listenAddr, port)
	log.Info("Starting metrics at %s", metricsAddr)

	mux := &http.ServeMux{}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health-check", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "OK")
	})

	srv := &http.Server{
		Addr:         metricsAddr,
		Handler:      mux,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Metrics failed to listen to %s: %v", metricsAddr, err)
	}
}
