// Package metrics contains definitions of the prometheus metrics exposed by
// the foreground run command.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// constants with the namespace and the subsystem names that we use in our
// prometheus metrics.
const (
	namespace = "hy2nginx"

	subsystemApp      = "app"
	subsystemDeploy   = "deploy"
	subsystemArtifact = "artifact"
)

// DeploymentsTotal is the total number of deployment runs by result.
var DeploymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: subsystemDeploy,
	Name:      "runs_total",
	Help:      "The total number of deployment runs.",
}, []string{"result"})

// DownloadAttemptsTotal is the total number of artifact download attempts.
var DownloadAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: subsystemArtifact,
	Name:      "download_attempts_total",
	Help:      "The total number of artifact download attempts.",
})

// ProxyRunning is a gauge that is 1 while the supervised proxy process is
// running.
var ProxyRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: subsystemDeploy,
	Name:      "proxy_running",
	Help:      "Whether the supervised proxy process is running.",
})

// SetUpGauge signals that the program has been started.  Use a function here
// to avoid circular dependencies.
func SetUpGauge(version, goVersion string) {
	upGauge := promauto.NewGauge(
		prometheus.GaugeOpts{
			Name:      "up",
			Namespace: namespace,
			Subsystem: subsystemApp,
			Help:      `A metric with a constant '1' value labeled by the build information.`,
			ConstLabels: prometheus.Labels{
				"version":   version,
				"goversion": goVersion,
			},
		},
	)

	upGauge.Set(1)
}
