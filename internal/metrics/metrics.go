// Package metrics holds the Prometheus instruments of the hosting service.
// All collectors are registered with the default registry and exposed on
// /metrics by the HTTP router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SitesDeployed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hosted_sites_deployed_total",
			Help: "Sites published, by origin type.",
		}, []string{"type"})

	DeployErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hosted_sites_deploy_errors_total",
			Help: "Failed publications, by origin type.",
		}, []string{"type"})

	SitesServed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hosted_sites_served_total",
			Help: "Files served from hosted sites.",
		})

	SitesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hosted_sites_deleted_total",
			Help: "Sites deleted through the API.",
		})

	OrphansRemoved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hosted_sites_orphans_removed_total",
			Help: "Site directories removed because no registry row referenced them.",
		})
)

func init() {
	prometheus.MustRegister(
		SitesDeployed,
		DeployErrors,
		SitesServed,
		SitesDeleted,
		OrphansRemoved,
	)
}
