// internal/metrics/metrics.go
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/emcon/internal/site"
	"github.com/tamzrod/emcon/internal/status"
)

const namespace = "emcon"

// Collector holds the gauges describing the latest scan of each site.
// Every Observe replaces the site's previous series.
type Collector struct {
	reg *prometheus.Registry

	sitePass     *prometheus.GaugeVec
	siteResults  *prometheus.GaugeVec
	siteErrors   *prometheus.GaugeVec
	siteScanTime *prometheus.GaugeVec
	siteDuration *prometheus.GaugeVec
	unitPass     *prometheus.GaugeVec
	unitBattery  *prometheus.GaugeVec
}

// New creates a collector on its own registry.
func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		sitePass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "site_pass",
			Help:      "1 when every unit of the site passed the last scan.",
		}, []string{"site"}),
		siteResults: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "site_results",
			Help:      "Units per verdict category in the last scan.",
		}, []string{"site", "category"}),
		siteErrors: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "site_unit_errors",
			Help:      "Units that could not be polled in the last scan.",
		}, []string{"site"}),
		siteScanTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "site_last_scan_timestamp_seconds",
			Help:      "Start time of the last scan.",
		}, []string{"site"}),
		siteDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "site_scan_duration_seconds",
			Help:      "Wall time of the last scan.",
		}, []string{"site"}),
		unitPass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unit_pass",
			Help:      "1 when the unit passed the last scan.",
		}, []string{"site", "bus", "address", "name"}),
		unitBattery: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unit_battery_charge_percent",
			Help:      "Battery charge reported by the unit. Absent when unknown.",
		}, []string{"site", "bus", "address"}),
	}

	c.reg.MustRegister(
		c.sitePass,
		c.siteResults,
		c.siteErrors,
		c.siteScanTime,
		c.siteDuration,
		c.unitPass,
		c.unitBattery,
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.reg }

// Observe records one scan result.
func (c *Collector) Observe(s *site.Site, res site.Result) {
	key := prometheus.Labels{"site": s.Key}
	for _, v := range []*prometheus.GaugeVec{c.siteResults, c.unitPass, c.unitBattery} {
		v.DeletePartialMatch(key)
	}

	c.sitePass.WithLabelValues(s.Key).Set(boolValue(res.Pass))
	c.siteErrors.WithLabelValues(s.Key).Set(float64(res.Errors))
	c.siteScanTime.WithLabelValues(s.Key).Set(float64(res.ReportTime.Unix()))
	c.siteDuration.WithLabelValues(s.Key).Set(res.Duration.Seconds())

	// every category is present so absent series read as zero
	for _, cat := range status.Categories() {
		c.siteResults.WithLabelValues(s.Key, cat.String()).Set(float64(res.Categories[cat]))
	}

	for _, u := range res.Units {
		addr := strconv.Itoa(int(u.Address))
		c.unitPass.WithLabelValues(s.Key, u.Bus, addr, u.Name).Set(boolValue(u.Pass()))
		if u.Snapshot.BatteryCharge != nil {
			c.unitBattery.WithLabelValues(s.Key, u.Bus, addr).Set(*u.Snapshot.BatteryCharge)
		}
	}
}

// WriteTextfile writes every series in the node_exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.reg)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
