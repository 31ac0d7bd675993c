// cmd/emcon/sinks.go
package main

import (
	"github.com/tamzrod/emcon/internal/metrics"
	"github.com/tamzrod/emcon/internal/site"
	"github.com/tamzrod/emcon/internal/writer"
)

// sinks deliver scan results beyond the text report: the Prometheus
// textfile and the optional per-site Modbus status memory.
type sinks struct {
	metrics     *metrics.Collector
	metricsPath string

	writers map[string]writer.Writer
	closers []func() error
}

// newSinks prepares status memory for every selected site that has one.
// A site whose plan cannot be built is logged and left without one.
func newSinks(sites []*site.Site, metricsPath string) *sinks {
	k := &sinks{
		metricsPath: metricsPath,
		writers:     make(map[string]writer.Writer),
	}
	if metricsPath != "" {
		k.metrics = metrics.New()
	}

	for _, s := range sites {
		plan, ok, err := writer.BuildPlan(app.cfg.Sites[s.Key])
		if err != nil {
			app.log.Error(err, "status memory plan", "site", s.Key)
			continue
		}
		if !ok {
			continue
		}

		cli, err := writer.BuildEndpointClient(plan)
		if err != nil {
			app.log.Error(err, "status memory client", "site", s.Key, "endpoint", plan.Endpoint)
			continue
		}
		k.writers[s.Key] = writer.New(plan, cli)
		k.closers = append(k.closers, cli.Close)
	}
	return k
}

func (k *sinks) deliver(s *site.Site, res site.Result) {
	if w, ok := k.writers[s.Key]; ok {
		if err := w.Write(res.Units); err != nil {
			app.log.Error(err, "status memory write", "site", s.Key)
		}
	}

	if k.metrics == nil {
		return
	}
	k.metrics.Observe(s, res)
	if err := k.metrics.WriteTextfile(k.metricsPath); err != nil {
		app.log.Error(err, "metrics textfile", "path", k.metricsPath)
	}
}

func (k *sinks) close() {
	for _, fn := range k.closers {
		_ = fn()
	}
}
