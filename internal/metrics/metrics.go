package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beamly/fastlydash/internal/report"
)

type Metrics struct {
	HitRatio    *prometheus.GaugeVec
	Bandwidth   *prometheus.GaugeVec
	Requests    *prometheus.GaugeVec
	StatusClass *prometheus.GaugeVec
	Services    prometheus.Gauge
	Generated   prometheus.Gauge
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HitRatio: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fastly_service_hit_ratio_percent",
			Help: "Cache hit ratio over the lookback window, as an integer percentage.",
		}, []string{"service", "service_id"}),
		Bandwidth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fastly_service_bandwidth_bytes",
			Help: "Bytes served over the lookback window.",
		}, []string{"service", "service_id"}),
		Requests: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fastly_service_requests",
			Help: "Requests served over the lookback window.",
		}, []string{"service", "service_id"}),
		StatusClass: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "fastly_service_status_class_percent",
			Help: "Share of responses per HTTP status class, as an integer percentage.",
		}, []string{"service", "service_id", "class"}),
		Services: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fastlydash_services",
			Help: "Number of services in the directory.",
		}),
		Generated: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fastlydash_generated_timestamp_seconds",
			Help: "Unix time the report was generated.",
		}),
	}

	registry.MustRegister(
		m.HitRatio,
		m.Bandwidth,
		m.Requests,
		m.StatusClass,
		m.Services,
		m.Generated,
	)

	return m
}

// Observe records the report. Values without data are left unset.
func (m *Metrics) Observe(rows []report.Row, generated time.Time) {
	m.Services.Set(float64(len(rows)))
	m.Generated.Set(float64(generated.Unix()))

	for _, row := range rows {
		setIfValid(m.HitRatio, row, row.HitRatio)
		setIfValid(m.Bandwidth, row, row.Bandwidth)
		setIfValid(m.Requests, row, row.Requests)

		classes := []struct {
			name  string
			value report.Value
		}{
			{"2xx", row.Status2xx},
			{"3xx", row.Status3xx},
			{"4xx", row.Status4xx},
			{"5xx", row.Status5xx},
		}
		for _, c := range classes {
			if c.value.Valid {
				m.StatusClass.WithLabelValues(row.Name, row.ID, c.name).Set(float64(c.value.N))
			}
		}
	}
}

func setIfValid(vec *prometheus.GaugeVec, row report.Row, v report.Value) {
	if v.Valid {
		vec.WithLabelValues(row.Name, row.ID).Set(float64(v.N))
	}
}

// WriteTextfile writes the report in the node_exporter textfile format.
func WriteTextfile(path string, rows []report.Row, generated time.Time) error {
	registry := prometheus.NewRegistry()
	New(registry).Observe(rows, generated)

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
