package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts extraction outcomes per document type.
type Metrics struct {
	extractions *prometheus.CounterVec
}

// NewMetrics registers the extraction counters on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ktp_extractions_total",
				Help: "Total number of extraction requests by document type and outcome.",
			},
			[]string{"document_type", "outcome"},
		),
	}
	if err := reg.Register(m.extractions); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) observe(documentType, outcome string) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(documentType, outcome).Inc()
}
