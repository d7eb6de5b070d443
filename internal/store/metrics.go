package store

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var liveDocumentsDesc = prometheus.NewDesc(
	"casa_documents_live",
	"Number of live (not soft deleted) documents per collection.",
	[]string{"collection"}, nil,
)

var _ prometheus.Collector = (*DocumentStore)(nil)

// Describe implements prometheus.Collector.
func (s *DocumentStore) Describe(ch chan<- *prometheus.Desc) {
	ch <- liveDocumentsDesc
}

// Collect implements prometheus.Collector. Collections that cannot be
// counted are skipped.
func (s *DocumentStore) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, name := range s.Collections() {
		n, err := s.Count(ctx, name)
		if err != nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(liveDocumentsDesc, prometheus.GaugeValue, float64(n), name)
	}
}
