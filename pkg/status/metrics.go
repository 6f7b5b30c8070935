package status

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/DeBrosOfficial/branchnode/pkg/chain"
)

const namespace = "branchnode"

type metrics struct {
	registry *prometheus.Registry

	bestNumber      *prometheus.GaugeVec
	finalizedNumber *prometheus.GaugeVec
	targetNumber    *prometheus.GaugeVec
	peers           *prometheus.GaugeVec
	syncing         *prometheus.GaugeVec
	downloadRate    *prometheus.GaugeVec
	uploadRate      *prometheus.GaugeVec
	reports         *prometheus.CounterVec
}

func chainGauge(subsystem, name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, []string{"chain"})
}

func newMetrics() *metrics {
	m := &metrics{
		registry:        prometheus.NewRegistry(),
		bestNumber:      chainGauge("chain", "best_number", "Best block number of the chain."),
		finalizedNumber: chainGauge("chain", "finalized_number", "Finalized block number of the chain."),
		targetNumber:    chainGauge("sync", "target_number", "Best block number announced by peers while syncing."),
		peers:           chainGauge("network", "peers", "Connected peers of the chain network."),
		syncing:         chainGauge("sync", "syncing", "1 while the chain is downloading blocks, else 0."),
		downloadRate:    chainGauge("network", "download_bytes_per_second", "Average download rate."),
		uploadRate:      chainGauge("network", "upload_bytes_per_second", "Average upload rate."),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "status",
			Name:      "reports_total",
			Help:      "Status lines rendered per chain.",
		}, []string{"chain"}),
	}
	m.registry.MustRegister(
		m.bestNumber,
		m.finalizedNumber,
		m.targetNumber,
		m.peers,
		m.syncing,
		m.downloadRate,
		m.uploadRate,
		m.reports,
	)
	return m
}

func (m *metrics) observe(s chain.Snapshot) {
	m.bestNumber.WithLabelValues(s.Chain).Set(float64(s.Info.BestNumber))
	m.finalizedNumber.WithLabelValues(s.Chain).Set(float64(s.Info.FinalizedNumber))
	m.peers.WithLabelValues(s.Chain).Set(float64(s.Peers))
	m.downloadRate.WithLabelValues(s.Chain).Set(float64(s.DownloadPerSec))
	m.uploadRate.WithLabelValues(s.Chain).Set(float64(s.UploadPerSec))
	m.reports.WithLabelValues(s.Chain).Inc()

	if s.Target != nil {
		m.syncing.WithLabelValues(s.Chain).Set(1)
		m.targetNumber.WithLabelValues(s.Chain).Set(float64(*s.Target))
	} else {
		m.syncing.WithLabelValues(s.Chain).Set(0)
	}
}
