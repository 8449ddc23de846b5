package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sale holds the collectors describing purchase activity.
// A nil *Sale is valid and records nothing.
type Sale struct {
	purchasesAccepted prometheus.Counter
	purchasesRejected *prometheus.CounterVec
	etherRaised       prometheus.Gauge
	tokensSold        prometheus.Counter
}

// NewSale creates the sale collectors and registers them with reg.
func NewSale(reg prometheus.Registerer) *Sale {
	m := &Sale{
		purchasesAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_purchases_accepted_total",
			Help: "Count of purchases that fully committed.",
		}),
		purchasesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crowdsale_purchases_rejected_total",
			Help: "Count of rejected purchases by reason.",
		}, []string{"reason"}),
		etherRaised: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crowdsale_raised_ether",
			Help: "Accepted payment volume in whole currency units.",
		}),
		tokensSold: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crowdsale_tokens_sold_ether",
			Help: "Whole asset units delivered to buyers.",
		}),
	}
	reg.MustRegister(
		m.purchasesAccepted,
		m.purchasesRejected,
		m.etherRaised,
		m.tokensSold,
	)
	return m
}

// RecordAccepted tracks a committed purchase and the new raise total.
func (m *Sale) RecordAccepted(raisedEther, tokens float64) {
	if m == nil {
		return
	}
	m.purchasesAccepted.Inc()
	m.etherRaised.Set(raisedEther)
	m.tokensSold.Add(tokens)
}

// RecordRejected tracks a purchase that was refused for reason.
func (m *Sale) RecordRejected(reason string) {
	if m == nil {
		return
	}
	m.purchasesRejected.WithLabelValues(reason).Inc()
}
