package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSaleMetrics(t *testing.T) {
	m := NewSale(prometheus.NewRegistry())

	m.RecordAccepted(1, 500000)
	m.RecordAccepted(2, 500000)
	m.RecordRejected("sale_not_open")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.purchasesAccepted))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.etherRaised))
	assert.Equal(t, 1e6, testutil.ToFloat64(m.tokensSold))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchasesRejected.WithLabelValues("sale_not_open")))
}

func TestSaleMetrics_NilIsNoop(t *testing.T) {
	var m *Sale
	m.RecordAccepted(1, 1)
	m.RecordRejected("x")
}
