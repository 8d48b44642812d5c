package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "docchat_gateway_requests_total",
	Help: "Gateway round trips by operation and outcome.",
}, []string{"op", "outcome"})

func observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
}
