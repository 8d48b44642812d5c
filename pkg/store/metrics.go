package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	opsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docchat_store_ops_total",
		Help: "Completed key-value operations by kind.",
	}, []string{"op"})

	opsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docchat_store_op_failures_total",
		Help: "Failed key-value operations by kind.",
	}, []string{"op"})
)
