package tools

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GateDecisionsTotal counts access gate results for calculator requests.
	GateDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moneylens",
		Subsystem: "tools",
		Name:      "gate_decisions_total",
		Help:      "Access gate decisions for premium calculators.",
	}, []string{"decision"})

	// CalculationsTotal counts calculator runs by tool and result.
	CalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moneylens",
		Subsystem: "tools",
		Name:      "calculations_total",
		Help:      "Calculator runs by tool and result.",
	}, []string{"tool", "result"})
)
